// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/MaLoskins/agentterm/internal/config"

	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect agentterm configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE:  runConfigShow,
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Show the configuration directory",
		RunE: func(*cobra.Command, []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Println(dir)
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render("agentterm configuration"))
	show := func(key string, value any) {
		fmt.Printf("  %s %v\n", SubtitleStyle.Render(key+":"), value)
	}
	show("sandbox", cfg.Sandbox)
	show("container", cfg.Container)
	show("workspace", cfg.EffectiveWorkspace())
	show("command_timeout", cfg.CommandTimeout)
	show("stream_interval", cfg.StreamInterval)
	show("kill_grace", cfg.KillGrace)
	if cfg.Shell != "" {
		show("shell", cfg.Shell)
	}
	return nil
}
