// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for agentterm.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/MaLoskins/agentterm/internal/config"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "agentterm",
		Short: "A supervised command execution engine",
		Long: TitleStyle.Render("agentterm") + SubtitleStyle.Render(" - a supervised command execution engine") + `

agentterm runs shell commands inside an isolated sandbox (a docker
container, the host shell, or a built-in virtual shell), streams their
output in real time, enforces wall-clock timeouts with a graceful kill
path, deduplicates package installs, and tracks background work in a
process registry.

` + SubtitleStyle.Render("Examples:") + `
  agentterm exec -- make build          Run a command in the sandbox
  agentterm exec -t 30s -- ./slow.sh    Enforce a 30 second timeout
  agentterm exec --background -- npm start
  agentterm shell                       Start an interactive session
  agentterm config show                 Show the effective configuration`,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/agentterm/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// loadConfig reads the configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
