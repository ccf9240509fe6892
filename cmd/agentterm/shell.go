// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/MaLoskins/agentterm/internal/engine"
	"github.com/MaLoskins/agentterm/internal/notify"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive session against the sandbox",
	Long: `Start a line-based interactive session. Each line is executed through
the engine, so directory changes, install deduplication, and timeout
enforcement all apply. Built-ins:

  history    show the commands issued this session
  ps         list live background processes
  exit       leave the session`,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "agentterm"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	eng, err := engine.New(cfg,
		engine.WithSink(shellSink(logger)),
		engine.WithLogger(slog.New(logger)),
	)
	if err != nil {
		return err
	}
	defer eng.Shutdown()

	if err := eng.Initialize(cmd.Context()); err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render("agentterm") + SubtitleStyle.Render(" interactive session — type exit to leave"))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(PromptStyle.Render(eng.Workdir()+" ❯") + " ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "exit", "quit":
			return scanner.Err()
		case "history":
			for i, c := range eng.CommandHistory() {
				fmt.Printf("%3d  %s\n", i+1, CmdStyle.Render(c))
			}
			continue
		case "ps":
			procs := eng.RunningProcesses()
			if len(procs) == 0 {
				fmt.Println(SubtitleStyle.Render("no live processes"))
				continue
			}
			for id, info := range procs {
				fmt.Printf("%s  %s  (started %s)\n",
					CmdStyle.Render(id), info.Command, info.StartedAt.Format("15:04:05"))
			}
			continue
		}

		res := eng.Execute(cmd.Context(), line)
		if res.Output != "" {
			fmt.Print(res.Output)
			if !strings.HasSuffix(res.Output, "\n") {
				fmt.Println()
			}
		}
		if !res.Success {
			fmt.Println(ErrorStyle.Render("✗ failed"))
		}
	}
	return scanner.Err()
}

// shellSink reports background terminal events between prompts; streamed
// chunks are suppressed because the final output is printed per command.
func shellSink(logger *log.Logger) notify.Sink {
	return func(e notify.Event) {
		switch e.Type {
		case notify.EventBackgroundComplete:
			logger.Info("background process finished", "process_id", e.Payload["process_id"])
		case notify.EventBackgroundTimeout:
			logger.Warn("background process timed out", "process_id", e.Payload["process_id"])
		case notify.EventBackgroundError:
			logger.Error("background process failed", "process_id", e.Payload["process_id"])
		}
	}
}
