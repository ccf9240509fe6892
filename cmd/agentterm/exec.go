// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MaLoskins/agentterm/internal/engine"
	"github.com/MaLoskins/agentterm/internal/notify"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	execTimeout    time.Duration
	execBackground bool
	execStream     bool
	execWorkdir    string
	execInputs     []string

	execCmd = &cobra.Command{
		Use:   "exec [flags] -- <command...>",
		Short: "Execute a command in the sandbox",
		Long: `Execute one command in the configured sandbox and print its output.

The command is classified first: directory changes move the tracked
working directory without spawning a process, and package installs are
deduplicated against the session ledger. Everything else runs under the
process supervisor with timeout enforcement.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExec,
	}
)

func init() {
	execCmd.Flags().DurationVarP(&execTimeout, "timeout", "t", 0, "wall-clock budget for the command (default from config)")
	execCmd.Flags().BoolVarP(&execBackground, "background", "b", false, "run in the background and report completion asynchronously")
	execCmd.Flags().BoolVar(&execStream, "stream", false, "print partial output while the command runs")
	execCmd.Flags().StringVarP(&execWorkdir, "workdir", "w", "", "run in this directory without moving the tracked one")
	execCmd.Flags().StringArrayVar(&execInputs, "input", nil, "scripted stdin line for interactive commands (repeatable)")
}

// eventRenderer turns engine notifications into terminal output: streamed
// chunks go to stdout, background terminal events to the logger.
type eventRenderer struct {
	logger  *log.Logger
	printed atomic.Int64
	bgOnce  sync.Once
	bgDone  chan struct{}
}

func newEventRenderer(logger *log.Logger) *eventRenderer {
	return &eventRenderer{logger: logger, bgDone: make(chan struct{})}
}

func (r *eventRenderer) sink(e notify.Event) {
	switch e.Type {
	case notify.EventStreaming:
		if out, ok := e.Payload["output"].(string); ok {
			r.printed.Add(int64(len(out)))
			fmt.Print(out)
		}
	case notify.EventBackgroundComplete:
		r.logger.Info("background process finished",
			"process_id", e.Payload["process_id"], "duration", e.Payload["duration"])
		r.finishBackground()
	case notify.EventBackgroundTimeout:
		r.logger.Warn("background process timed out", "process_id", e.Payload["process_id"])
		r.finishBackground()
	case notify.EventBackgroundError:
		r.logger.Error("background process failed",
			"process_id", e.Payload["process_id"], "exit_code", e.Payload["exit_code"])
		r.finishBackground()
	case notify.EventStatus:
		r.logger.Debug("engine status", "payload", e.Payload)
	}
}

func (r *eventRenderer) finishBackground() {
	r.bgOnce.Do(func() { close(r.bgDone) })
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if execTimeout > 0 {
		cfg.CommandTimeout = execTimeout
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "agentterm"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	renderer := newEventRenderer(logger)

	eng, err := engine.New(cfg,
		engine.WithSink(renderer.sink),
		engine.WithLogger(slog.New(logger)),
	)
	if err != nil {
		return err
	}
	defer eng.Shutdown()

	if err := eng.Initialize(cmd.Context()); err != nil {
		return err
	}

	raw := strings.Join(args, " ")
	var opts []engine.ExecOption
	if execBackground {
		opts = append(opts, engine.InBackground())
	}
	if !execStream {
		opts = append(opts, engine.WithoutStreaming())
	}
	if execWorkdir != "" {
		opts = append(opts, engine.WithWorkdir(execWorkdir))
	}

	var res engine.Result
	if len(execInputs) > 0 {
		res = eng.ExecuteInteractive(cmd.Context(), raw, execInputs, opts...)
	} else {
		res = eng.Execute(cmd.Context(), raw, opts...)
	}

	// Streamed chunks were already printed as they arrived.
	if renderer.printed.Load() == 0 && res.Output != "" {
		fmt.Print(res.Output)
		if !strings.HasSuffix(res.Output, "\n") {
			fmt.Println()
		}
	}

	if execBackground && res.Success {
		// Stay alive until the monitor reports the terminal state; exiting
		// now would orphan the background process.
		<-renderer.bgDone
	}

	if !res.Success {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ command failed"))
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		return &ExitError{Code: 1}
	}
	if verbose {
		fmt.Fprintln(os.Stderr, SuccessStyle.Render("✓ success"))
	}
	return nil
}
