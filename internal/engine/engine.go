// SPDX-License-Identifier: MPL-2.0

// Package engine is the execution façade: the single entry point that
// normalizes and classifies commands, short-circuits directory changes and
// redundant package installs, qualifies everything else with the tracked
// working directory, and delegates to the process supervisor. Every
// execution yields exactly one Result; expected failures (timeout, spawn
// failure, detected runtime error, missing cd target) are encoded in the
// Result, never raised.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MaLoskins/agentterm/internal/classifier"
	"github.com/MaLoskins/agentterm/internal/command"
	"github.com/MaLoskins/agentterm/internal/config"
	"github.com/MaLoskins/agentterm/internal/history"
	"github.com/MaLoskins/agentterm/internal/notify"
	"github.com/MaLoskins/agentterm/internal/pkgset"
	"github.com/MaLoskins/agentterm/internal/procreg"
	"github.com/MaLoskins/agentterm/internal/sandbox"
	"github.com/MaLoskins/agentterm/internal/supervisor"
	"github.com/MaLoskins/agentterm/internal/testutil"
	"github.com/MaLoskins/agentterm/internal/workdir"
)

const (
	stateRunning int32 = iota
	stateShutdown
)

type (
	// Result is the uniform outcome of one execution attempt. Success is
	// derived from the exit code AND the output classifier; a detected error
	// substring is authoritative even over exit code 0.
	Result struct {
		Success bool
		Output  string
	}

	// Engine coordinates all command executions for one session.
	Engine struct {
		cfg      *config.Config
		sb       sandbox.Sandbox
		dir      *workdir.Tracker
		packages *pkgset.Ledger
		registry *procreg.Registry
		hist     *history.Log
		sup      *supervisor.Supervisor
		sink     notify.Sink
		logger   *slog.Logger
		state    atomic.Int32
	}

	// Option configures an Engine at construction time.
	Option func(*settings)

	settings struct {
		sink    notify.Sink
		logger  *slog.Logger
		clock   testutil.Clock
		sandbox sandbox.Sandbox
	}

	// ExecOption adjusts a single Execute call.
	ExecOption func(*execConfig)

	execConfig struct {
		timeout    time.Duration
		background bool
		stream     bool
		workdir    string
	}
)

// WithSink sets the notification sink events are delivered to.
func WithSink(sink notify.Sink) Option {
	return func(s *settings) { s.sink = sink }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithClock injects a clock, used by tests to drive streaming intervals.
func WithClock(clock testutil.Clock) Option {
	return func(s *settings) { s.clock = clock }
}

// WithSandbox overrides the sandbox selected by the configuration.
func WithSandbox(sb sandbox.Sandbox) Option {
	return func(s *settings) { s.sandbox = sb }
}

// WithTimeout overrides the configured command timeout for one call.
func WithTimeout(d time.Duration) ExecOption {
	return func(c *execConfig) { c.timeout = d }
}

// InBackground detaches the execution; the call returns immediately with a
// process identifier and a monitor reports the terminal state later.
func InBackground() ExecOption {
	return func(c *execConfig) { c.background = true }
}

// WithoutStreaming suppresses partial-output events for one call.
func WithoutStreaming() ExecOption {
	return func(c *execConfig) { c.stream = false }
}

// WithWorkdir runs one command in the given directory without moving the
// tracked working directory.
func WithWorkdir(dir string) ExecOption {
	return func(c *execConfig) { c.workdir = dir }
}

// New creates an engine from the configuration. The sandbox, sink, logger,
// and clock can be overridden through options.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := settings{clock: testutil.RealClock{}}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	sb := s.sandbox
	if sb == nil {
		var err error
		if sb, err = sandbox.New(cfg); err != nil {
			return nil, err
		}
	}

	dir, err := workdir.New(cfg.EffectiveWorkspace())
	if err != nil {
		return nil, err
	}

	registry := procreg.NewRegistry()
	return &Engine{
		cfg:      cfg,
		sb:       sb,
		dir:      dir,
		packages: pkgset.NewLedger(),
		registry: registry,
		hist:     history.NewLog(),
		sup:      supervisor.New(registry, s.clock, cfg.StreamInterval, cfg.KillGrace, s.sink, s.logger),
		sink:     s.sink,
		logger:   s.logger,
	}, nil
}

// Execute runs one command and returns its result. Directory changes and
// package installs are special-cased; everything else is handed to the
// supervisor qualified with the current working directory.
func (e *Engine) Execute(ctx context.Context, raw string, opts ...ExecOption) Result {
	if e.state.Load() == stateShutdown {
		return Result{Success: false, Output: "Engine is shut down"}
	}

	ec := execConfig{timeout: e.cfg.CommandTimeout, stream: true}
	for _, opt := range opts {
		opt(&ec)
	}

	cmd := command.Classify(raw)
	if cmd.Raw == "" {
		return Result{Success: false, Output: "Empty command"}
	}

	e.hist.AppendCommand(cmd.Raw)
	notify.Emit(e.sink, notify.EventCommand, map[string]any{"command": cmd.Raw})
	e.logger.Debug("executing command", "command", cmd.Raw, "background", ec.background)

	var res Result
	switch {
	case cmd.Kind == command.KindChangeDir:
		res = e.changeDir(ctx, cmd)
	case cmd.Kind == command.KindPackageInstall && !cmd.Passthrough:
		res = e.runInstall(ctx, cmd, ec)
	default:
		res = e.run(ctx, cmd.Raw, ec)
	}

	e.hist.AppendOutput(res.Output)
	if res.Success {
		notify.Emit(e.sink, notify.EventOutput, map[string]any{
			"command": cmd.Raw,
			"output":  res.Output,
			"success": true,
		})
	} else {
		notify.Emit(e.sink, notify.EventError, map[string]any{
			"command": cmd.Raw,
			"output":  res.Output,
			"success": false,
		})
	}
	return res
}

// changeDir handles a cd command without spawning a process. Targets that
// cannot be verified from bookkeeping alone are probed in the sandbox before
// the tracked directory moves.
func (e *Engine) changeDir(ctx context.Context, cmd command.Command) Result {
	candidate := e.dir.Resolve(cmd.Dir)
	if !workdir.SelfEvident(cmd.Dir) && !e.sb.DirExists(ctx, candidate) {
		return Result{Success: false, Output: "Directory not found: " + candidate}
	}
	if err := e.dir.Set(candidate); err != nil {
		return Result{Success: false, Output: err.Error()}
	}
	return Result{Success: true, Output: "Changed directory to " + candidate}
}

// run qualifies a plain command with the working directory and supervises it.
func (e *Engine) run(ctx context.Context, raw string, ec execConfig) Result {
	wd := ec.workdir
	if wd == "" {
		wd = e.dir.Current()
	}

	spec, err := e.sb.Prepare(raw, wd)
	if err != nil {
		return Result{Success: false, Output: err.Error()}
	}

	out, err := e.sup.Run(ctx, supervisor.Request{
		Spec:       spec,
		Command:    raw,
		Timeout:    ec.timeout,
		Background: ec.background,
		Stream:     ec.stream,
	})
	if err != nil {
		return Result{Success: false, Output: err.Error()}
	}

	switch {
	case ec.background:
		return Result{Success: true, Output: "Started background process " + out.ProcessID}
	case out.TimedOut:
		annotated := fmt.Sprintf("Command timed out after %d seconds\n%s",
			int(ec.timeout/time.Second), out.Output)
		return Result{Success: false, Output: annotated}
	case out.Canceled:
		return Result{Success: false, Output: "Command canceled\n" + out.Output}
	case classifier.IsError(out.Output):
		return Result{Success: false, Output: out.Output}
	case out.ExitCode != 0:
		return Result{Success: false, Output: out.Output}
	default:
		return Result{Success: true, Output: out.Output}
	}
}

// Initialize probes the sandbox and makes sure the workspace directory
// exists. Optional tool install commands are kicked off in the background so
// bootstrap never blocks the first command.
func (e *Engine) Initialize(ctx context.Context, tools ...string) error {
	if !e.sb.Available() {
		return fmt.Errorf("%s sandbox: %w", e.sb.Name(), sandbox.ErrSandboxNotAvailable)
	}

	ws := e.dir.Current()
	if !e.sb.DirExists(ctx, ws) {
		if out, err := e.sb.RunCapture(ctx, "mkdir -p "+sandbox.Quote(ws), "/"); err != nil {
			return fmt.Errorf("failed to create workspace %s: %w (%s)", ws, err, out)
		}
	}

	for _, tool := range tools {
		e.Execute(ctx, tool, InBackground())
	}

	e.logger.Info("engine initialized", "sandbox", e.sb.Name(), "workspace", ws)
	notify.Emit(e.sink, notify.EventStatus, map[string]any{
		"status":    "ready",
		"sandbox":   e.sb.Name(),
		"workspace": ws,
	})
	return nil
}

// Shutdown terminates every tracked live process and clears session state.
// Safe to call multiple times; only the first call does work.
func (e *Engine) Shutdown() {
	if !e.state.CompareAndSwap(stateRunning, stateShutdown) {
		return
	}

	notify.Emit(e.sink, notify.EventStatus, map[string]any{"status": "shutting_down"})

	records := e.registry.Drain()
	for _, rec := range records {
		if err := rec.Terminate(); err != nil {
			e.logger.Warn("terminate on shutdown failed", "process_id", rec.ID, "error", err)
		}
	}
	if len(records) > 0 {
		time.Sleep(e.cfg.KillGrace)
		for _, rec := range records {
			if err := rec.Kill(); err != nil {
				e.logger.Warn("kill on shutdown failed", "process_id", rec.ID, "error", err)
			}
		}
	}

	e.packages.Reset()
	e.logger.Info("engine shut down", "terminated", len(records))
}

// CommandHistory returns every issued command, most-recent-last.
func (e *Engine) CommandHistory() []string { return e.hist.Commands() }

// OutputHistory returns every produced output, index-aligned with
// CommandHistory.
func (e *Engine) OutputHistory() []string { return e.hist.Outputs() }

// RunningProcesses returns descriptive views of all live executions, keyed
// by process identifier. No live handles are exposed.
func (e *Engine) RunningProcesses() map[string]procreg.Info { return e.registry.Snapshot() }

// Workdir returns the tracked current working directory.
func (e *Engine) Workdir() string { return e.dir.Current() }

// InstalledPackages returns the sorted packages recorded for a manager.
func (e *Engine) InstalledPackages(m pkgset.Manager) []string { return e.packages.Installed(m) }
