// SPDX-License-Identifier: MPL-2.0

// Package supervisor spawns prepared commands and watches them to
// completion: it pumps output pipes in fixed-size chunks, streams partial
// output through the notification sink, enforces wall-clock timeouts with a
// graceful-then-forceful kill, and runs background executions under
// detached monitor goroutines.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/MaLoskins/agentterm/internal/notify"
	"github.com/MaLoskins/agentterm/internal/procreg"
	"github.com/MaLoskins/agentterm/internal/sandbox"
	"github.com/MaLoskins/agentterm/internal/testutil"

	"golang.org/x/sync/errgroup"
)

// chunkSize is how much pipe output is read per syscall. Small enough to
// keep streaming latency low for chatty commands.
const chunkSize = 1024

type (
	// Request describes one execution to supervise.
	Request struct {
		// Spec is the prepared, sandbox-qualified command.
		Spec sandbox.Spec
		// Command is the original command text, used for registry records
		// and notifications.
		Command string
		// Timeout bounds the execution's wall-clock time.
		Timeout time.Duration
		// Background detaches the wait into a monitor goroutine.
		Background bool
		// Stream enables partial-output events while the command runs.
		Stream bool
	}

	// Outcome is the result of a supervised execution. For background
	// requests only ProcessID is populated; everything else arrives later
	// via notifications.
	Outcome struct {
		// ProcessID is the registry ID assigned to this execution.
		ProcessID string
		// Output is the combined stdout and stderr.
		Output string
		// ExitCode is the process exit code; -1 if the process was killed.
		ExitCode int
		// TimedOut reports whether the timeout fired.
		TimedOut bool
		// Canceled reports the caller's context expiring before the command
		// finished. The process is terminated the same way as on timeout.
		Canceled bool
		// Duration is the observed wall-clock run time.
		Duration time.Duration
	}

	// Supervisor executes prepared commands against a shared registry.
	Supervisor struct {
		registry  *procreg.Registry
		clock     testutil.Clock
		interval  time.Duration
		killGrace time.Duration
		sink      notify.Sink
		logger    *slog.Logger
	}

	// SpawnError wraps a failure to start the process at all, as opposed to
	// the process running and exiting nonzero.
	SpawnError struct {
		Command string
		Err     error
	}
)

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *SpawnError) Unwrap() error { return e.Err }

// New creates a supervisor. A nil logger falls back to slog's default.
func New(registry *procreg.Registry, clock testutil.Clock, interval, killGrace time.Duration, sink notify.Sink, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		registry:  registry,
		clock:     clock,
		interval:  interval,
		killGrace: killGrace,
		sink:      sink,
		logger:    logger,
	}
}

// Run spawns the prepared command and supervises it. Foreground requests
// block until the command finishes, times out, or fails to spawn.
// Background requests return as soon as the process is started; a monitor
// goroutine delivers the terminal notification later. The returned error is
// non-nil only when the process could not be started.
func (s *Supervisor) Run(ctx context.Context, req Request) (Outcome, error) {
	rec := procreg.NewRecord(req.Command, req.Background, req.Timeout)

	//nolint:gosec // Spec.Path/Args come from the sandbox layer, not raw user input
	cmd := exec.Command(req.Spec.Path, req.Spec.Args...)
	cmd.Dir = req.Spec.Dir
	setProcAttrs(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Outcome{}, &SpawnError{Command: req.Command, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Outcome{}, &SpawnError{Command: req.Command, Err: err}
	}

	// Register before any output can arrive so concurrent registry queries
	// observe the execution from its first byte.
	s.registry.Register(rec)

	if err := cmd.Start(); err != nil {
		s.registry.Unregister(rec.ID)
		return Outcome{}, &SpawnError{Command: req.Command, Err: err}
	}
	rec.SetProcess(cmd.Process)

	var st *streamer
	if req.Stream {
		st = newStreamer(s.clock, s.interval, s.sink, rec.ID, req.Command)
	}

	done := make(chan error, 1)
	go func() {
		g := &errgroup.Group{}
		g.Go(func() error { return pump(stdout, rec, st) })
		g.Go(func() error { return pump(stderr, rec, st) })
		// Pipes must be fully drained before Wait per os/exec contract.
		pumpErr := g.Wait()
		waitErr := cmd.Wait()
		if waitErr == nil {
			waitErr = pumpErr
		}
		done <- waitErr
	}()

	if req.Background {
		// Background monitors outlive the caller's context deliberately.
		go s.monitor(rec, st, done)
		return Outcome{ProcessID: rec.ID}, nil
	}

	defer s.registry.Unregister(rec.ID)
	outcome := s.await(ctx, rec, done, req.Timeout)
	st.flush()
	return outcome, nil
}

// await blocks on the execution finishing, the timeout elapsing, or the
// context expiring. On timeout or cancellation the process first gets
// SIGTERM; if it does not exit within the grace window it is killed outright.
func (s *Supervisor) await(ctx context.Context, rec *procreg.Record, done <-chan error, timeout time.Duration) Outcome {
	start := s.clock.Now()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	canceled := false
	select {
	case err := <-done:
		return Outcome{
			ProcessID: rec.ID,
			Output:    rec.Output(),
			ExitCode:  exitCode(err),
			Duration:  s.clock.Since(start),
		}
	case <-ctx.Done():
		canceled = true
	case <-timer.C:
	}

	if err := rec.Terminate(); err != nil {
		s.logger.Warn("terminate after timeout failed", "process_id", rec.ID, "error", err)
	}

	grace := time.NewTimer(s.killGrace)
	defer grace.Stop()
	select {
	case <-done:
	case <-grace.C:
		if err := rec.Kill(); err != nil {
			s.logger.Warn("kill after timeout failed", "process_id", rec.ID, "error", err)
		}
		// Orphaned grandchildren can hold the pipes open past the kill, so
		// the final wait is bounded too; the pump goroutine drains whatever
		// arrives later into the record.
		final := time.NewTimer(s.killGrace)
		defer final.Stop()
		select {
		case <-done:
		case <-final.C:
			s.logger.Warn("process did not release pipes after kill", "process_id", rec.ID)
		}
	}

	return Outcome{
		ProcessID: rec.ID,
		Output:    rec.Output(),
		ExitCode:  -1,
		TimedOut:  !canceled,
		Canceled:  canceled,
		Duration:  s.clock.Since(start),
	}
}

// monitor watches a background execution and reports its terminal state
// through the notification sink.
func (s *Supervisor) monitor(rec *procreg.Record, st *streamer, done <-chan error) {
	defer s.registry.Unregister(rec.ID)

	outcome := s.await(context.Background(), rec, done, rec.Timeout)
	st.flush()

	payload := map[string]any{
		"process_id": rec.ID,
		"command":    rec.Command,
		"output":     outcome.Output,
		"exit_code":  outcome.ExitCode,
		"duration":   outcome.Duration.Seconds(),
	}

	switch {
	case outcome.TimedOut:
		s.logger.Warn("background command timed out", "process_id", rec.ID, "command", rec.Command)
		notify.Emit(s.sink, notify.EventBackgroundTimeout, payload)
	case outcome.ExitCode != 0:
		s.logger.Warn("background command failed", "process_id", rec.ID, "exit_code", outcome.ExitCode)
		notify.Emit(s.sink, notify.EventBackgroundError, payload)
	default:
		s.logger.Debug("background command finished", "process_id", rec.ID)
		notify.Emit(s.sink, notify.EventBackgroundComplete, payload)
	}
}

// pump copies a pipe into the record in fixed-size chunks, offering each
// chunk to the streamer on the way.
func pump(r io.Reader, rec *procreg.Record, st *streamer) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			rec.AppendOutput(chunk)
			st.offer(chunk)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// exitCode maps a Wait error to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
