// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/MaLoskins/agentterm/internal/classifier"
	"github.com/MaLoskins/agentterm/internal/command"
	"github.com/MaLoskins/agentterm/internal/notify"
	"github.com/MaLoskins/agentterm/internal/procreg"

	"github.com/creack/pty"
)

// ExecuteInteractive runs a command that expects input on stdin, feeding it
// the scripted lines through a pseudo-terminal. Prompts and echoed input end
// up interleaved in the captured output, the same as a human session would
// produce.
func (e *Engine) ExecuteInteractive(ctx context.Context, raw string, inputs []string, opts ...ExecOption) Result {
	if e.state.Load() == stateShutdown {
		return Result{Success: false, Output: "Engine is shut down"}
	}

	ec := execConfig{timeout: e.cfg.CommandTimeout, stream: true}
	for _, opt := range opts {
		opt(&ec)
	}

	normalized := command.Normalize(raw)
	if normalized == "" {
		return Result{Success: false, Output: "Empty command"}
	}

	e.hist.AppendCommand(normalized)
	notify.Emit(e.sink, notify.EventCommand, map[string]any{
		"command":     normalized,
		"interactive": true,
	})

	res := e.runInteractive(ctx, normalized, inputs, ec)

	e.hist.AppendOutput(res.Output)
	typ := notify.EventOutput
	if !res.Success {
		typ = notify.EventError
	}
	notify.Emit(e.sink, typ, map[string]any{
		"command": normalized,
		"output":  res.Output,
		"success": res.Success,
	})
	return res
}

func (e *Engine) runInteractive(ctx context.Context, normalized string, inputs []string, ec execConfig) Result {
	wd := ec.workdir
	if wd == "" {
		wd = e.dir.Current()
	}

	spec, err := e.sb.Prepare(normalized, wd)
	if err != nil {
		return Result{Success: false, Output: err.Error()}
	}

	//nolint:gosec // Spec.Path/Args come from the sandbox layer, not raw user input
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir

	rec := procreg.NewRecord(normalized, false, ec.timeout)
	e.registry.Register(rec)
	defer e.registry.Unregister(rec.ID)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return Result{Success: false, Output: fmt.Sprintf("failed to start %q: %v", normalized, err)}
	}
	defer ptmx.Close()
	rec.SetProcess(cmd.Process)

	go func() {
		for _, line := range inputs {
			if _, err := io.WriteString(ptmx, line+"\n"); err != nil {
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 1024)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				rec.AppendOutput(chunk)
			}
			if err != nil {
				// EIO here just means the child closed its side.
				return
			}
		}
	}()

	timer := time.NewTimer(ec.timeout)
	defer timer.Stop()

	timedOut := false
	select {
	case <-done:
	case <-ctx.Done():
	case <-timer.C:
		timedOut = true
	}

	if timedOut || ctx.Err() != nil {
		if err := rec.Terminate(); err != nil {
			e.logger.Warn("terminate interactive command failed", "process_id", rec.ID, "error", err)
		}
		select {
		case <-done:
		case <-time.After(e.cfg.KillGrace):
			if err := rec.Kill(); err != nil {
				e.logger.Warn("kill interactive command failed", "process_id", rec.ID, "error", err)
			}
			select {
			case <-done:
			case <-time.After(e.cfg.KillGrace):
			}
		}
	}

	waitErr := cmd.Wait()
	output := rec.Output()

	switch {
	case timedOut:
		annotated := fmt.Sprintf("Command timed out after %d seconds\n%s",
			int(ec.timeout/time.Second), output)
		return Result{Success: false, Output: annotated}
	case ctx.Err() != nil:
		return Result{Success: false, Output: "Command canceled\n" + output}
	case classifier.IsError(output):
		return Result{Success: false, Output: output}
	case waitErr != nil:
		return Result{Success: false, Output: output}
	default:
		return Result{Success: true, Output: output}
	}
}
