// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Virtual executes commands with the mvdan/sh interpreter, so no system
// shell is required. Because the interpreter runs in-process, Prepare
// re-executes the agentterm binary through the hidden `internal
// exec-virtual` subcommand; that gives the supervisor a real child process
// to stream from and signal.
type Virtual struct{}

// NewVirtual creates a virtual sandbox.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Name returns the sandbox name.
func (v *Virtual) Name() string { return "virtual" }

// Available always reports true; the interpreter is built in.
func (v *Virtual) Available() bool { return true }

// Prepare validates the command's syntax and wraps it in a self re-exec so
// the in-process interpreter becomes a supervisable subprocess.
func (v *Virtual) Prepare(command, workdir string) (Spec, error) {
	if _, err := syntax.NewParser().Parse(strings.NewReader(command), "command"); err != nil {
		return Spec{}, fmt.Errorf("command syntax error: %w", err)
	}
	self, err := os.Executable()
	if err != nil {
		return Spec{}, fmt.Errorf("failed to get executable path: %w", err)
	}
	return Spec{
		Path: self,
		Args: []string{"internal", "exec-virtual", "--workdir", workdir, "--command", command},
	}, nil
}

// RunCapture interprets the command in-process and returns its combined
// output. The returned error is an *interp.ExitStatus-wrapping error for
// nonzero exits, matching the exec.ExitError convention of the other
// sandboxes closely enough for callers that only check err != nil.
func (v *Virtual) RunCapture(ctx context.Context, command, workdir string) (string, error) {
	var buf bytes.Buffer
	code, err := Interpret(ctx, command, workdir, &buf)
	if err != nil {
		return buf.String(), err
	}
	if code != 0 {
		return buf.String(), interp.ExitStatus(code)
	}
	return buf.String(), nil
}

// DirExists checks the local filesystem; the virtual sandbox shares it.
func (v *Virtual) DirExists(_ context.Context, path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FileExists checks the local filesystem for a regular file.
func (v *Virtual) FileExists(_ context.Context, path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CopyIn copies a local file into the sandbox workspace.
func (v *Virtual) CopyIn(_ context.Context, localPath, sandboxPath string) error {
	return hostCopy(localPath, sandboxPath)
}

// CopyOut copies a workspace file to another local path.
func (v *Virtual) CopyOut(_ context.Context, sandboxPath, localPath string) error {
	return hostCopy(sandboxPath, localPath)
}

// Interpret runs a command with the embedded shell interpreter, writing
// combined output to w, and returns the exit code. Also used by the
// `internal exec-virtual` subcommand, which is why it is exported.
func Interpret(ctx context.Context, command, workdir string, w *bytes.Buffer) (int, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "command")
	if err != nil {
		return 1, fmt.Errorf("failed to parse command: %w", err)
	}

	runner, err := interp.New(
		interp.Dir(workdir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(nil, w, w),
	)
	if err != nil {
		return 1, fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return int(exitStatus), nil
		}
		return 1, err
	}
	return 0, nil
}

var _ Sandbox = (*Virtual)(nil)
var _ FileTransferer = (*Virtual)(nil)
