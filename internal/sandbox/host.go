// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Host executes commands through the system shell directly, with the
// working directory applied via the process attributes. Used when no
// container isolation is wanted (development, CI).
type Host struct {
	// Shell overrides the resolved shell binary.
	Shell string
}

// NewHost creates a host sandbox. An empty shell means auto-detection.
func NewHost(shell string) *Host {
	return &Host{Shell: shell}
}

// Name returns the sandbox name.
func (h *Host) Name() string { return "host" }

// Available reports whether a usable shell was found.
func (h *Host) Available() bool {
	_, err := h.resolveShell()
	return err == nil
}

// Prepare wraps the command as `<shell> -c <command>` rooted at workdir.
func (h *Host) Prepare(command, workdir string) (Spec, error) {
	shell, err := h.resolveShell()
	if err != nil {
		return Spec{}, err
	}
	return Spec{
		Path: shell,
		Args: append(shellArgs(shell), command),
		Dir:  workdir,
	}, nil
}

// RunCapture executes a short command and returns its combined output.
func (h *Host) RunCapture(ctx context.Context, command, workdir string) (string, error) {
	spec, err := h.Prepare(command, workdir)
	if err != nil {
		return "", err
	}
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// DirExists checks the local filesystem; no process spawn needed.
func (h *Host) DirExists(_ context.Context, path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FileExists checks the local filesystem for a regular file.
func (h *Host) FileExists(_ context.Context, path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CopyIn copies a local file into the sandbox workspace.
func (h *Host) CopyIn(_ context.Context, localPath, sandboxPath string) error {
	return hostCopy(localPath, sandboxPath)
}

// CopyOut copies a workspace file to another local path.
func (h *Host) CopyOut(_ context.Context, sandboxPath, localPath string) error {
	return hostCopy(sandboxPath, localPath)
}

// resolveShell picks the shell binary: explicit override, then $SHELL, then
// common fallbacks per platform.
func (h *Host) resolveShell() (string, error) {
	if h.Shell != "" {
		return h.Shell, nil
	}
	if runtime.GOOS == "windows" {
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := exec.LookPath("powershell"); err == nil {
			return ps, nil
		}
		return exec.LookPath("cmd")
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash, nil
	}
	if sh, err := exec.LookPath("sh"); err == nil {
		return sh, nil
	}
	return "", fmt.Errorf("host sandbox: %w: no shell found", ErrSandboxNotAvailable)
}

// shellArgs returns the flag that makes the shell run a command string.
func shellArgs(shell string) []string {
	base := strings.TrimSuffix(filepath.Base(shell), ".exe")
	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}

var _ Sandbox = (*Host)(nil)
var _ FileTransferer = (*Host)(nil)
