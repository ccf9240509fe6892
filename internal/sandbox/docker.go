// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Docker executes commands inside a long-lived container via the docker CLI.
// The engine never talks to the daemon API directly; wrapping the CLI keeps
// the behavior identical to what an operator would type by hand.
type Docker struct {
	// Container is the name of the target container.
	Container string
}

// NewDocker creates a docker sandbox for the named container.
func NewDocker(container string) *Docker {
	return &Docker{Container: container}
}

// Name returns the sandbox name.
func (d *Docker) Name() string { return "docker" }

// Available reports whether the docker CLI is on PATH.
func (d *Docker) Available() bool {
	_, err := exec.LookPath("docker")
	return err == nil
}

// Prepare wraps the command as `docker exec -w <workdir> <container> bash -c <command>`.
// The working directory travels in the exec arguments, not in Spec.Dir,
// because it names a path inside the container.
func (d *Docker) Prepare(command, workdir string) (Spec, error) {
	if d.Container == "" {
		return Spec{}, fmt.Errorf("docker sandbox: %w: no container configured", ErrSandboxNotAvailable)
	}
	return Spec{
		Path: "docker",
		Args: []string{"exec", "-w", workdir, d.Container, "bash", "-c", command},
	}, nil
}

// RunCapture executes a short command and returns its combined output.
func (d *Docker) RunCapture(ctx context.Context, command, workdir string) (string, error) {
	spec, err := d.Prepare(command, workdir)
	if err != nil {
		return "", err
	}
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// DirExists probes the container for a directory.
func (d *Docker) DirExists(ctx context.Context, path string) bool {
	out, _ := d.RunCapture(ctx, existsProbe("-d", path), "/")
	return strings.Contains(out, "exists")
}

// FileExists probes the container for a regular file.
func (d *Docker) FileExists(ctx context.Context, path string) bool {
	out, _ := d.RunCapture(ctx, existsProbe("-f", path), "/")
	return strings.Contains(out, "exists")
}

// CopyIn copies a local file into the container via `docker cp`.
func (d *Docker) CopyIn(ctx context.Context, localPath, sandboxPath string) error {
	return d.cp(ctx, localPath, d.Container+":"+sandboxPath)
}

// CopyOut copies a container file to the local filesystem via `docker cp`.
func (d *Docker) CopyOut(ctx context.Context, sandboxPath, localPath string) error {
	return d.cp(ctx, d.Container+":"+sandboxPath, localPath)
}

func (d *Docker) cp(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, "docker", "cp", src, dst)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker cp %s %s: %w", src, dst, err)
	}
	return nil
}

var _ Sandbox = (*Docker)(nil)
var _ FileTransferer = (*Docker)(nil)

// hostCopy copies a file on the local filesystem, preserving contents only.
// Shared by the host and virtual sandboxes' file transfer implementations.
func hostCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
