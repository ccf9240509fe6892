// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MaLoskins/agentterm/internal/sandbox"
)

// ErrNoFileTransfer is returned when the active sandbox cannot move files
// between the local filesystem and the sandbox filesystem.
var ErrNoFileTransfer = errors.New("sandbox does not support file transfer")

// CopyIn copies a local file into the sandbox.
func (e *Engine) CopyIn(ctx context.Context, localPath, sandboxPath string) error {
	ft, ok := e.sb.(sandbox.FileTransferer)
	if !ok {
		return fmt.Errorf("%s: %w", e.sb.Name(), ErrNoFileTransfer)
	}
	return ft.CopyIn(ctx, localPath, sandboxPath)
}

// CopyOut copies a sandbox file to the local filesystem.
func (e *Engine) CopyOut(ctx context.Context, sandboxPath, localPath string) error {
	ft, ok := e.sb.(sandbox.FileTransferer)
	if !ok {
		return fmt.Errorf("%s: %w", e.sb.Name(), ErrNoFileTransfer)
	}
	return ft.CopyOut(ctx, sandboxPath, localPath)
}

// ReadFile returns the contents of a file inside the sandbox.
func (e *Engine) ReadFile(ctx context.Context, path string) (string, error) {
	out, err := e.sb.RunCapture(ctx, "cat "+sandbox.Quote(path), e.dir.Current())
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w (%s)", path, err, strings.TrimSpace(out))
	}
	return out, nil
}

// WriteFile writes content to a file inside the sandbox, replacing it.
func (e *Engine) WriteFile(ctx context.Context, path, content string) error {
	cmd := fmt.Sprintf("printf %%s %s > %s", sandbox.Quote(content), sandbox.Quote(path))
	if out, err := e.sb.RunCapture(ctx, cmd, e.dir.Current()); err != nil {
		return fmt.Errorf("failed to write %s: %w (%s)", path, err, strings.TrimSpace(out))
	}
	return nil
}

// FileExists reports whether a regular file exists inside the sandbox.
func (e *Engine) FileExists(ctx context.Context, path string) bool {
	return e.sb.FileExists(ctx, path)
}

// DirExists reports whether a directory exists inside the sandbox.
func (e *Engine) DirExists(ctx context.Context, path string) bool {
	return e.sb.DirExists(ctx, path)
}

// ListDir returns the entries of a sandbox directory, hidden files included.
func (e *Engine) ListDir(ctx context.Context, path string) ([]string, error) {
	out, err := e.sb.RunCapture(ctx, "ls -1A "+sandbox.Quote(path), e.dir.Current())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w (%s)", path, err, strings.TrimSpace(out))
	}
	var entries []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, line)
		}
	}
	return entries, nil
}
