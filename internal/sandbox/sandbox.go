// SPDX-License-Identifier: MPL-2.0

// Package sandbox abstracts the isolated environment commands execute in.
// Three implementations exist: docker (commands wrapped in `docker exec`
// against a named container), host (the system shell), and virtual (an
// in-process shell interpreter re-executed through the agentterm binary so
// it can be supervised like any other subprocess).
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MaLoskins/agentterm/internal/config"

	"mvdan.cc/sh/v3/syntax"
)

// ErrSandboxNotAvailable is returned when the selected sandbox cannot run on
// this system (e.g., no docker binary on PATH).
var ErrSandboxNotAvailable = errors.New("sandbox not available")

type (
	// Spec is a fully prepared command ready to be spawned: the engine's
	// working directory and environment qualification have already been
	// applied. Dir is only set for sandboxes that chdir on the host side;
	// the docker sandbox encodes the working directory into Args instead.
	Spec struct {
		Path string
		Args []string
		Dir  string
	}

	// Sandbox wraps raw command text into spawnable specs and answers
	// lightweight probes about the environment.
	Sandbox interface {
		// Name returns the sandbox name.
		Name() string
		// Available reports whether this sandbox can run on the current system.
		Available() bool
		// Prepare wraps a normalized command into a spawnable Spec qualified
		// with the working directory.
		Prepare(command, workdir string) (Spec, error)
		// RunCapture runs a short housekeeping command to completion and
		// returns its combined output. Not used for supervised executions.
		RunCapture(ctx context.Context, command, workdir string) (string, error)
		// DirExists reports whether a directory exists inside the sandbox.
		DirExists(ctx context.Context, path string) bool
		// FileExists reports whether a regular file exists inside the sandbox.
		FileExists(ctx context.Context, path string) bool
	}

	// FileTransferer is implemented by sandboxes that can move files between
	// the local filesystem and the sandbox filesystem.
	FileTransferer interface {
		// CopyIn copies a local file into the sandbox.
		CopyIn(ctx context.Context, localPath, sandboxPath string) error
		// CopyOut copies a sandbox file to the local filesystem.
		CopyOut(ctx context.Context, sandboxPath, localPath string) error
	}
)

// New builds the sandbox selected by the configuration.
func New(cfg *config.Config) (Sandbox, error) {
	switch cfg.Sandbox {
	case "docker":
		return NewDocker(cfg.Container), nil
	case "host":
		return NewHost(cfg.Shell), nil
	case "virtual":
		return NewVirtual(), nil
	default:
		return nil, fmt.Errorf("unknown sandbox %q", cfg.Sandbox)
	}
}

// Quote renders s as a single shell word, so paths with spaces or quotes
// survive the trip through `bash -c`.
func Quote(s string) string {
	quoted, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		// Control characters the shell cannot represent; strip to be safe.
		return "'" + strings.Map(func(r rune) rune {
			if r < 0x20 || r == '\'' {
				return -1
			}
			return r
		}, s) + "'"
	}
	return quoted
}

// existsProbe builds the `[ -d path ] && echo exists` style probe used by
// docker-backed existence checks.
func existsProbe(flag, path string) string {
	return fmt.Sprintf("[ %s %s ] && echo exists", flag, Quote(path))
}
