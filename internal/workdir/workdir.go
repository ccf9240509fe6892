// SPDX-License-Identifier: MPL-2.0

// Package workdir tracks the logical current directory used to qualify
// command executions. The tracked value is always an absolute, cleaned path
// and is never empty.
package workdir

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

// ErrNotAbsolute is the sentinel error wrapped by NotAbsoluteError.
var ErrNotAbsolute = errors.New("working directory must be absolute")

type (
	// Tracker holds the current working directory behind a mutex so that
	// concurrent executions observe a consistent value. Every command re-reads
	// the current directory at invocation time; no execution may assume
	// exclusive ownership across multiple commands.
	Tracker struct {
		mu  sync.RWMutex
		dir string
	}

	// NotAbsoluteError is returned when a directory value is empty or relative.
	NotAbsoluteError struct {
		Dir string
	}
)

// Error implements the error interface.
func (e *NotAbsoluteError) Error() string {
	return fmt.Sprintf("working directory %q is not an absolute path", e.Dir)
}

// Unwrap returns ErrNotAbsolute so callers can use errors.Is.
func (e *NotAbsoluteError) Unwrap() error { return ErrNotAbsolute }

// New creates a Tracker rooted at the given absolute directory.
func New(initial string) (*Tracker, error) {
	if !filepath.IsAbs(initial) {
		return nil, &NotAbsoluteError{Dir: initial}
	}
	return &Tracker{dir: filepath.Clean(initial)}, nil
}

// Current returns the tracked working directory.
func (t *Tracker) Current() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dir
}

// Set replaces the tracked directory. The value must be absolute.
func (t *Tracker) Set(dir string) error {
	if !filepath.IsAbs(dir) {
		return &NotAbsoluteError{Dir: dir}
	}
	t.mu.Lock()
	t.dir = filepath.Clean(dir)
	t.mu.Unlock()
	return nil
}

// Resolve maps a cd target onto an absolute candidate directory without
// committing it. ".." pops one path element, absolute targets stand alone,
// and relative targets are joined onto the current directory.
func (t *Tracker) Resolve(target string) string {
	current := t.Current()
	switch {
	case target == "" || target == ".":
		return current
	case target == "..":
		return parentOf(current)
	case filepath.IsAbs(target):
		return filepath.Clean(target)
	default:
		return filepath.Join(current, target)
	}
}

// SelfEvident reports whether a cd target can be committed without an
// existence probe: popping to the parent or staying put always lands on a
// directory that was already valid when it was entered.
func SelfEvident(target string) bool {
	return target == ".." || target == "" || target == "."
}

// parentOf returns the parent directory, never ascending past the root.
func parentOf(dir string) string {
	parent := filepath.Dir(dir)
	if parent == "" {
		return string(filepath.Separator)
	}
	return parent
}
