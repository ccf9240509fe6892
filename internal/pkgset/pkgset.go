// SPDX-License-Identifier: MPL-2.0

// Package pkgset tracks which packages have already been installed per
// package manager, so redundant install commands can be skipped. The sets
// only grow during the engine's lifetime; they shrink solely on explicit
// reset.
package pkgset

import (
	"slices"
	"sync"
)

// Manager identifies a supported package manager.
type Manager string

const (
	// Pip covers pip and pip3 installs.
	Pip Manager = "pip"
	// NPM covers npm install and yarn add.
	NPM Manager = "npm"
)

// Ledger is the mutable record of installed package names. All mutation is
// serialized behind a single mutex because installs can commit from
// concurrently running executions.
type Ledger struct {
	mu        sync.Mutex
	installed map[Manager]map[string]struct{}
}

// NewLedger creates an empty ledger for both managers.
func NewLedger() *Ledger {
	return &Ledger{
		installed: map[Manager]map[string]struct{}{
			Pip: {},
			NPM: {},
		},
	}
}

// FilterNew returns the subset of requested packages not yet recorded as
// installed for the manager, preserving request order.
func (l *Ledger) FilterNew(requested []string, m Manager) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	set := l.installed[m]
	var novel []string
	for _, pkg := range requested {
		if _, ok := set[pkg]; !ok {
			novel = append(novel, pkg)
		}
	}
	return novel
}

// Commit records packages as installed. Callers must only commit after the
// install command actually succeeded, so the ledger never contains a package
// whose installation failed.
func (l *Ledger) Commit(installed []string, m Manager) {
	l.mu.Lock()
	defer l.mu.Unlock()

	set := l.installed[m]
	if set == nil {
		set = map[string]struct{}{}
		l.installed[m] = set
	}
	for _, pkg := range installed {
		set[pkg] = struct{}{}
	}
}

// Installed returns the sorted package names recorded for the manager.
func (l *Ledger) Installed(m Manager) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	set := l.installed[m]
	out := make([]string, 0, len(set))
	for pkg := range set {
		out = append(out, pkg)
	}
	slices.Sort(out)
	return out
}

// Reset clears both sets. Used on engine shutdown/reset only.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.installed = map[Manager]map[string]struct{}{
		Pip: {},
		NPM: {},
	}
}
