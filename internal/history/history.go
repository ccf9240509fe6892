// SPDX-License-Identifier: MPL-2.0

// Package history keeps the append-only command and output logs for an
// engine session. The two sequences are index-aligned: entry i of the output
// log corresponds to entry i of the command log. The engine never truncates
// them; callers wanting a bounded view read a suffix via the Tail accessors.
package history

import "sync"

// Log holds the parallel command/output sequences behind a mutex. Concurrent
// executions may interleave their entries; ordering is only guaranteed within
// a single execution (command first, then its output).
type Log struct {
	mu       sync.Mutex
	commands []string
	outputs  []string
}

// NewLog creates an empty history log.
func NewLog() *Log {
	return &Log{}
}

// AppendCommand records an issued command.
func (l *Log) AppendCommand(command string) {
	l.mu.Lock()
	l.commands = append(l.commands, command)
	l.mu.Unlock()
}

// AppendOutput records a produced output.
func (l *Log) AppendOutput(output string) {
	l.mu.Lock()
	l.outputs = append(l.outputs, output)
	l.mu.Unlock()
}

// Commands returns a copy of the command sequence, most-recent-last.
func (l *Log) Commands() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.commands...)
}

// Outputs returns a copy of the output sequence, most-recent-last.
func (l *Log) Outputs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.outputs...)
}

// TailCommands returns at most n of the most recent commands.
func (l *Log) TailCommands(n int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return tail(l.commands, n)
}

// TailOutputs returns at most n of the most recent outputs.
func (l *Log) TailOutputs(n int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return tail(l.outputs, n)
}

// Len returns the number of recorded commands.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.commands)
}

func tail(entries []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(entries) {
		n = len(entries)
	}
	return append([]string(nil), entries[len(entries)-n:]...)
}
