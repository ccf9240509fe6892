// SPDX-License-Identifier: MPL-2.0

// Package procreg tracks in-flight command executions. Registration happens
// on the spawning path and unregistration from separately scheduled monitor
// goroutines, so all mutation is serialized behind a single mutex. Snapshots
// handed to external callers never contain the live OS process handle.
package procreg

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

type (
	// Record represents one in-flight (or just-finished) execution. It is
	// owned by the Registry; the live process handle stays unexported so
	// only the supervisor that created the record can signal it.
	Record struct {
		// ID uniquely identifies the execution.
		ID string
		// Command is the command text being executed.
		Command string
		// StartedAt is when the process was spawned.
		StartedAt time.Time
		// Background marks executions the caller did not wait for.
		Background bool
		// Timeout is the configured wall-clock budget.
		Timeout time.Duration

		mu     sync.Mutex
		output []byte
		proc   *os.Process
	}

	// Info is the externally visible, handle-free view of a Record.
	Info struct {
		ID         string
		Command    string
		StartedAt  time.Time
		Background bool
		Timeout    time.Duration
		Output     string
	}

	// Registry is the map of live executions keyed by process ID.
	Registry struct {
		mu      sync.Mutex
		records map[string]*Record
	}
)

// NewRecord creates a record for a command about to be spawned.
func NewRecord(command string, background bool, timeout time.Duration) *Record {
	return &Record{
		ID:         "process-" + uuid.NewString(),
		Command:    command,
		StartedAt:  time.Now(),
		Background: background,
		Timeout:    timeout,
	}
}

// SetProcess attaches the live OS process once spawned.
func (r *Record) SetProcess(p *os.Process) {
	r.mu.Lock()
	r.proc = p
	r.mu.Unlock()
}

// AppendOutput accumulates captured output so background monitors and
// synchronous callers observe consistent state.
func (r *Record) AppendOutput(chunk []byte) {
	r.mu.Lock()
	r.output = append(r.output, chunk...)
	r.mu.Unlock()
}

// Output returns the output accumulated so far.
func (r *Record) Output() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.output)
}

// Terminate asks the process to exit gracefully (SIGTERM on unix, where the
// whole process group is signaled so shell children go down too). Returns
// without error when no process is attached.
func (r *Record) Terminate() error {
	r.mu.Lock()
	proc := r.proc
	r.mu.Unlock()
	if proc == nil {
		return nil
	}
	return terminateProcess(proc)
}

// Kill force-terminates the process (and its group, on unix).
func (r *Record) Kill() error {
	r.mu.Lock()
	proc := r.proc
	r.mu.Unlock()
	if proc == nil {
		return nil
	}
	return killProcess(proc)
}

// Info returns the handle-free view of the record.
func (r *Record) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Info{
		ID:         r.ID,
		Command:    r.Command,
		StartedAt:  r.StartedAt,
		Background: r.Background,
		Timeout:    r.Timeout,
		Output:     string(r.output),
	}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// Register adds a record. It must be called before any output is read so
// concurrent queries observe the process immediately.
func (g *Registry) Register(r *Record) {
	g.mu.Lock()
	g.records[r.ID] = r
	g.mu.Unlock()
}

// Unregister removes a record by ID. Removing an absent ID is a no-op, so
// timeout and completion paths can both call it.
func (g *Registry) Unregister(id string) {
	g.mu.Lock()
	delete(g.records, id)
	g.mu.Unlock()
}

// Get returns the live record for an ID.
func (g *Registry) Get(id string) (*Record, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.records[id]
	return r, ok
}

// Snapshot returns descriptive views of every live record, keyed by ID.
func (g *Registry) Snapshot() map[string]Info {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]Info, len(g.records))
	for id, r := range g.records {
		out[id] = r.Info()
	}
	return out
}

// Drain removes and returns all live records. Used by shutdown to terminate
// everything exactly once.
func (g *Registry) Drain() []*Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Record, 0, len(g.records))
	for _, r := range g.records {
		out = append(out, r)
	}
	g.records = make(map[string]*Record)
	return out
}

// Len returns the number of live records.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}
