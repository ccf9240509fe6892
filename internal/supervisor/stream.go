// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"sync"
	"time"

	"github.com/MaLoskins/agentterm/internal/notify"
	"github.com/MaLoskins/agentterm/internal/testutil"
)

// streamer batches captured output chunks and emits them as streaming
// events, at most once per interval. The gate keeps chatty commands from
// flooding listeners while still delivering output in near real time.
type streamer struct {
	clock     testutil.Clock
	interval  time.Duration
	sink      notify.Sink
	processID string
	command   string

	mu      sync.Mutex
	last    time.Time
	pending []byte
}

func newStreamer(clock testutil.Clock, interval time.Duration, sink notify.Sink, processID, command string) *streamer {
	return &streamer{
		clock:     clock,
		interval:  interval,
		sink:      sink,
		processID: processID,
		command:   command,
		last:      clock.Now(),
	}
}

// offer buffers a chunk and flushes the accumulated partial output once the
// interval has elapsed since the last emission.
func (s *streamer) offer(chunk []byte) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.pending = append(s.pending, chunk...)
	if s.clock.Since(s.last) < s.interval {
		s.mu.Unlock()
		return
	}
	partial := string(s.pending)
	s.pending = nil
	s.last = s.clock.Now()
	s.mu.Unlock()

	s.emit(partial)
}

// flush emits whatever is still buffered, regardless of the interval. Called
// once when the command finishes so listeners see the tail before the final
// output event.
func (s *streamer) flush() {
	if s == nil {
		return
	}
	s.mu.Lock()
	partial := string(s.pending)
	s.pending = nil
	s.mu.Unlock()

	if partial != "" {
		s.emit(partial)
	}
}

func (s *streamer) emit(partial string) {
	notify.Emit(s.sink, notify.EventStreaming, map[string]any{
		"process_id": s.processID,
		"command":    s.command,
		"output":     partial,
	})
}
