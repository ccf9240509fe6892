// SPDX-License-Identifier: MPL-2.0

// Package notify defines the best-effort event channel between the engine
// and an external listener (WebSocket broadcaster, logger, test recorder).
// Delivery is fire-and-forget: a slow, failing, or panicking sink must never
// affect the outcome of a command execution.
package notify

import (
	"log/slog"
	"time"
)

// EventType names the phases of a command's lifecycle as seen by listeners.
type EventType string

const (
	// EventCommand is emitted when a command is issued.
	EventCommand EventType = "terminal_command"
	// EventStreaming carries a partial-output chunk from a running command.
	EventStreaming EventType = "terminal_streaming"
	// EventOutput carries the final output of a completed command.
	EventOutput EventType = "terminal_output"
	// EventError reports a timeout, spawn failure, or internal fault.
	EventError EventType = "terminal_error"
	// EventStatus reports engine lifecycle messages (bootstrap, shutdown).
	EventStatus EventType = "terminal_status"
	// EventBackgroundComplete reports a background command finishing.
	EventBackgroundComplete EventType = "terminal_background_complete"
	// EventBackgroundTimeout reports a background command exceeding its timeout.
	EventBackgroundTimeout EventType = "terminal_background_timeout"
	// EventBackgroundError reports a background monitor failure.
	EventBackgroundError EventType = "terminal_background_error"
)

type (
	// Event is one notification delivered to the sink.
	Event struct {
		Type      EventType
		Timestamp time.Time
		Payload   map[string]any
	}

	// Sink receives events. Implementations must be safe for concurrent use;
	// they are invoked from foreground executions and background monitors.
	Sink func(Event)
)

// Emit delivers an event to the sink, swallowing panics. A nil sink is a
// no-op, so the engine can run headless.
func Emit(sink Sink, typ EventType, payload map[string]any) {
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("notification sink panicked", "type", typ, "panic", r)
		}
	}()
	sink(Event{Type: typ, Timestamp: time.Now(), Payload: payload})
}
