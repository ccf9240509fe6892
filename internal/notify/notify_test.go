// SPDX-License-Identifier: MPL-2.0

package notify

import "testing"

func TestEmitNilSink(t *testing.T) {
	t.Parallel()

	// Must not panic.
	Emit(nil, EventCommand, map[string]any{"command": "ls"})
}

func TestEmitDelivers(t *testing.T) {
	t.Parallel()

	var got Event
	sink := func(e Event) { got = e }

	Emit(sink, EventOutput, map[string]any{"output": "hi"})

	if got.Type != EventOutput {
		t.Errorf("Type = %q, want %q", got.Type, EventOutput)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp must be set")
	}
	if got.Payload["output"] != "hi" {
		t.Errorf("Payload = %v", got.Payload)
	}
}

func TestEmitSwallowsPanic(t *testing.T) {
	t.Parallel()

	sink := func(Event) { panic("listener bug") }

	// Must not propagate.
	Emit(sink, EventError, nil)
}
