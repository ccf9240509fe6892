// SPDX-License-Identifier: MPL-2.0

// Package testutil holds small helpers shared by tests, plus the Clock seam
// that lets streaming-interval logic run deterministically under test.
package testutil

import (
	"sync"
	"time"
)

type (
	// Clock abstracts wall-clock reads. Production code uses RealClock;
	// tests drive a FakeClock by hand.
	Clock interface {
		// Now returns the current time.
		Now() time.Time
		// Since returns the time elapsed since t.
		Since(t time.Time) time.Duration
	}

	// RealClock reads the system clock.
	RealClock struct{}

	// FakeClock is a manually advanced clock for deterministic tests.
	FakeClock struct {
		mu      sync.Mutex
		current time.Time
	}
)

// Now returns the current system time.
func (RealClock) Now() time.Time { return time.Now() }

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// NewFakeClock creates a FakeClock. A zero initial time defaults to a fixed
// reference instant so tests are reproducible.
func NewFakeClock(initial time.Time) *FakeClock {
	if initial.IsZero() {
		initial = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	return &FakeClock{current: initial}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Since returns the fake time elapsed since t.
func (c *FakeClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Sub(t)
}

// Advance moves the fake time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}
