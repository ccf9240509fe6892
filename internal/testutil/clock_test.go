// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"testing"
	"time"
)

func TestFakeClockAdvance(t *testing.T) {
	t.Parallel()

	c := NewFakeClock(time.Time{})
	start := c.Now()

	c.Advance(3 * time.Second)

	if got := c.Since(start); got != 3*time.Second {
		t.Errorf("Since = %v, want 3s", got)
	}
	if !c.Now().Equal(start.Add(3 * time.Second)) {
		t.Errorf("Now = %v", c.Now())
	}
}

func TestRealClockMonotonicEnough(t *testing.T) {
	t.Parallel()

	c := RealClock{}
	t0 := c.Now()
	if c.Since(t0) < 0 {
		t.Error("Since returned negative duration")
	}
}
