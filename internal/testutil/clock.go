package testutil

import "time"

// ManualClock is a clock.Source the test moves by hand.
type ManualClock struct {
	now time.Duration
}

// Now implements clock.Source.
func (c *ManualClock) Now() time.Duration { return c.now }

// Set jumps to now.
func (c *ManualClock) Set(now time.Duration) { c.now = now }

// Advance moves forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.now += d }
