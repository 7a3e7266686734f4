package clock

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoActiveStage is returned (or panicked with from Now) when the clock
	// is read or advanced outside of a combat stage.
	ErrNoActiveStage = errors.New("clock: no active stage")

	// ErrClockOwned is returned when a second stage tries to take the clock.
	ErrClockOwned = errors.New("clock: already owned by an active stage")

	// ErrClockRewind is returned when Advance is called with a time earlier
	// than the last tick.
	ErrClockRewind = errors.New("clock: time went backwards")
)

// Source is anything that can report the current combat time.
// Every timing-dependent read (modifier expiry, attack lifetime) goes through it.
type Source interface {
	Now() time.Duration
}

// Clock is the single combat clock. It is advanced once per update by the
// stage that owns it and read by everything else.
//
// Not safe for concurrent use: all calls come from the combat tick.
type Clock struct {
	now     time.Duration
	started time.Duration
	stage   string
	active  bool
}

// New creates an idle clock with no owning stage.
func New() *Clock {
	return &Clock{}
}

// Begin makes stage the owner of the clock. Time carries over from the
// previous stage so modifier expiries stay comparable.
func (c *Clock) Begin(stage string) error {
	if c.active {
		return fmt.Errorf("beginning stage %q (owner %q): %w", stage, c.stage, ErrClockOwned)
	}
	c.stage = stage
	c.active = true
	c.started = c.now
	return nil
}

// End releases the clock. Calling End on an idle clock is a no-op.
func (c *Clock) End() {
	c.active = false
	c.stage = ""
}

// Advance moves the clock to now. Equal times are allowed (zero-length tick).
func (c *Clock) Advance(now time.Duration) error {
	if !c.active {
		return ErrNoActiveStage
	}
	if now < c.now {
		return fmt.Errorf("advancing to %s from %s: %w", now, c.now, ErrClockRewind)
	}
	c.now = now
	return nil
}

// Now returns the time of the last tick.
// Panics with ErrNoActiveStage when no stage owns the clock.
func (c *Clock) Now() time.Duration {
	if !c.active {
		panic(ErrNoActiveStage)
	}
	return c.now
}

// StageStart returns the combat time at which the current (or last) stage
// began.
func (c *Clock) StageStart() time.Duration {
	return c.started
}

// Stage returns the owning stage name and whether one is active.
func (c *Clock) Stage() (string, bool) {
	return c.stage, c.active
}

// Frozen is a Source stuck at a fixed time. Used by tools and tests that
// evaluate sheets outside of a running stage.
type Frozen time.Duration

// Now implements Source.
func (f Frozen) Now() time.Duration { return time.Duration(f) }
