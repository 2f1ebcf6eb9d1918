package clock

import "time"

// Clock supplies the reference instant of an operation
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// New returns the wall clock
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

// FakeClock is a manually driven clock for tests
type FakeClock struct {
	now time.Time
}

// NewFakeClock returns a FakeClock stopped at t
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

// Now returns the current fake instant
func (c *FakeClock) Now() time.Time {
	return c.now
}

// Set moves the clock to t
func (c *FakeClock) Set(t time.Time) {
	c.now = t.UTC()
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
