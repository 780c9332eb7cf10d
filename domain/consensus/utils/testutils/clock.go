package testutils

import (
	"sync"
	"time"
)

// ManualClock is a model.Clock whose time only moves when told to
type ManualClock struct {
	mtx sync.Mutex
	now time.Time
}

// NewManualClock returns a ManualClock set to now
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the time the clock was last set to
func (c *ManualClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

// Set moves the clock to now
func (c *ManualClock) Set(now time.Time) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = now
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = c.now.Add(d)
}
