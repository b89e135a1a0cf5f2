package testutil

import (
	"sync"
	"time"
)

// Clock is a thread-safe, strictly increasing clock for tests. Each call to
// Now advances by the step, so records created in sequence never share a
// timestamp.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock starts at a fixed instant and advances one second per call.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC), step: time.Second}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Advance moves the clock forward without producing a timestamp.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
