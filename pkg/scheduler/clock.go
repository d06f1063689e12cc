package scheduler

import (
	"sync"
	"time"
)

// Clock reports monotonic time relative to an arbitrary origin.
type Clock interface {
	Now() time.Duration
}

type realClock struct {
	origin time.Time
}

// NewRealClock returns a clock backed by the runtime monotonic clock.
func NewRealClock() Clock {
	return realClock{origin: time.Now()}
}

func (c realClock) Now() time.Duration {
	return time.Since(c.origin)
}

// FakeClock is a manually advanced clock for deterministic tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Duration
}

// NewFakeClock returns a fake clock starting at zero.
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

func (c *FakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// Set moves the clock to an absolute time.
func (c *FakeClock) Set(t time.Duration) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
