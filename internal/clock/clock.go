// Package clock abstracts wall time so progress and history timestamps can be
// made deterministic in tests.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time {
	return time.Now()
}

// Stepped is a deterministic clock for tests.
//
// Every call to Now returns the current instant and then advances it by the
// step, so two consecutive calls are always exactly one step apart.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Stepped struct {
	mu    sync.Mutex
	now   time.Time
	start time.Time
	step  time.Duration
}

// NewStepped creates a clock starting at start and advancing by step.
func NewStepped(start time.Time, step time.Duration) *Stepped {
	return &Stepped{now: start, start: start, step: step}
}

// Now returns the current instant and advances the clock.
func (c *Stepped) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Peek returns the current instant without advancing.
func (c *Stepped) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its start instant.
func (c *Stepped) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
