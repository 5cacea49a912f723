package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is the first instant returned by a clock built with a zero
// start.
var DefaultEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// DeterministicClock is a wall clock for tests. Every Now call returns the
// previous instant plus step, so ledger timestamps are reproducible.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	next  time.Time
	step  time.Duration
}

// NewDeterministicClock creates a clock whose first Now returns start
// (DefaultEpoch when zero) and advances by step afterwards.
func NewDeterministicClock(start time.Time, step time.Duration) *DeterministicClock {
	if start.IsZero() {
		start = DefaultEpoch
	}
	return &DeterministicClock{start: start, next: start, step: step}
}

// Now returns the current instant and advances the clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

// Reset rewinds the clock to its start.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}

// FixedRunID returns the same run ID on every call.
type FixedRunID string

// Generate implements engine.RunIDGenerator. An empty FixedRunID yields
// "test-run".
func (id FixedRunID) Generate() string {
	if id == "" {
		return "test-run"
	}
	return string(id)
}
