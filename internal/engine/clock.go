package engine

import "sync/atomic"

// Clock is a monotonic logical clock stamping audit records within a run.
//
// Wall-clock timestamps are never used for ordering - two dispatches can
// share a wall-clock millisecond, but never a seq.
//
// Thread-safety: safe for concurrent use (atomic operations), although the
// engine's single-pass design means only one goroutine calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
// Each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
