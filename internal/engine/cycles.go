package engine

import "sync/atomic"

// Cycles hands out the cycle numbers Historic stamps on scheduled events.
// A cycle breaks ties between events due at the same millisecond: the event
// scheduled first gets the lower cycle and runs first.
//
// Numbers start at 1 and never repeat. Safe for concurrent use, so a
// generator may schedule from its own goroutine before Run starts.
type Cycles struct {
	last atomic.Int64
}

// NewCycles returns a counter whose first cycle is after+1. Pass 0 for a
// fresh run; pass the last cycle of a previous run to keep numbering
// continuous across runs sharing one journal.
func NewCycles(after int64) *Cycles {
	c := &Cycles{}
	c.last.Store(after)
	return c
}

// Next issues a new cycle number.
func (c *Cycles) Next() int64 {
	return c.last.Add(1)
}

// Last returns the most recently issued cycle, or the starting point when
// none has been issued.
func (c *Cycles) Last() int64 {
	return c.last.Load()
}
