package core

import "time"

// TimeSource is the read side of a scheduler's notion of time, in epoch
// milliseconds.
type TimeSource interface {
	Time() int64
	StartTime() int64
	EndTime() int64
}

// Clock converts scheduler milliseconds to and from time.Time.
//
// Clock holds no time of its own; every read goes through the source, so it
// always agrees with the scheduler that created it.
type Clock struct {
	source TimeSource
	loc    *time.Location
}

// NewClock creates a clock over source. A nil loc means time.Local.
func NewClock(source TimeSource, loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{source: source, loc: loc}
}

// Location returns the default location used when a read passes nil.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Time returns the scheduler's current time in loc (nil = clock default).
func (c *Clock) Time(loc *time.Location) time.Time {
	return c.toTime(c.source.Time(), loc)
}

// StartTime returns the scheduler's start time in loc.
func (c *Clock) StartTime(loc *time.Location) time.Time {
	return c.toTime(c.source.StartTime(), loc)
}

// EndTime returns the scheduler's end time in loc.
func (c *Clock) EndTime(loc *time.Location) time.Time {
	return c.toTime(c.source.EndTime(), loc)
}

func (c *Clock) toTime(millis int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = c.loc
	}
	return time.UnixMilli(millis).In(loc)
}

// ToMillisOffset converts an interval to a scheduling offset. Sub-millisecond
// remainders are truncated.
func ToMillisOffset(d time.Duration) int64 {
	return d.Milliseconds()
}

// ToMillisTime converts an instant to epoch milliseconds.
func ToMillisTime(t time.Time) int64 {
	return t.UnixMilli()
}
