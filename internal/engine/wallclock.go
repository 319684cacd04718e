package engine

import "time"

// WallClock is the real-time scheduler's source of time and timers.
//
// AfterFunc arms a one-shot timer that calls f on its own goroutine after d
// and returns a function that stops the timer. The stop function reports
// whether it prevented f from running.
type WallClock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// SystemClock is the WallClock backed by package time.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// AfterFunc wraps time.AfterFunc.
func (SystemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
