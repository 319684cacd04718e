package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer caps the number of events a historical run may execute.
//
// Events may schedule further events, so a self-rescheduling action with
// offset 0 never advances time and never reaches the window end. The quota
// is the guard that turns such a run into an error instead of a hang.
type QuotaEnforcer struct {
	maxEvents int
	current   int
}

// NewQuotaEnforcer creates a quota with the given limit. A limit <= 0
// disables enforcement.
func NewQuotaEnforcer(maxEvents int) *QuotaEnforcer {
	return &QuotaEnforcer{maxEvents: maxEvents}
}

// Check counts one executed event and validates against the limit.
func (q *QuotaEnforcer) Check(timeMillis int64) error {
	q.current++
	if q.maxEvents > 0 && q.current > q.maxEvents {
		return &StepsExceededError{
			TimeMillis: timeMillis,
			Steps:      q.current,
			Limit:      q.maxEvents,
		}
	}
	return nil
}

// Reset resets the counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the number of events counted so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxEvents returns the limit.
func (q *QuotaEnforcer) MaxEvents() int {
	return q.maxEvents
}

// StepsExceededError is returned when a historical run exceeds its event
// quota. The run is abandoned at the offending event.
type StepsExceededError struct {
	TimeMillis int64 // Scheduler time of the event that broke the quota
	Steps      int   // Number of events counted
	Limit      int   // Maximum allowed events
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("run exceeded max events quota at %d: %d events > %d limit",
		e.TimeMillis, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
