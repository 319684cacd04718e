package engine

import (
	"errors"
	"fmt"
)

// ScheduleErrorCode categorizes scheduling errors.
type ScheduleErrorCode string

const (
	// ErrCodeScheduleInPast indicates a negative computed offset on the
	// real-time scheduler.
	ErrCodeScheduleInPast ScheduleErrorCode = "SCHEDULE_IN_PAST"

	// ErrCodeSchedulerStopped indicates a schedule call after shutdown.
	ErrCodeSchedulerStopped ScheduleErrorCode = "SCHEDULER_STOPPED"
)

// Sentinel errors for errors.Is matching.
var (
	ErrScheduleInPast   = errors.New("attempt to schedule in the past")
	ErrSchedulerStopped = errors.New("scheduler stopped")
)

// ScheduleError is a precondition failure returned synchronously by a
// schedule call. No timer is armed and nothing is enqueued.
type ScheduleError struct {
	// Code identifies the error category.
	Code ScheduleErrorCode

	// Offset is the computed offset in milliseconds.
	Offset int64
}

// Error implements the error interface.
func (e *ScheduleError) Error() string {
	switch e.Code {
	case ErrCodeScheduleInPast:
		return fmt.Sprintf("%s: attempt to schedule in the past (offset=%dms)", e.Code, e.Offset)
	default:
		return fmt.Sprintf("%s: scheduler no longer accepts work", e.Code)
	}
}

// Is matches the sentinel with the same code.
func (e *ScheduleError) Is(target error) bool {
	switch e.Code {
	case ErrCodeScheduleInPast:
		return target == ErrScheduleInPast
	case ErrCodeSchedulerStopped:
		return target == ErrSchedulerStopped
	}
	return false
}

// IsScheduleInPast returns true if err reports a negative offset.
// Uses errors.As to handle wrapped errors.
func IsScheduleInPast(err error) bool {
	var se *ScheduleError
	if errors.As(err, &se) {
		return se.Code == ErrCodeScheduleInPast
	}
	return false
}

// ActionError wraps a failure raised by a scheduled action.
//
// For Realtime it is logged and counted; under FailHalt it is what Wait
// returns. For Historic it aborts the run.
type ActionError struct {
	// TimeMillis is the scheduler time the action ran at.
	TimeMillis int64

	// Cycle is the logical clock stamp of the event (historic only).
	Cycle int64

	// Err is the returned error, or an error describing the panic.
	Err error

	// Panic holds the recovered value when the action panicked.
	Panic any
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	if e.Cycle != 0 {
		return fmt.Sprintf("action at %d (cycle=%d) failed: %v", e.TimeMillis, e.Cycle, e.Err)
	}
	return fmt.Sprintf("action at %d failed: %v", e.TimeMillis, e.Err)
}

// Unwrap returns the underlying failure.
func (e *ActionError) Unwrap() error {
	return e.Err
}

// Panicked reports whether the action panicked rather than returned an error.
func (e *ActionError) Panicked() bool {
	return e.Panic != nil
}

// IsActionError returns true if err is, or wraps, an ActionError.
func IsActionError(err error) bool {
	var ae *ActionError
	return errors.As(err, &ae)
}

// runAction executes a with panic recovery and wraps any failure.
func runAction(a func() error, timeMillis, cycle int64) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &ActionError{
				TimeMillis: timeMillis,
				Cycle:      cycle,
				Err:        fmt.Errorf("panic: %v", p),
				Panic:      p,
			}
		}
	}()

	if aerr := a(); aerr != nil {
		return &ActionError{TimeMillis: timeMillis, Cycle: cycle, Err: aerr}
	}
	return nil
}
