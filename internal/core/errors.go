package core

import (
	"errors"
	"fmt"
)

// GraphErrorCode categorizes graph errors.
type GraphErrorCode string

const (
	// ErrCodeNodeNotAttached indicates an operation on an event the network
	// has never seen.
	ErrCodeNodeNotAttached GraphErrorCode = "NODE_NOT_ATTACHED"

	// ErrCodeNotConnected indicates a disconnect of an edge that does not exist.
	ErrCodeNotConnected GraphErrorCode = "NOT_CONNECTED"

	// ErrCodeReentrantActivation indicates Activate was called from inside
	// a propagation walk.
	ErrCodeReentrantActivation GraphErrorCode = "REENTRANT_ACTIVATION"
)

// Sentinel errors for errors.Is matching. GraphError values match the
// sentinel with the same code.
var (
	ErrNodeNotAttached = errors.New("node not attached")
	ErrNotConnected    = errors.New("nodes not connected")
)

// GraphError is a programming error detected by the Network: the caller
// referenced an event or edge the graph does not know about.
//
// Graph errors are never retried; they are returned synchronously so the
// caller can fail loudly.
type GraphError struct {
	// Code identifies the error category.
	Code GraphErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the handle involved, or 0 when the event was never attached.
	Node NodeID
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Node != 0 {
		return fmt.Sprintf("%s: %s (node=%d)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is the sentinel for this error's code.
func (e *GraphError) Is(target error) bool {
	switch e.Code {
	case ErrCodeNodeNotAttached:
		return target == ErrNodeNotAttached
	case ErrCodeNotConnected:
		return target == ErrNotConnected
	}
	return false
}

func newNotAttachedError(evt Event) *GraphError {
	return &GraphError{
		Code:    ErrCodeNodeNotAttached,
		Message: fmt.Sprintf("event %T was never attached to the network", evt),
	}
}

func newNotConnectedError(producer, dependent NodeID) *GraphError {
	return &GraphError{
		Code:    ErrCodeNotConnected,
		Message: fmt.Sprintf("no edge %d -> %d", producer, dependent),
		Node:    producer,
	}
}

// IsNotAttachedError returns true if err reports an unattached event.
// Uses errors.As to handle wrapped errors.
func IsNotAttachedError(err error) bool {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeNodeNotAttached
	}
	return false
}
