package core

// Event is a thing that can fire.
//
// OnActivate is called whenever the event is reached by a propagation walk.
// It returns true if the event's dependents should be activated in the same
// cycle.
//
// Implementations must be pointer types. The Network keys its tables on
// interface identity, and only pointers give each instance its own identity.
type Event interface {
	OnActivate() bool
}

// EventFunc adapts a plain function to the Event interface.
//
// Because func values are not comparable, an EventFunc cannot be attached to
// a Network directly; wrap it with NewEventFunc to get an addressable event.
type EventFunc func() bool

// FuncEvent is an addressable Event backed by a function.
type FuncEvent struct {
	fn EventFunc
}

// NewEventFunc returns an Event that calls fn on activation.
func NewEventFunc(fn EventFunc) *FuncEvent {
	return &FuncEvent{fn: fn}
}

// OnActivate implements Event.
func (e *FuncEvent) OnActivate() bool {
	return e.fn()
}

// Valuer is the read side of a signal, used by operators that consume the
// output of other signals without caring how the value was produced.
type Valuer[T any] interface {
	Event
	IsValid() bool
	Value() T
}
