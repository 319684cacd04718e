package core

// Action is a unit of scheduled work. A returned error is a failure of the
// action; how it is handled depends on the scheduler.
type Action func() error

// Scheduler decides when actions and activations run.
//
// All times are epoch milliseconds. Offsets are relative to Time(). A
// negative computed offset is an error for the real-time scheduler and a
// silent drop for the historical one; callers must not rely on either.
type Scheduler interface {
	TimeSource

	// Network returns the graph the scheduler activates.
	Network() *Network

	// Clock returns a time.Time view of the scheduler's time.
	Clock() *Clock

	Schedule(a Action, offsetMillis int64) error
	ScheduleAt(a Action, timeMillis int64) error

	// ScheduleEvent activates evt after offsetMillis.
	ScheduleEvent(evt Event, offsetMillis int64) error
	ScheduleEventAt(evt Event, timeMillis int64) error
}

// ActivateAction returns an action that activates evt on network.
func ActivateAction(network *Network, evt Event) Action {
	return func() error {
		return network.Activate(evt)
	}
}

// Settable is an event whose value can be set from outside the graph.
// MutableSignal and every type embedding it satisfy it.
type Settable[T any] interface {
	Event
	SetValue(v T)
}

// ScheduleUpdate sets signal to value after offsetMillis and activates the
// network from it.
func ScheduleUpdate[T any](s Scheduler, signal Settable[T], value T, offsetMillis int64) error {
	return s.Schedule(updateAction(s.Network(), signal, func() T { return value }), offsetMillis)
}

// ScheduleUpdateAt is ScheduleUpdate at an absolute time.
func ScheduleUpdateAt[T any](s Scheduler, signal Settable[T], value T, timeMillis int64) error {
	return s.ScheduleAt(updateAction(s.Network(), signal, func() T { return value }), timeMillis)
}

// ScheduleUpdateFunc is ScheduleUpdate with a value computed by fn when the
// action fires, not when it is scheduled.
func ScheduleUpdateFunc[T any](s Scheduler, signal Settable[T], fn func() T, offsetMillis int64) error {
	return s.Schedule(updateAction(s.Network(), signal, fn), offsetMillis)
}

// ScheduleUpdateFuncAt is ScheduleUpdateFunc at an absolute time.
func ScheduleUpdateFuncAt[T any](s Scheduler, signal Settable[T], fn func() T, timeMillis int64) error {
	return s.ScheduleAt(updateAction(s.Network(), signal, fn), timeMillis)
}

func updateAction[T any](network *Network, signal Settable[T], fn func() T) Action {
	return func() error {
		signal.SetValue(fn())
		return network.Activate(signal)
	}
}
