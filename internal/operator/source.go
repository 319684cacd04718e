package operator

import (
	"time"

	"github.com/roach88/tau/internal/core"
)

// From is a source that emits a fixed list of values, in order, as soon as
// the scheduler runs. Each value is its own activation cycle.
type From[T any] struct {
	core.MutableSignal[T]
}

// NewFrom attaches a new source to the scheduler's network and schedules one
// offset-0 update per value.
func NewFrom[T any](s core.Scheduler, values []T) (*From[T], error) {
	f := &From[T]{}
	s.Network().Attach(f)
	for _, v := range values {
		if err := core.ScheduleUpdate[T](s, f, v, 0); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// NewJust is NewFrom with a single value.
func NewJust[T any](s core.Scheduler, value T) (*From[T], error) {
	return NewFrom(s, []T{value})
}

// Interval emits 1, 2, 3, ... starting immediately and then once per period.
type Interval struct {
	core.MutableSignal[int64]

	sched  core.Scheduler
	period int64
	next   int64
}

// NewInterval attaches an interval source and schedules its first tick at
// offset 0.
func NewInterval(s core.Scheduler, period time.Duration) (*Interval, error) {
	iv := &Interval{sched: s, period: core.ToMillisOffset(period)}
	s.Network().Attach(iv)
	if err := s.Schedule(iv.tick, 0); err != nil {
		return nil, err
	}
	return iv, nil
}

func (iv *Interval) tick() error {
	iv.next++
	iv.SetValue(iv.next)
	if err := iv.sched.Network().Activate(iv); err != nil {
		return err
	}
	return iv.sched.Schedule(iv.tick, iv.period)
}
