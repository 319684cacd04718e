package operator

import (
	"fmt"
	"time"

	"github.com/roach88/tau/internal/core"
)

// RepeatingTimer fires every interval, starting one interval after
// construction.
type RepeatingTimer struct {
	sched    core.Scheduler
	interval int64
}

// NewRepeatingTimer attaches a timer and arms its first tick.
func NewRepeatingTimer(s core.Scheduler, interval time.Duration) (*RepeatingTimer, error) {
	millis := core.ToMillisOffset(interval)
	if millis <= 0 {
		return nil, fmt.Errorf("repeating timer interval must be at least 1ms, got %s", interval)
	}

	rt := &RepeatingTimer{sched: s, interval: millis}
	s.Network().Attach(rt)
	if err := s.Schedule(rt.tick, rt.interval); err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *RepeatingTimer) tick() error {
	if err := rt.sched.Schedule(rt.tick, rt.interval); err != nil {
		return err
	}
	return rt.sched.Network().Activate(rt)
}

// OnActivate implements core.Event.
func (rt *RepeatingTimer) OnActivate() bool {
	return true
}

// TimeOfDay is a wall-clock time within a day.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// String formats the time as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Alarm fires once a day at a given time of day in a given location.
type Alarm struct {
	sched  core.Scheduler
	wakeUp TimeOfDay
	loc    *time.Location
}

// NewAlarm attaches an alarm and arms it for the next occurrence of wakeUp
// strictly after the scheduler's current time. A nil loc means the
// scheduler clock's location.
func NewAlarm(s core.Scheduler, wakeUp TimeOfDay, loc *time.Location) (*Alarm, error) {
	if loc == nil {
		loc = s.Clock().Location()
	}
	a := &Alarm{sched: s, wakeUp: wakeUp, loc: loc}
	s.Network().Attach(a)
	if err := a.arm(); err != nil {
		return nil, err
	}
	return a, nil
}

// Next returns the next wake-up instant after now.
func (a *Alarm) Next(now time.Time) time.Time {
	now = now.In(a.loc)
	wake := time.Date(now.Year(), now.Month(), now.Day(),
		a.wakeUp.Hour, a.wakeUp.Minute, a.wakeUp.Second, 0, a.loc)
	if !now.Before(wake) {
		wake = time.Date(now.Year(), now.Month(), now.Day()+1,
			a.wakeUp.Hour, a.wakeUp.Minute, a.wakeUp.Second, 0, a.loc)
	}
	return wake
}

func (a *Alarm) arm() error {
	next := a.Next(a.sched.Clock().Time(a.loc))
	return a.sched.ScheduleAt(a.ring, core.ToMillisTime(next))
}

func (a *Alarm) ring() error {
	if err := a.arm(); err != nil {
		return err
	}
	return a.sched.Network().Activate(a)
}

// OnActivate implements core.Event.
func (a *Alarm) OnActivate() bool {
	return true
}
