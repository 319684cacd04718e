package engine

import (
	"log/slog"
	"time"

	"github.com/roach88/tau/internal/core"
)

// FailurePolicy decides what the real-time worker does when a task fails.
type FailurePolicy int

const (
	// FailContinue logs the failure and keeps draining the queue.
	FailContinue FailurePolicy = iota

	// FailHalt stops the worker on the first failure. The failure is
	// returned by Run and Wait.
	FailHalt
)

// String returns the policy name used in flags and logs.
func (p FailurePolicy) String() string {
	switch p {
	case FailContinue:
		return "continue"
	case FailHalt:
		return "halt"
	}
	return "unknown"
}

// ParseFailurePolicy parses "continue" or "halt".
func ParseFailurePolicy(s string) (FailurePolicy, bool) {
	switch s {
	case "continue", "":
		return FailContinue, true
	case "halt":
		return FailHalt, true
	}
	return FailContinue, false
}

// Observer is notified of every historical event that executes, before its
// action runs.
type Observer interface {
	OnEvent(timeMillis, cycle int64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(timeMillis, cycle int64)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(timeMillis, cycle int64) { f(timeMillis, cycle) }

// DefaultMaxEvents is the historical event quota. Zero means unlimited.
const DefaultMaxEvents = 0

// options is shared by both schedulers. Fields that do not apply to a
// scheduler are ignored by it.
type options struct {
	logger   *slog.Logger
	metrics  *Metrics
	location *time.Location

	// realtime
	wall   WallClock
	policy FailurePolicy

	// historic
	network    *core.Network
	generators []Generator
	maxEvents  int
	observer   Observer
	cycles     *Cycles
}

func defaultOptions() options {
	return options{
		logger:    slog.Default(),
		location:  time.Local,
		wall:      SystemClock{},
		policy:    FailContinue,
		maxEvents: DefaultMaxEvents,
	}
}

// Option configures a scheduler.
type Option func(*options)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLocation sets the default time zone of the scheduler's core.Clock.
// Default: time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithWallClock replaces the system clock. Realtime only.
func WithWallClock(w WallClock) Option {
	return func(o *options) {
		if w != nil {
			o.wall = w
		}
	}
}

// WithFailurePolicy sets the worker failure policy. Realtime only.
// Default: FailContinue.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithNetwork sets the network a historical scheduler activates.
// Default: a fresh, empty network.
func WithNetwork(n *core.Network) Option {
	return func(o *options) {
		o.network = n
	}
}

// WithGenerators registers pre-history generators, in order. Historic only.
func WithGenerators(gens ...Generator) Option {
	return func(o *options) {
		o.generators = append(o.generators, gens...)
	}
}

// WithMaxEvents caps the number of events a run executes. Historic only.
//
// Use WithMaxEvents(10) in tests that schedule self-repeating actions.
func WithMaxEvents(n int) Option {
	return func(o *options) {
		o.maxEvents = n
	}
}

// WithObserver installs an execution observer. Historic only.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithCycles shares a cycle counter between historical runs. Historic only.
func WithCycles(c *Cycles) Option {
	return func(o *options) {
		if c != nil {
			o.cycles = c
		}
	}
}
