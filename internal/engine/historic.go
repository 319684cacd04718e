package engine

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tau/internal/core"
)

// DateTimeLayout is the layout accepted by NewHistoricFromStrings.
const DateTimeLayout = "2006-01-02T15:04:05"

// ErrInvalidWindow is returned by Run when the window end precedes its start.
var ErrInvalidWindow = errors.New("historic window end precedes start")

// Generator seeds a historical run before time starts advancing. It may call
// any schedule method on s; typical generators read a recorded series and
// schedule one update per tick.
type Generator interface {
	Generate(s core.Scheduler) error
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(s core.Scheduler) error

// Generate implements Generator.
func (f GeneratorFunc) Generate(s core.Scheduler) error { return f(s) }

// historicalEvent is one queued action. Immutable once created.
type historicalEvent struct {
	timeMillis int64
	cycle      int64
	action     core.Action
}

// eventHeap orders events by (timeMillis, cycle).
type eventHeap []historicalEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].timeMillis != h[j].timeMillis {
		return h[i].timeMillis < h[j].timeMillis
	}
	return h[i].cycle < h[j].cycle
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(historicalEvent)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = historicalEvent{}
	*h = old[:n-1]
	return e
}

// Historic is the deterministic replay scheduler over [start, end].
//
// Thread-safety: Historic is single-threaded. Schedule calls, generators and
// Run must all happen on one goroutine; actions run synchronously inside Run.
//
// INVARIANTS:
//   - Events execute in ascending (timeMillis, cycle) order.
//   - cycle is assigned at schedule-call time from Cycles.
//   - Events before start are dropped; the first event after end ends the
//     run and abandons the rest of the queue.
type Historic struct {
	network *core.Network
	clock   *core.Clock
	seq     *Cycles
	opts    options

	start int64
	end   int64
	now   int64

	queue   eventHeap
	quota   *QuotaEnforcer
	running bool
}

var _ core.Scheduler = (*Historic)(nil)

// NewHistoric creates a historical scheduler for the window [start, end] in
// epoch milliseconds. Time() reads start until the run advances it.
func NewHistoric(startMillis, endMillis int64, opts ...Option) *Historic {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newHistoric(startMillis, endMillis, o)
}

// NewHistoricFromStrings parses start and end as DateTimeLayout in the
// location set by WithLocation (default time.Local).
func NewHistoricFromStrings(start, end string, opts ...Option) (*Historic, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	from, err := time.ParseInLocation(DateTimeLayout, start, o.location)
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}
	to, err := time.ParseInLocation(DateTimeLayout, end, o.location)
	if err != nil {
		return nil, fmt.Errorf("parse end time: %w", err)
	}
	return newHistoric(from.UnixMilli(), to.UnixMilli(), o), nil
}

func newHistoric(start, end int64, o options) *Historic {
	network := o.network
	if network == nil {
		network = core.NewNetwork()
	}
	seq := o.cycles
	if seq == nil {
		seq = NewCycles(0)
	}

	h := &Historic{
		network: network,
		seq:     seq,
		opts:    o,
		start:   start,
		end:     end,
		now:     start,
		quota:   NewQuotaEnforcer(o.maxEvents),
	}
	h.clock = core.NewClock(h, o.location)
	return h
}

// Network returns the scheduled network.
func (h *Historic) Network() *core.Network { return h.network }

// Clock returns a time.Time view of the scheduler.
func (h *Historic) Clock() *core.Clock { return h.clock }

// Time returns the replay's current time.
func (h *Historic) Time() int64 { return h.now }

// StartTime returns the window start.
func (h *Historic) StartTime() int64 { return h.start }

// EndTime returns the window end.
func (h *Historic) EndTime() int64 { return h.end }

// Queued returns the number of events waiting in the queue.
func (h *Historic) Queued() int { return h.queue.Len() }

// AddGenerator registers a pre-history generator after those already
// registered.
func (h *Historic) AddGenerator(g Generator) {
	h.opts.generators = append(h.opts.generators, g)
}

// Schedule queues a at Time()+offsetMillis. A negative offset is accepted;
// if it lands before the window start the event is dropped by Run.
func (h *Historic) Schedule(a core.Action, offsetMillis int64) error {
	return h.ScheduleAt(a, h.now+offsetMillis)
}

// ScheduleAt queues a at timeMillis. Never fails.
func (h *Historic) ScheduleAt(a core.Action, timeMillis int64) error {
	heap.Push(&h.queue, historicalEvent{
		timeMillis: timeMillis,
		cycle:      h.seq.Next(),
		action:     a,
	})
	return nil
}

// ScheduleEvent activates evt at Time()+offsetMillis.
func (h *Historic) ScheduleEvent(evt core.Event, offsetMillis int64) error {
	return h.Schedule(core.ActivateAction(h.network, evt), offsetMillis)
}

// ScheduleEventAt activates evt at timeMillis.
func (h *Historic) ScheduleEventAt(evt core.Event, timeMillis int64) error {
	return h.ScheduleAt(core.ActivateAction(h.network, evt), timeMillis)
}

// Run replays the queue.
//
// Generators run first, in registration order. Time is then set to the
// window start and events are popped in (timeMillis, cycle) order:
//   - empty queue: the run ends
//   - after the window end: the run ends and the queue is abandoned
//   - before the window start: the event is dropped
//   - otherwise time advances to the event and its action runs
//
// Returns the first *ActionError, a *StepsExceededError when the event
// quota is exceeded, or ctx.Err() if ctx is cancelled between events.
func (h *Historic) Run(ctx context.Context) error {
	if h.end < h.start {
		return fmt.Errorf("%w: start=%d end=%d", ErrInvalidWindow, h.start, h.end)
	}
	if h.running {
		return errors.New("historic run already in progress")
	}
	h.running = true
	defer func() { h.running = false }()

	log := h.opts.logger

	for i, g := range h.opts.generators {
		if err := g.Generate(h); err != nil {
			return fmt.Errorf("generator %d: %w", i, err)
		}
	}

	h.now = h.start
	h.quota.Reset()

	log.Info("historic run starting",
		"start", h.start,
		"end", h.end,
		"queued", h.queue.Len(),
	)

	var executed, dropped int
	for h.queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			log.Info("historic run cancelled", "now", h.now, "executed", executed)
			return err
		}

		evt := heap.Pop(&h.queue).(historicalEvent)

		if evt.timeMillis > h.end {
			abandoned := h.queue.Len()
			h.queue = h.queue[:0]
			h.opts.metrics.historic("post_window", 1)
			h.opts.metrics.historic("abandoned", abandoned)
			log.Debug("historic run reached window end",
				"event_time", evt.timeMillis,
				"abandoned", abandoned,
			)
			break
		}

		if evt.timeMillis < h.start {
			dropped++
			h.opts.metrics.historic("pre_window", 1)
			continue
		}

		h.now = evt.timeMillis

		if err := h.quota.Check(h.now); err != nil {
			log.Error("max events quota exceeded",
				"now", h.now,
				"steps", h.quota.Current(),
				"limit", h.quota.MaxEvents(),
			)
			return err
		}

		if h.opts.observer != nil {
			h.opts.observer.OnEvent(evt.timeMillis, evt.cycle)
		}

		err := runAction(evt.action, evt.timeMillis, evt.cycle)
		h.opts.metrics.task("historic", taskResult(err))
		if err != nil {
			log.Error("historical action failed",
				"error", err,
				"time", evt.timeMillis,
				"cycle", evt.cycle,
			)
			return err
		}

		executed++
		h.opts.metrics.historic("executed", 1)
	}

	log.Info("historic run finished",
		"now", h.now,
		"executed", executed,
		"dropped", dropped,
	)
	return nil
}
