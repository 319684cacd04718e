package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"

	"github.com/roach88/tau/internal/core"
)

// Realtime is the wall-clock scheduler.
//
// Thread-safety model:
//   - Schedule*/Submit: safe from any goroutine, never block
//   - Run/Start: called once; the worker is the only goroutine that
//     executes tasks and therefore the only one that touches the Network
//   - Stop/Shutdown: safe from any goroutine, idempotent
//
// INVARIANTS:
//   - A negative offset is rejected before any timer is armed.
//   - Tasks run one at a time, each to completion, in dequeue order.
//   - After shutdown no task runs and every schedule call fails.
type Realtime struct {
	network *core.Network
	clock   *core.Clock
	opts    options
	start   int64

	queue *taskQueue

	mu        sync.Mutex
	timers    map[uint64]func() bool
	nextTimer uint64
	started   bool
	stopped   bool

	worker   atomic.Int64
	done     chan struct{}
	err      error
	stopOnce sync.Once
}

var _ core.Scheduler = (*Realtime)(nil)

// NewRealtime creates a real-time scheduler over network. A nil network is
// replaced by an empty one. The start time is the wall time at construction.
func NewRealtime(network *core.Network, opts ...Option) *Realtime {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if network == nil {
		network = core.NewNetwork()
	}

	r := &Realtime{
		network: network,
		opts:    o,
		queue:   newTaskQueue(),
		timers:  make(map[uint64]func() bool),
		done:    make(chan struct{}),
	}
	r.start = r.Time()
	r.clock = core.NewClock(r, o.location)
	return r
}

// Network returns the scheduled network.
func (r *Realtime) Network() *core.Network { return r.network }

// Clock returns a time.Time view of the scheduler.
func (r *Realtime) Clock() *core.Clock { return r.clock }

// Time returns the current wall time in epoch milliseconds.
func (r *Realtime) Time() int64 { return r.opts.wall.Now().UnixMilli() }

// StartTime returns the wall time at construction.
func (r *Realtime) StartTime() int64 { return r.start }

// EndTime returns math.MaxInt64: a real-time scheduler has no end.
func (r *Realtime) EndTime() int64 { return math.MaxInt64 }

// Schedule runs a after offsetMillis.
//
// Offset 0 enqueues a for the next time the worker is free. A positive
// offset arms a timer that enqueues a on expiry. A negative offset returns
// ErrScheduleInPast.
func (r *Realtime) Schedule(a core.Action, offsetMillis int64) error {
	if offsetMillis < 0 {
		return &ScheduleError{Code: ErrCodeScheduleInPast, Offset: offsetMillis}
	}

	t := task{action: a, due: r.Time() + offsetMillis}
	if offsetMillis == 0 {
		return r.enqueue(t)
	}
	return r.arm(t, offsetMillis)
}

// ScheduleAt runs a at timeMillis. The offset is computed against Time(),
// so an instant already in the past returns ErrScheduleInPast.
func (r *Realtime) ScheduleAt(a core.Action, timeMillis int64) error {
	return r.Schedule(a, timeMillis-r.Time())
}

// ScheduleEvent activates evt after offsetMillis.
func (r *Realtime) ScheduleEvent(evt core.Event, offsetMillis int64) error {
	return r.Schedule(core.ActivateAction(r.network, evt), offsetMillis)
}

// ScheduleEventAt activates evt at timeMillis.
func (r *Realtime) ScheduleEventAt(evt core.Event, timeMillis int64) error {
	return r.ScheduleAt(core.ActivateAction(r.network, evt), timeMillis)
}

// Submit runs a on the worker as soon as it is free. Use it for graph
// mutations once the worker owns the network.
func (r *Realtime) Submit(a core.Action) error {
	return r.Schedule(a, 0)
}

func (r *Realtime) enqueue(t task) error {
	if !r.queue.Enqueue(t) {
		return &ScheduleError{Code: ErrCodeSchedulerStopped}
	}
	r.opts.metrics.queueDepth(r.queue.Len())
	return nil
}

func (r *Realtime) arm(t task, offsetMillis int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return &ScheduleError{Code: ErrCodeSchedulerStopped, Offset: offsetMillis}
	}

	r.nextTimer++
	id := r.nextTimer
	// The expiry callback takes r.mu, so it cannot observe the map before
	// the stop function is stored.
	r.timers[id] = r.opts.wall.AfterFunc(time.Duration(offsetMillis)*time.Millisecond, func() {
		r.fire(id, t)
	})
	r.opts.metrics.timers(1)
	return nil
}

func (r *Realtime) fire(id uint64, t task) {
	r.mu.Lock()
	_, live := r.timers[id]
	delete(r.timers, id)
	r.mu.Unlock()

	if !live {
		return
	}
	r.opts.metrics.timers(-1)

	if err := r.enqueue(t); err != nil {
		r.opts.logger.Debug("timer expired after shutdown", "due", t.due)
	}
}

// Start spawns the worker goroutine and returns immediately.
func (r *Realtime) Start(ctx context.Context) error {
	if err := r.begin(); err != nil {
		return err
	}
	go func() { _ = r.loop(ctx) }()
	return nil
}

// Run runs the worker on the calling goroutine until ctx is cancelled, the
// scheduler is shut down, or a task fails under FailHalt.
//
// Returns nil after Shutdown, ctx.Err() on cancellation, and the failing
// *ActionError under FailHalt.
func (r *Realtime) Run(ctx context.Context) error {
	if err := r.begin(); err != nil {
		return err
	}
	return r.loop(ctx)
}

func (r *Realtime) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return &ScheduleError{Code: ErrCodeSchedulerStopped}
	}
	if r.started {
		return errors.New("realtime scheduler already started")
	}
	r.started = true
	return nil
}

// loop is the single-writer worker. It owns the network for its lifetime.
func (r *Realtime) loop(ctx context.Context) (err error) {
	r.worker.Store(goid.Get())
	r.network.BindOwner()
	defer func() {
		r.network.Unbind()
		r.halt()
		r.err = err
		close(r.done)
	}()

	log := r.opts.logger
	log.Info("realtime scheduler starting",
		"start_millis", r.start,
		"policy", r.opts.policy.String(),
	)

	for {
		t, ok := r.queue.TryDequeue()
		if ok {
			r.opts.metrics.queueDepth(r.queue.Len())
			if err := r.execute(t); err != nil && r.opts.policy == FailHalt {
				log.Error("realtime scheduler halting on task failure",
					"error", err,
					"due", t.due,
				)
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			log.Info("realtime scheduler stopping: context cancelled")
			return ctx.Err()

		case <-r.queue.Wait():
			// The signal channel is closed on shutdown, so this case keeps
			// firing once the queue is closed.
			if r.queue.Closed() {
				log.Info("realtime scheduler stopping: shut down")
				return nil
			}
		}
	}
}

// execute runs one task. Failures are recovered, counted and, under
// FailContinue, logged; the caller decides whether to stop.
func (r *Realtime) execute(t task) error {
	now := r.Time()
	err := runAction(t.action, now, 0)
	r.opts.metrics.task("realtime", taskResult(err))

	if err != nil && r.opts.policy == FailContinue {
		r.opts.logger.Error("scheduled task failed",
			"error", err,
			"due", t.due,
			"lag_ms", now-t.due,
		)
	}
	return err
}

// Stop stops all armed timers and discards pending tasks without waiting
// for the worker. A task already running finishes. Safe to call from inside
// a task.
func (r *Realtime) Stop() {
	r.halt()
}

// Shutdown stops the scheduler and waits for the worker to exit. Called
// from inside a task it behaves like Stop, since the worker cannot wait for
// itself.
func (r *Realtime) Shutdown() {
	r.halt()
	if goid.Get() == r.worker.Load() {
		return
	}
	_ = r.Wait()
}

func (r *Realtime) halt() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		armed := len(r.timers)
		for id, stop := range r.timers {
			stop()
			delete(r.timers, id)
		}
		r.mu.Unlock()

		r.opts.metrics.timers(-float64(armed))
		dropped := r.queue.Close()
		r.opts.metrics.queueDepth(0)

		r.opts.logger.Info("realtime scheduler shut down",
			"timers_stopped", armed,
			"tasks_discarded", dropped,
		)
	})
}

// Done is closed when the worker exits.
func (r *Realtime) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the worker exits and returns its result. Returns nil
// immediately if the worker was never started.
func (r *Realtime) Wait() error {
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()

	if !started {
		return nil
	}
	<-r.done
	return r.err
}

// Pending returns the number of queued tasks.
func (r *Realtime) Pending() int {
	return r.queue.Len()
}

// Armed returns the number of timers armed and not yet fired.
func (r *Realtime) Armed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
