package operator

import (
	"fmt"
	"slices"
	"time"

	"github.com/roach88/tau/internal/core"
)

// BufferWithCount collects input values and emits them in batches of count.
type BufferWithCount[T any] struct {
	core.Signal[[]T]

	in     core.Valuer[T]
	count  int
	buffer []T
}

// NewBufferWithCount connects a BufferWithCount to in. count must be >= 1.
func NewBufferWithCount[T any](n *core.Network, in core.Valuer[T], count int) *BufferWithCount[T] {
	if count < 1 {
		panic("operator: buffer count must be at least 1")
	}
	b := &BufferWithCount[T]{in: in, count: count, buffer: make([]T, 0, count)}
	n.Connect(in, b)
	return b
}

// OnActivate implements core.Event.
func (b *BufferWithCount[T]) OnActivate() bool {
	b.ClearModified()
	if b.in.IsValid() {
		b.buffer = append(b.buffer, b.in.Value())
		if len(b.buffer) == b.count {
			b.Update(slices.Clone(b.buffer))
			b.buffer = b.buffer[:0]
		}
	}
	return b.Modified()
}

// BufferWithTime collects input values and, once per interval, emits the
// collected batch. A batch is emitted on the first input value that arrives
// after the interval elapsed; that value starts the next batch.
type BufferWithTime[T any] struct {
	core.Signal[[]T]

	sched    core.Scheduler
	in       core.Valuer[T]
	interval int64
	buffer   []T
	timedOut bool
}

// NewBufferWithTime connects a BufferWithTime to in and arms its first
// interval timer. interval must be at least 1ms.
func NewBufferWithTime[T any](s core.Scheduler, in core.Valuer[T], interval time.Duration) (*BufferWithTime[T], error) {
	millis := core.ToMillisOffset(interval)
	if millis <= 0 {
		return nil, fmt.Errorf("buffer interval must be at least 1ms, got %s", interval)
	}

	b := &BufferWithTime[T]{sched: s, in: in, interval: millis}
	s.Network().Connect(in, b)
	if err := s.Schedule(b.expire, b.interval); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *BufferWithTime[T]) expire() error {
	b.timedOut = true
	return b.sched.Schedule(b.expire, b.interval)
}

// OnActivate implements core.Event.
func (b *BufferWithTime[T]) OnActivate() bool {
	b.ClearModified()
	if b.in.IsValid() {
		if b.timedOut {
			b.Update(slices.Clone(b.buffer))
			b.buffer = b.buffer[:0]
			b.timedOut = false
		}
		b.buffer = append(b.buffer, b.in.Value())
	}
	return b.Modified()
}

// WindowWithCount emits a rolling window of the last count input values,
// starting once count values have arrived.
type WindowWithCount[T any] struct {
	core.Signal[[]T]

	in     core.Valuer[T]
	count  int
	window []T
}

// NewWindowWithCount connects a WindowWithCount to in. count must be >= 1.
func NewWindowWithCount[T any](n *core.Network, in core.Valuer[T], count int) *WindowWithCount[T] {
	if count < 1 {
		panic("operator: window count must be at least 1")
	}
	w := &WindowWithCount[T]{in: in, count: count, window: make([]T, 0, count)}
	n.Connect(in, w)
	return w
}

// OnActivate implements core.Event. Each emitted window is a fresh slice.
func (w *WindowWithCount[T]) OnActivate() bool {
	w.ClearModified()
	if !w.in.IsValid() {
		return false
	}

	if len(w.window) == w.count {
		w.window = append(w.window[:0], w.window[1:]...)
	}
	w.window = append(w.window, w.in.Value())
	if len(w.window) == w.count {
		w.Update(slices.Clone(w.window))
	}
	return w.Modified()
}
