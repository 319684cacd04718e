package operator

import "github.com/roach88/tau/internal/core"

// Map applies fn to every valid input value.
type Map[In, Out any] struct {
	core.Signal[Out]

	in core.Valuer[In]
	fn func(In) Out
}

// NewMap connects a Map to in.
func NewMap[In, Out any](n *core.Network, in core.Valuer[In], fn func(In) Out) *Map[In, Out] {
	m := &Map[In, Out]{in: in, fn: fn}
	n.Connect(in, m)
	return m
}

// OnActivate implements core.Event.
func (m *Map[In, Out]) OnActivate() bool {
	m.ClearModified()
	if m.in.IsValid() {
		m.Update(m.fn(m.in.Value()))
	}
	return m.Modified()
}

// Filter passes through input values matching pred.
type Filter[T any] struct {
	core.Signal[T]

	in   core.Valuer[T]
	pred func(T) bool
}

// NewFilter connects a Filter to in.
func NewFilter[T any](n *core.Network, in core.Valuer[T], pred func(T) bool) *Filter[T] {
	f := &Filter[T]{in: in, pred: pred}
	n.Connect(in, f)
	return f
}

// OnActivate implements core.Event.
func (f *Filter[T]) OnActivate() bool {
	f.ClearModified()
	if f.in.IsValid() {
		if v := f.in.Value(); f.pred(v) {
			f.Update(v)
		}
	}
	return f.Modified()
}

// Scan folds input values into an accumulator and emits every intermediate
// result.
type Scan[In, Acc any] struct {
	core.Signal[Acc]

	in  core.Valuer[In]
	acc Acc
	fn  func(Acc, In) Acc
}

// NewScan connects a Scan starting from seed to in.
func NewScan[In, Acc any](n *core.Network, in core.Valuer[In], seed Acc, fn func(Acc, In) Acc) *Scan[In, Acc] {
	s := &Scan[In, Acc]{in: in, acc: seed, fn: fn}
	n.Connect(in, s)
	return s
}

// NewSum is a Scan that keeps a running sum from zero.
func NewSum[T Number](n *core.Network, in core.Valuer[T]) *Scan[T, T] {
	return NewScan(n, in, T(0), func(acc, v T) T { return acc + v })
}

// OnActivate implements core.Event.
func (s *Scan[In, Acc]) OnActivate() bool {
	s.ClearModified()
	if s.in.IsValid() {
		s.acc = s.fn(s.acc, s.in.Value())
		s.Update(s.acc)
	}
	return s.Modified()
}

// Pipe forwards every valid value of in to out through the scheduler, so
// the value arrives in a later activation cycle rooted at out.
type Pipe[T any] struct {
	sched core.Scheduler
	in    core.Valuer[T]
	out   core.Settable[T]
	err   error
}

// NewPipe connects a Pipe from in to out. out is attached if needed.
func NewPipe[T any](s core.Scheduler, in core.Valuer[T], out core.Settable[T]) *Pipe[T] {
	p := &Pipe[T]{sched: s, in: in, out: out}
	s.Network().Connect(in, p)
	s.Network().Attach(out)
	return p
}

// OnActivate implements core.Event. Returns false if the forward could not
// be scheduled; the cause is kept in Err.
func (p *Pipe[T]) OnActivate() bool {
	if !p.in.IsValid() {
		return false
	}
	if err := core.ScheduleUpdate[T](p.sched, p.out, p.in.Value(), 0); err != nil {
		p.err = err
		return false
	}
	return true
}

// Err returns the last scheduling failure, if any.
func (p *Pipe[T]) Err() error {
	return p.err
}

// FlatMap flattens batches: every valid []T input schedules one update per
// element on the FlatMap itself, each in its own cycle.
type FlatMap[T any] struct {
	core.MutableSignal[T]

	handler *flatMapHandler[T]
}

type flatMapHandler[T any] struct {
	sched core.Scheduler
	in    core.Valuer[[]T]
	out   *FlatMap[T]
	err   error
}

// NewFlatMap connects a FlatMap to in.
func NewFlatMap[T any](s core.Scheduler, in core.Valuer[[]T]) *FlatMap[T] {
	fm := &FlatMap[T]{}
	fm.handler = &flatMapHandler[T]{sched: s, in: in, out: fm}
	s.Network().Connect(in, fm.handler)
	s.Network().Attach(fm)
	return fm
}

// Err returns the last scheduling failure, if any.
func (fm *FlatMap[T]) Err() error {
	return fm.handler.err
}

func (h *flatMapHandler[T]) OnActivate() bool {
	if !h.in.IsValid() {
		return false
	}
	for _, v := range h.in.Value() {
		if err := core.ScheduleUpdate[T](h.sched, h.out, v, 0); err != nil {
			h.err = err
			return false
		}
	}
	return true
}
