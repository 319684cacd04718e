package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/tau/internal/core"
	"github.com/roach88/tau/internal/engine"
	"github.com/roach88/tau/internal/operator"
	"github.com/roach88/tau/internal/store"
	"github.com/roach88/tau/internal/trace"
)

// ErrUnknownSeries is returned by Graph.Update for a series no source reads.
var ErrUnknownSeries = errors.New("no source reads this series")

// GeneratorSink is a scheduler that accepts pre-history generators.
// engine.Historic implements it.
type GeneratorSink interface {
	AddGenerator(g engine.Generator)
}

type buildOptions struct {
	store *store.Store
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithStore makes series sources replay stored ticks. The scheduler must
// then be a GeneratorSink. Without a store, series sources only receive
// values through Graph.Update.
func WithStore(st *store.Store) BuildOption {
	return func(o *buildOptions) {
		o.store = st
	}
}

// Graph is a built pipeline: every source and node as a float64 signal on
// the scheduler's network, plus a recorder tapping the outputs.
//
// Thread-safety: Graph shares the single-writer rule of its network. Only
// Update may be called from other goroutines, and only when the scheduler's
// Schedule is itself safe for that (engine.Realtime).
type Graph struct {
	def      *Definition
	sched    core.Scheduler
	signals  map[string]core.Valuer[float64]
	inputs   map[string][]core.Settable[float64]
	recorder *trace.Recorder
	checks   []func() error
}

// Build connects def onto s's network.
//
// Sources are created in name order, then nodes in Order(def), then the
// output taps in declaration order. Values and interval sources schedule
// their first updates immediately.
func Build(def *Definition, s core.Scheduler, opts ...BuildOption) (*Graph, error) {
	if errs := Validate(def); len(errs) > 0 {
		return nil, errs
	}

	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{
		def:      def,
		sched:    s,
		signals:  make(map[string]core.Valuer[float64]),
		inputs:   make(map[string][]core.Settable[float64]),
		recorder: trace.NewRecorder(s),
	}

	for _, name := range def.SourceNames() {
		if err := g.addSource(name, def.Sources[name], o); err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
	}

	nodes, err := Order(def)
	if err != nil {
		return nil, err
	}
	for _, node := range nodes {
		if err := g.addNode(node); err != nil {
			return nil, fmt.Errorf("node %q: %w", node.Name, err)
		}
	}

	for _, out := range def.Outputs {
		g.recorder.Watch(s.Network(), out, g.signals[out])
	}
	return g, nil
}

func (g *Graph) addSource(name string, src Source, o buildOptions) error {
	n := g.sched.Network()

	switch src.Kind() {
	case SourceValues:
		if src.Period == 0 {
			f, err := operator.NewFrom(g.sched, src.Values)
			if err != nil {
				return err
			}
			g.signals[name] = f
			return nil
		}
		sig := core.NewMutableSignal[float64]()
		n.Attach(sig)
		for i, v := range src.Values {
			if err := core.ScheduleUpdate[float64](g.sched, sig, v, int64(i)*src.Period); err != nil {
				return err
			}
		}
		g.signals[name] = sig

	case SourceSeries:
		sig := core.NewMutableSignal[float64]()
		n.Attach(sig)
		if o.store != nil {
			sink, ok := g.sched.(GeneratorSink)
			if !ok {
				return fmt.Errorf("series %q: stored series need a historical scheduler", src.Series)
			}
			sink.AddGenerator(store.NewSeriesGenerator(o.store, src.Series, sig))
		}
		g.inputs[src.Series] = append(g.inputs[src.Series], sig)
		g.signals[name] = sig

	case SourceInterval:
		iv, err := operator.NewInterval(g.sched, time.Duration(src.Interval)*time.Millisecond)
		if err != nil {
			return err
		}
		g.signals[name] = operator.NewMap[int64, float64](n, iv, func(v int64) float64 { return float64(v) })

	default:
		return fmt.Errorf("invalid source")
	}
	return nil
}

func (g *Graph) addNode(node Node) error {
	n := g.sched.Network()
	in := g.signals[node.Input]

	switch node.Op {
	case OpMap:
		fn := mapFuncs[node.Fn](argOrZero(node))
		g.signals[node.Name] = operator.NewMap[float64, float64](n, in, fn)

	case OpFilter:
		pred := filterFuncs[node.Fn](argOrZero(node))
		g.signals[node.Name] = operator.NewFilter[float64](n, in, pred)

	case OpScan:
		f := scanFuncs[scanFn(node)]
		g.signals[node.Name] = operator.NewScan[float64, float64](n, in, f.seed, f.fold)

	case OpBufferCount:
		b := operator.NewBufferWithCount[float64](n, in, node.Count)
		g.signals[node.Name] = newReduceNode(n, b, reducer(node))

	case OpWindowCount:
		w := operator.NewWindowWithCount[float64](n, in, node.Count)
		g.signals[node.Name] = newReduceNode(n, w, reducer(node))

	case OpBufferTime:
		b, err := operator.NewBufferWithTime[float64](g.sched, in, time.Duration(node.Millis)*time.Millisecond)
		if err != nil {
			return err
		}
		g.signals[node.Name] = newReduceNode(n, b, reducer(node))

	case OpPipe:
		out := core.NewMutableSignal[float64]()
		p := operator.NewPipe[float64](g.sched, in, out)
		g.checks = append(g.checks, p.Err)
		g.signals[node.Name] = out

	default:
		return fmt.Errorf("unknown op %q", node.Op)
	}
	return nil
}

// Definition returns the definition the graph was built from.
func (g *Graph) Definition() *Definition {
	return g.def
}

// Signal returns the signal of a source or node.
func (g *Graph) Signal(name string) (core.Valuer[float64], bool) {
	v, ok := g.signals[name]
	return v, ok
}

// Value returns the current value of a source or node, and false if the
// name is unknown or the signal has no value yet.
func (g *Graph) Value(name string) (float64, bool) {
	v, ok := g.signals[name]
	if !ok || !v.IsValid() {
		return 0, false
	}
	return v.Value(), true
}

// Inputs returns the series names read by series sources, sorted.
func (g *Graph) Inputs() []string {
	names := make([]string, 0, len(g.inputs))
	for name := range g.inputs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Update schedules value into every source reading series, at offset 0.
func (g *Graph) Update(series string, value float64) error {
	sigs, ok := g.inputs[series]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSeries, series)
	}
	for _, sig := range sigs {
		if err := core.ScheduleUpdate[float64](g.sched, sig, value, 0); err != nil {
			return err
		}
	}
	return nil
}

// Recorder returns the recorder tapping the outputs.
func (g *Graph) Recorder() *trace.Recorder {
	return g.recorder
}

// Records returns the output emissions recorded so far.
func (g *Graph) Records() []trace.Record {
	return g.recorder.Records()
}

// Err returns the scheduling failures kept by pipe nodes, joined.
func (g *Graph) Err() error {
	var errs []error
	for _, check := range g.checks {
		if err := check(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reduceNode turns each non-empty batch of its input into one value.
type reduceNode struct {
	core.Signal[float64]

	in core.Valuer[[]float64]
	fn func([]float64) float64
}

func newReduceNode(n *core.Network, in core.Valuer[[]float64], fn func([]float64) float64) *reduceNode {
	r := &reduceNode{in: in, fn: fn}
	n.Connect(in, r)
	return r
}

// OnActivate implements core.Event.
func (r *reduceNode) OnActivate() bool {
	r.ClearModified()
	if r.in.IsValid() {
		if batch := r.in.Value(); len(batch) > 0 {
			r.Update(r.fn(batch))
		}
	}
	return r.Modified()
}
