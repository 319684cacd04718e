package operator

import "github.com/roach88/tau/internal/core"

// Do runs fn every time its input fires and always propagates.
type Do struct {
	fn func()
}

// NewDo connects a Do to evt.
func NewDo(n *core.Network, evt core.Event, fn func()) *Do {
	d := &Do{fn: fn}
	n.Connect(evt, d)
	return d
}

// OnActivate implements core.Event.
func (d *Do) OnActivate() bool {
	d.fn()
	return true
}

// Lambda binds a function to any number of input events. The function
// receives the inputs and its result decides propagation.
type Lambda struct {
	params []core.Event
	fn     func(params []core.Event) bool
}

// NewLambda connects a Lambda to every param, in order.
func NewLambda(n *core.Network, params []core.Event, fn func(params []core.Event) bool) *Lambda {
	l := &Lambda{params: params, fn: fn}
	for _, p := range params {
		n.Connect(p, l)
	}
	return l
}

// OnActivate implements core.Event.
func (l *Lambda) OnActivate() bool {
	return l.fn(l.params)
}

// fanIn tracks which inputs have fired at least once. The record latches:
// an input that fired in any earlier cycle still counts.
type fanIn struct {
	network   *core.Network
	events    []core.Event
	activated []bool
}

func newFanIn(n *core.Network, events []core.Event, self core.Event) fanIn {
	for _, e := range events {
		n.Connect(e, self)
	}
	return fanIn{network: n, events: events, activated: make([]bool, len(events))}
}

func (f *fanIn) observe() {
	for i, e := range f.events {
		if fired, err := f.network.HasActivated(e); err == nil && fired {
			f.activated[i] = true
		}
	}
}

// AllActivated fires once every input has fired at least once, and on every
// input activation after that.
type AllActivated struct {
	fanIn
}

// NewAllActivated connects an AllActivated to events.
func NewAllActivated(n *core.Network, events ...core.Event) *AllActivated {
	a := &AllActivated{}
	a.fanIn = newFanIn(n, events, a)
	return a
}

// OnActivate implements core.Event.
func (a *AllActivated) OnActivate() bool {
	a.observe()
	for _, fired := range a.activated {
		if !fired {
			return false
		}
	}
	return true
}

// AnyActivated fires on every input activation once any input has fired.
type AnyActivated struct {
	fanIn
}

// NewAnyActivated connects an AnyActivated to events.
func NewAnyActivated(n *core.Network, events ...core.Event) *AnyActivated {
	a := &AnyActivated{}
	a.fanIn = newFanIn(n, events, a)
	return a
}

// OnActivate implements core.Event.
func (a *AnyActivated) OnActivate() bool {
	a.observe()
	for _, fired := range a.activated {
		if fired {
			return true
		}
	}
	return false
}
