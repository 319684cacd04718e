package core

import (
	"fmt"
	"reflect"
	"slices"
)

// NodeID is the opaque handle of an event attached to a Network.
// Handles are assigned monotonically starting at 1 and are never reused.
type NodeID int64

// Network is a directed graph of events and the propagation engine over it.
//
// Thread-safety: Network is NOT safe for concurrent use. It follows the
// single-writer rule: exactly one goroutine mutates and activates it. Use
// BindOwner to have violations detected at runtime.
//
// INVARIANTS:
//   - An event obtains an id the first time it is attached or connected.
//   - Connect(a, b) implies a and b are attached and edge a->b exists once.
//   - edges[id] preserves insertion order; the walk visits dependents in it.
//   - flags are only meaningful during, or directly after, one Activate call.
type Network struct {
	nextID NodeID
	ids    map[Event]NodeID
	nodes  map[NodeID]Event
	edges  map[NodeID][]NodeID
	flags  map[NodeID]bool

	activating bool
	guard      ownerGuard
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{
		ids:   make(map[Event]NodeID),
		nodes: make(map[NodeID]Event),
		edges: make(map[NodeID][]NodeID),
		flags: make(map[NodeID]bool),
	}
}

// BindOwner pins the network to the calling goroutine. Until Unbind is
// called, any mutation or activation from another goroutine panics.
func (n *Network) BindOwner() {
	n.guard.bind()
}

// Unbind releases the goroutine binding installed by BindOwner.
func (n *Network) Unbind() {
	n.guard.unbind()
}

// Bound reports whether the network is currently pinned to a goroutine.
func (n *Network) Bound() bool {
	return n.guard.bound()
}

// Attach registers evt if it has not been seen before and returns its handle.
// Attaching an already attached event is a no-op.
//
// Panics if evt is nil or not a pointer: such values have no identity of
// their own and would silently alias other events in the graph tables.
func (n *Network) Attach(evt Event) NodeID {
	n.guard.check("attach")
	return n.attach(evt)
}

func (n *Network) attach(evt Event) NodeID {
	if id, ok := n.ids[evt]; ok {
		return id
	}
	mustBeAddressable(evt)

	n.nextID++
	id := n.nextID
	n.ids[evt] = id
	n.nodes[id] = evt
	return id
}

// Connect adds the edge producer -> dependent, attaching both events first.
//
// Both events' activation flags are reset to false. Connecting in the middle
// of a cycle therefore invalidates any stale flag state for the two events.
// Connecting an existing edge again does not duplicate it.
func (n *Network) Connect(producer, dependent Event) {
	n.guard.check("connect")

	from := n.attach(producer)
	to := n.attach(dependent)
	n.flags[from] = false
	n.flags[to] = false

	if slices.Contains(n.edges[from], to) {
		return
	}
	n.edges[from] = append(n.edges[from], to)
}

// Disconnect removes the edge producer -> dependent and forgets the
// activation flags of both events.
//
// Both events stay attached and keep their handles; connecting them again
// later works exactly like a first connect.
//
// Returns a GraphError if either event is unknown or the edge does not exist.
func (n *Network) Disconnect(producer, dependent Event) error {
	n.guard.check("disconnect")

	from, ok := n.ids[producer]
	if !ok {
		return newNotAttachedError(producer)
	}
	to, ok := n.ids[dependent]
	if !ok {
		return newNotAttachedError(dependent)
	}

	deps := n.edges[from]
	idx := slices.Index(deps, to)
	if idx < 0 {
		return newNotConnectedError(from, to)
	}

	n.edges[from] = slices.Delete(deps, idx, idx+1)
	if len(n.edges[from]) == 0 {
		delete(n.edges, from)
	}
	delete(n.flags, from)
	delete(n.flags, to)
	return nil
}

// HasActivated reports whether evt was visited during the activation cycle
// currently, or most recently, in progress.
//
// The answer is only meaningful when asked from inside an OnActivate during a
// live walk; fan-in events use it to test which of their producers fired.
func (n *Network) HasActivated(evt Event) (bool, error) {
	id, ok := n.ids[evt]
	if !ok {
		return false, newNotAttachedError(evt)
	}
	return n.flags[id], nil
}

// Activate runs one propagation cycle rooted at root.
//
// All activation flags are cleared first. The walk is depth-first and
// pre-order: visiting an event marks its flag and calls OnActivate, and the
// walk descends into the event's dependents, in edge insertion order, only if
// OnActivate returned true. An event reachable through several paths is
// visited once per path; an event already on the current path is skipped so
// that cyclic graphs terminate.
//
// Activate is not reentrant: calling it from inside an OnActivate returns a
// GraphError. Schedule a follow-up activation instead.
func (n *Network) Activate(root Event) error {
	n.guard.check("activate")

	id, ok := n.ids[root]
	if !ok {
		return newNotAttachedError(root)
	}
	if n.activating {
		return &GraphError{
			Code:    ErrCodeReentrantActivation,
			Message: "activate called from inside a propagation walk",
			Node:    id,
		}
	}

	n.activating = true
	defer func() { n.activating = false }()

	for k := range n.flags {
		n.flags[k] = false
	}

	onPath := make(map[NodeID]bool)
	n.visit(id, onPath)
	return nil
}

func (n *Network) visit(id NodeID, onPath map[NodeID]bool) {
	onPath[id] = true
	defer delete(onPath, id)

	n.flags[id] = true
	if !n.nodes[id].OnActivate() {
		return
	}

	// Dependents may connect or disconnect edges of id while we descend.
	for _, dep := range slices.Clone(n.edges[id]) {
		if onPath[dep] {
			continue
		}
		n.visit(dep, onPath)
	}
}

// ID returns the handle of evt and whether it is attached.
func (n *Network) ID(evt Event) (NodeID, bool) {
	id, ok := n.ids[evt]
	return id, ok
}

// Dependents returns the direct dependents of evt in edge insertion order.
func (n *Network) Dependents(evt Event) ([]Event, error) {
	id, ok := n.ids[evt]
	if !ok {
		return nil, newNotAttachedError(evt)
	}
	out := make([]Event, 0, len(n.edges[id]))
	for _, dep := range n.edges[id] {
		out = append(out, n.nodes[dep])
	}
	return out, nil
}

// Len returns the number of attached events.
func (n *Network) Len() int {
	return len(n.nodes)
}

func mustBeAddressable(evt Event) {
	if evt == nil {
		panic("tau: cannot attach a nil event")
	}
	if kind := reflect.TypeOf(evt).Kind(); kind != reflect.Pointer {
		panic(fmt.Sprintf("tau: event %T must be a pointer to have an identity, got %s", evt, kind))
	}
}
