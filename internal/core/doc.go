// Package core implements the tau node and graph propagation model.
//
// The package holds the pieces every scheduler and operator builds on:
//
//   - Event: anything that can fire. A single capability, OnActivate.
//   - Signal / MutableSignal: value-carrying events with a dirty flag.
//   - Network: the mutable graph of events and the propagation walk.
//   - Scheduler: the contract implemented by the real-time and historical
//     schedulers in internal/engine.
//
// ARCHITECTURE:
//
// Arena Graph:
// Events are registered in a Network arena and addressed by NodeID handles
// assigned monotonically on first attach. Every edge and activation-flag table
// keys on the handle, never on event content, so two distinct events are never
// considered equal even when their state is identical.
//
// Propagation:
// Network.Activate(root) clears the per-cycle activation flags and walks the
// graph depth-first from root. An event's dependents are visited only when its
// OnActivate returned true; a false return prunes the subtree for the cycle.
// Dependents are visited in the order their edges were added, which keeps the
// walk reproducible under historical replay.
//
// Single Writer:
// The graph is not safe for concurrent use. A Network can be bound to one
// goroutine with BindOwner; while bound, mutations and activations from any
// other goroutine panic instead of silently racing. The real-time scheduler
// binds its worker goroutine for the lifetime of the worker.
//
// Edge Triggering:
// MutableSignal is the only externally settable entry point. SetValue raises
// the dirty flag and the next activation consumes it exactly once.
package core
