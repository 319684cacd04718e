// Package operator provides the derived operators of tau: sources, value
// transforms, buffers, fan-in events and timers.
//
// Operators are ordinary consumers of the core contract. They connect
// themselves to their inputs through the Network, read inputs through
// core.Valuer, and reach time only through a core.Scheduler. None of them
// contains scheduling or propagation logic of its own, so every operator
// behaves identically under the real-time and historical schedulers.
//
// Value operators embed core.Signal and follow one rule in OnActivate: clear
// the dirty flag, recompute from valid inputs, and report whether a new
// value was produced. A false return prunes downstream propagation.
package operator

// Number is the set of types the arithmetic operators accept.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}
