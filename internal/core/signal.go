package core

// Signal carries an optional value of type T and a dirty flag meaning
// "modified since last consumed".
//
// Signal has no OnActivate of its own. Operators embed it and decide in their
// own OnActivate how the dirty flag gates propagation; MutableSignal is the
// edge-triggered variant used for external input.
type Signal[T any] struct {
	value    T
	present  bool
	modified bool
}

// NewSignal creates a signal holding initial. The signal is valid but not
// modified; nothing propagates until the first Update.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{value: initial, present: true}
}

// IsValid reports whether a value has ever been set.
func (s *Signal[T]) IsValid() bool {
	return s.present
}

// Value returns the current value, or the zero value of T when absent.
func (s *Signal[T]) Value() T {
	return s.value
}

// Get returns the current value and whether it is present.
func (s *Signal[T]) Get() (T, bool) {
	return s.value, s.present
}

// Modified reports whether the value changed since it was last consumed.
func (s *Signal[T]) Modified() bool {
	return s.modified
}

// ClearModified lowers the dirty flag.
func (s *Signal[T]) ClearModified() {
	s.modified = false
}

// Update sets the value and raises the dirty flag. This is the only way the
// flag becomes true.
func (s *Signal[T]) Update(v T) {
	s.value = v
	s.present = true
	s.modified = true
}

// MutableSignal is a Signal whose value is set from outside the graph.
//
// OnActivate is edge-triggered: it returns true and clears the dirty flag
// exactly once per activation in which the flag was raised, and returns false
// without touching state otherwise.
type MutableSignal[T any] struct {
	Signal[T]
}

// NewMutableSignal creates an empty, invalid mutable signal.
func NewMutableSignal[T any]() *MutableSignal[T] {
	return &MutableSignal[T]{}
}

// NewMutableSignalWith creates a mutable signal that already holds initial.
func NewMutableSignalWith[T any](initial T) *MutableSignal[T] {
	return &MutableSignal[T]{Signal: Signal[T]{value: initial, present: true}}
}

// SetValue writes a new value. It is only meaningful immediately before an
// activation cycle processes it.
func (s *MutableSignal[T]) SetValue(v T) {
	s.Update(v)
}

// OnActivate implements Event.
func (s *MutableSignal[T]) OnActivate() bool {
	if !s.modified {
		return false
	}
	s.modified = false
	return true
}
