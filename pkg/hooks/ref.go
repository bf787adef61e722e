package hooks

import "sync"

// Ref holds a mutable reference to a value. The held value persists
// across renders and mutating it never schedules a re-render.
//
// Ref[T] is safe for concurrent access.
type Ref[T any] struct {
	value T
	isSet bool
	mu    sync.RWMutex
}

// Current returns the current value of the ref.
func (r *Ref[T]) Current() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Set replaces the ref's value. No re-render is scheduled.
func (r *Ref[T]) Set(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = value
	r.isSet = true
}

// IsSet returns true once Set has been called.
func (r *Ref[T]) IsSet() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isSet
}

// Clear resets the ref to its initial-less zero state.
func (r *Ref[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	r.value = zero
	r.isSet = false
}

// UseRef returns a mutable container bound to the current call site.
// The same *Ref is returned on every render of the component; the initial
// value is only used on the first render.
//
// Example:
//
//	ticks := hooks.UseRef(0)
//	ticks.Set(ticks.Current() + 1) // persists, no re-render
func UseRef[T any](initial T) *Ref[T] {
	in := mustCurrentInstance("UseRef")
	in.trackHook(HookRef)

	if slot := in.useSlot(); slot != nil {
		r, ok := slot.(*Ref[T])
		if !ok {
			slotTypeMismatch("UseRef", slot)
		}
		return r
	}

	r := &Ref[T]{value: initial}
	in.setSlot(r)
	return r
}
