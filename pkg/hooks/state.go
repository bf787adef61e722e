package hooks

import "sync"

// stateSlot holds the current value for one UseState call site plus the
// stable setter identities paired with it.
type stateSlot[T any] struct {
	mu    sync.Mutex
	value T
	in    *Instance

	// set and setFunc are created once so the setter identity is stable
	// across re-renders.
	set     func(T)
	setFunc func(func(T) T)
}

func newStateSlot[T any](in *Instance, initial T) *stateSlot[T] {
	s := &stateSlot[T]{value: initial, in: in}
	s.set = func(v T) {
		s.mu.Lock()
		changed := !valueEquals(any(s.value), any(v))
		if changed {
			s.value = v
		}
		s.mu.Unlock()

		if changed {
			s.in.invalidate()
		}
	}
	s.setFunc = func(update func(T) T) {
		// Deferred so a panicking updater cannot wedge the slot.
		changed := func() bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			next := update(s.value)
			if valueEquals(any(s.value), any(next)) {
				return false
			}
			s.value = next
			return true
		}()

		if changed {
			s.in.invalidate()
		}
	}
	return s
}

func (s *stateSlot[T]) get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// useStateSlot returns the slot for the current call site, creating it
// with the initial value on first render.
func useStateSlot[T any](hook string, initial T) *stateSlot[T] {
	in := mustCurrentInstance(hook)
	in.trackHook(HookState)

	if slot := in.useSlot(); slot != nil {
		s, ok := slot.(*stateSlot[T])
		if !ok {
			slotTypeMismatch(hook, slot)
		}
		return s
	}

	s := newStateSlot(in, initial)
	in.setSlot(s)
	return s
}

// UseState returns the current value of a state slot and a setter.
// The initial value is only used on the first render; afterwards the slot
// retains whatever the setter last stored.
//
// Calling the setter schedules a re-render of the owning component; the
// next render sees the new value. Setting a value equal to the current
// one is a no-op. The setter is safe to call from any goroutine.
//
// Example:
//
//	count, setCount := hooks.UseState(0)
//	setCount(count + 1)
func UseState[T any](initial T) (T, func(T)) {
	s := useStateSlot("UseState", initial)
	return s.get(), s.set
}

// UseStateFunc is UseState with an updater-style setter: the function
// receives the latest stored value and returns the next one. Use this
// when the new value depends on the previous value and the update may
// race with other setters.
//
// Example:
//
//	count, update := hooks.UseStateFunc(0)
//	update(func(n int) int { return n + 1 })
func UseStateFunc[T any](initial T) (T, func(func(T) T)) {
	s := useStateSlot("UseStateFunc", initial)
	return s.get(), s.setFunc
}
