package hooks

import "sync"

// Reducer is a pure function mapping (state, action) to the next state.
// Reducers signal an unhandled action by panicking; the runtime does not
// swallow the failure.
type Reducer[S, A any] func(state S, action A) S

// reducerSlot holds the current state for one UseReducer call site plus
// the stable dispatch identity paired with it.
type reducerSlot[S, A any] struct {
	mu      sync.Mutex
	state   S
	reducer Reducer[S, A]
	in      *Instance

	dispatch func(A)
}

func newReducerSlot[S, A any](in *Instance, reducer Reducer[S, A], initial S) *reducerSlot[S, A] {
	s := &reducerSlot[S, A]{state: initial, reducer: reducer, in: in}
	s.dispatch = func(action A) {
		// The deferred unlock matters: a panicking reducer must not
		// leave the slot locked, or the next dispatch would hang.
		changed := func() bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			next := s.reducer(s.state, action)
			if valueEquals(any(s.state), any(next)) {
				return false
			}
			s.state = next
			return true
		}()

		if changed {
			s.in.invalidate()
		}
	}
	return s
}

// UseReducer returns the current state of a reducer slot and a dispatch
// function. Dispatch applies the reducer synchronously to produce the
// next state and schedules a re-render when the state changed.
//
// Dispatch is safe to call from any goroutine; the reducer runs under the
// slot's lock, so it must not block or dispatch recursively. A panic from
// the reducer propagates to the caller and leaves the state unchanged;
// the slot stays usable for later dispatches.
//
// Example:
//
//	type action struct{ kind string }
//
//	state, dispatch := hooks.UseReducer(func(n int, a action) int {
//	    switch a.kind {
//	    case "increment":
//	        return n + 1
//	    case "decrement":
//	        return n - 1
//	    default:
//	        panic(fmt.Sprintf("unhandled action kind %q", a.kind))
//	    }
//	}, 0)
//	dispatch(action{kind: "increment"})
func UseReducer[S, A any](reducer Reducer[S, A], initial S) (S, func(A)) {
	in := mustCurrentInstance("UseReducer")
	in.trackHook(HookReducer)

	if slot := in.useSlot(); slot != nil {
		s, ok := slot.(*reducerSlot[S, A])
		if !ok {
			slotTypeMismatch("UseReducer", slot)
		}
		// Re-bind the reducer so changed closures take effect.
		s.mu.Lock()
		s.reducer = reducer
		state := s.state
		s.mu.Unlock()
		return state, s.dispatch
	}

	s := newReducerSlot(in, reducer, initial)
	in.setSlot(s)
	return initial, s.dispatch
}
