// Package hooks provides the reactive state runtime for Relight.
//
// State is held in per-instance hook slots, indexed by call order across
// re-renders. Components are plain functions that call hooks; calling a
// state setter schedules a re-render, and the next render sees the new
// value.
//
// # Core Primitives
//
// UseState holds a value in a slot and returns it with a setter:
//
//	count, setCount := hooks.UseState(0)
//	setCount(count + 1) // schedules a re-render
//
// UseEffect runs a side effect after commit when its dependencies change:
//
//	hooks.UseEffect(func() hooks.Cleanup {
//	    sub := feed.Subscribe(id)
//	    return sub.Close
//	}, hooks.Deps{id})
//
// UseReducer drives state through a pure transition function:
//
//	state, dispatch := hooks.UseReducer(reduce, initial)
//	dispatch(increment{})
//
// UseMemo and UseCallback cache a computed value or a function reference
// while their dependencies are unchanged. UseRef returns a mutable box
// whose mutation never schedules a re-render. NewContext/Provide/UseContext
// pass a value from an ancestor to any descendant without threading it
// through arguments.
//
// # Rules
//
// Hooks must be called unconditionally and in the same order on every
// render of a component. Slot types are checked on every render; hook
// order is additionally validated when DebugMode is enabled.
//
// # Thread Safety
//
// The current instance is tracked per goroutine, so hooks may only be
// called on the goroutine performing the render. Setters, dispatchers,
// and refs are safe to call from any goroutine.
package hooks
