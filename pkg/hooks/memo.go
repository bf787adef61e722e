package hooks

// memoSlot is a single-slot cache for one UseMemo call site: the last
// dependency snapshot and the last computed result.
type memoSlot[T any] struct {
	value T
	deps  Deps
	has   bool
}

// UseMemo returns the cached result of compute, recomputing only when the
// dependency list differs from the previous render (or on first render).
// A nil deps list recomputes on every render.
//
// The computation runs during render and must be pure: reading state is
// fine, scheduling updates is not.
//
// Example:
//
//	visible := hooks.UseMemo(func() []Row {
//	    return filterRows(rows, query)
//	}, hooks.Deps{rows, query})
func UseMemo[T any](compute func() T, deps Deps) T {
	in := mustCurrentInstance("UseMemo")
	in.trackHook(HookMemo)

	var m *memoSlot[T]
	if slot := in.useSlot(); slot != nil {
		s, ok := slot.(*memoSlot[T])
		if !ok {
			slotTypeMismatch("UseMemo", slot)
		}
		m = s
	} else {
		m = &memoSlot[T]{}
		in.setSlot(m)
	}

	recompute := !m.has || deps == nil || m.deps.changed(deps)
	if recompute {
		m.value = compute()
		m.has = true
		if deps == nil {
			m.deps = nil
		} else {
			snapshot := make(Deps, len(deps))
			copy(snapshot, deps)
			m.deps = snapshot
		}
	}
	return m.value
}
