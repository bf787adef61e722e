package hooks

// callbackSlot caches one UseCallback call site: the last dependency
// snapshot and the retained function reference.
type callbackSlot[F any] struct {
	fn   F
	deps Deps
	has  bool
}

// UseCallback returns the same function reference across renders while
// the dependency list is unchanged, and the newly passed function when a
// dependency differs. A nil deps list returns the new function on every
// render.
//
// This matters when the function's identity is itself a dependency, for
// example when it feeds a child's UseEffect.
//
// Example:
//
//	submit := hooks.UseCallback(func() {
//	    saveDraft(draftID)
//	}, hooks.Deps{draftID})
func UseCallback[F any](fn F, deps Deps) F {
	in := mustCurrentInstance("UseCallback")
	in.trackHook(HookCallback)

	var c *callbackSlot[F]
	if slot := in.useSlot(); slot != nil {
		s, ok := slot.(*callbackSlot[F])
		if !ok {
			slotTypeMismatch("UseCallback", slot)
		}
		c = s
	} else {
		c = &callbackSlot[F]{}
		in.setSlot(c)
	}

	replace := !c.has || deps == nil || c.deps.changed(deps)
	if replace {
		c.fn = fn
		c.has = true
		if deps == nil {
			c.deps = nil
		} else {
			snapshot := make(Deps, len(deps))
			copy(snapshot, deps)
			c.deps = snapshot
		}
	}
	return c.fn
}
