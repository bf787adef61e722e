package hooks

// EffectFunc is an effect setup function. It may return a Cleanup that
// runs before the effect's next run and on unmount.
type EffectFunc func() Cleanup

// Cleanup releases resources acquired by an effect setup function.
type Cleanup func()

// effectRecord holds the per-call-site state of one UseEffect: the last
// dependency snapshot, the cleanup from the previous run, and whether a
// run is pending.
type effectRecord struct {
	in *Instance

	setup   EffectFunc
	cleanup Cleanup
	deps    Deps
	hasRun  bool
	pending bool
}

// run executes the effect: previous cleanup first, then the setup
// function, retaining its returned cleanup for the next run or unmount.
// Called by the root after commit; never during render.
func (rec *effectRecord) run() {
	if rec.in.IsDisposed() {
		return
	}
	rec.pending = false
	rec.runCleanup()
	if rec.setup != nil {
		rec.cleanup = rec.setup()
	}
	rec.hasRun = true
}

func (rec *effectRecord) runCleanup() {
	if rec.cleanup != nil {
		cleanup := rec.cleanup
		rec.cleanup = nil
		cleanup()
	}
}

// UseEffect registers a side effect to run after commit.
//
// The deps list decides when setup re-runs:
//   - nil: after every commit of the component
//   - empty Deps{}: once, on mount
//   - otherwise: on mount and whenever any dependency differs from the
//     previous run, compared by value (reflect.DeepEqual for
//     non-comparable kinds)
//
// The Cleanup returned by setup runs before the next setup run and on
// unmount.
//
// Example:
//
//	hooks.UseEffect(func() hooks.Cleanup {
//	    sub := feed.Subscribe(roomID)
//	    return sub.Close
//	}, hooks.Deps{roomID})
func UseEffect(setup EffectFunc, deps Deps) {
	in := mustCurrentInstance("UseEffect")
	in.trackHook(HookEffect)

	var rec *effectRecord
	if slot := in.useSlot(); slot != nil {
		r, ok := slot.(*effectRecord)
		if !ok {
			slotTypeMismatch("UseEffect", slot)
		}
		rec = r
	} else {
		rec = &effectRecord{in: in}
		in.setSlot(rec)
		in.effects = append(in.effects, rec)
	}

	shouldRun := false
	switch {
	case !rec.hasRun:
		shouldRun = true
	case deps == nil:
		shouldRun = true
	default:
		shouldRun = rec.deps.changed(deps)
	}

	rec.setup = setup
	if deps == nil {
		rec.deps = nil
	} else {
		snapshot := make(Deps, len(deps))
		copy(snapshot, deps)
		rec.deps = snapshot
	}

	if shouldRun && !rec.pending {
		rec.pending = true
		if in.root != nil {
			in.root.queueEffect(rec)
		}
	}
}

// OnMount runs fn once after the component's first commit.
func OnMount(fn func()) {
	UseEffect(func() Cleanup {
		fn()
		return nil
	}, Deps{})
}

// OnUnmount registers fn to run when the component unmounts.
func OnUnmount(fn func()) {
	in := mustCurrentInstance("OnUnmount")
	in.trackHook(HookEffect)

	if slot := in.useSlot(); slot != nil {
		if _, ok := slot.(*unmountSlot); !ok {
			slotTypeMismatch("OnUnmount", slot)
		}
		return
	}
	in.setSlot(&unmountSlot{})
	in.OnCleanup(fn)
}

// unmountSlot marks an OnUnmount call site so the callback registers once.
type unmountSlot struct{}
