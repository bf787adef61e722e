package hooks

// Component is the interface for renderable components.
// Render returns an opaque view value; the runtime never interprets it
// beyond committing it to the host.
type Component interface {
	Render() any
}

// Func wraps a render function as a Component.
type Func func() any

// Render calls the wrapped function.
func (f Func) Render() any {
	return f()
}

// UseComponent mounts a child component in a hook slot and renders it,
// returning the child's view. The child instance persists across the
// parent's re-renders and is disposed with the parent.
//
// Like every hook, UseComponent must be called unconditionally and in the
// same order on every render.
func UseComponent(comp Component) any {
	in := mustCurrentInstance("UseComponent")
	in.trackHook(HookComponent)

	var child *Instance
	if slot := in.useSlot(); slot != nil {
		c, ok := slot.(*Instance)
		if !ok {
			slotTypeMismatch("UseComponent", slot)
		}
		child = c
		// Re-bind the component so changed closures take effect.
		child.comp = comp
	} else {
		child = newInstance(comp, in, in.root)
		in.setSlot(child)
	}

	return child.render()
}
