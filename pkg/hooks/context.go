package hooks

// Context is a tree-scoped value channel from ancestor to descendant
// components. A Context handle carries a default value returned by
// UseContext when no ancestor provides one.
//
// Create handles at package level with NewContext; provide values during
// render with Provide; read them anywhere below with UseContext.
type Context[T any] struct {
	key *contextKey
	def T
}

// contextKey gives each Context handle a unique identity in the instance
// value maps.
type contextKey struct {
	name string
}

// NewContext creates a context handle with the given default value.
// The default is returned by UseContext when no ancestor has provided a
// value for this handle.
func NewContext[T any](def T) *Context[T] {
	return &Context[T]{key: &contextKey{}, def: def}
}

// NewContextNamed is NewContext with a name used in diagnostics.
func NewContextNamed[T any](name string, def T) *Context[T] {
	return &Context[T]{key: &contextKey{name: name}, def: def}
}

// Provide sets the context value for the current component and all of its
// descendants. The value stays visible until shadowed by a nearer Provide
// and is released when the providing component unmounts.
//
// Provide must be called during render, before the descendants that read
// the value are rendered.
func (c *Context[T]) Provide(value T) {
	in := mustCurrentInstance("Context.Provide")
	in.setValue(c.key, value)
}

// Default returns the handle's default value.
func (c *Context[T]) Default() T {
	return c.def
}

// UseContext returns the value provided by the nearest ancestor (or the
// current component itself), or the handle's default when no provider
// exists. It exposes no mutation capability to the reader.
//
// Example:
//
//	var theme = hooks.NewContext("light")
//
//	func Toolbar() any {
//	    return fmt.Sprintf("toolbar theme=%s", hooks.UseContext(theme))
//	}
func UseContext[T any](c *Context[T]) T {
	in := mustCurrentInstance("UseContext")
	in.trackHook(HookContext)

	if v, ok := in.getValue(c.key); ok {
		return v.(T)
	}
	return c.def
}
