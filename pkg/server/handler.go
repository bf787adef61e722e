package server

import "sync"

// HandlerFunc processes one client event.
type HandlerFunc func(ctx *Ctx) error

// Middleware wraps event dispatch. Implementations call next() to run the
// rest of the chain and may act before and after it.
type Middleware func(ctx *Ctx, next func() error) error

// registry maps event names to handlers. Server-level registrations are
// the base; sessions overlay their own component-registered handlers.
type registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func newRegistry() *registry {
	return &registry{handlers: make(map[string]HandlerFunc)}
}

func (r *registry) register(name string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

func (r *registry) unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}

func (r *registry) lookup(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// chain composes the middleware list around a handler invocation.
func chain(mws []Middleware, ctx *Ctx, handler func() error) error {
	run := handler
	for i := len(mws) - 1; i >= 0; i-- {
		mw := mws[i]
		inner := run
		run = func() error {
			return mw(ctx, inner)
		}
	}
	return run()
}
