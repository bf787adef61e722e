package hooks

import "sync"

// DefaultRenderBudget is the maximum number of render passes a single
// Flush performs before giving up with ErrRenderStorm.
const DefaultRenderBudget = 25

// Root mounts a component tree and drives its render/commit/effect loop.
//
// Renders are serialized: Mount, Flush, and Unmount may be called from
// any goroutine but never run concurrently. State setters only mark
// instances dirty; the dirty work is performed by the next Flush.
type Root struct {
	id uint64

	// mu serializes render passes and lifecycle transitions.
	mu sync.Mutex

	comp Component
	inst *Instance

	// view is the last committed view.
	view any

	mounted   bool
	unmounted bool

	// pendingMu protects the dirty queue and the effect queue, which are
	// written by setters and renders respectively.
	pendingMu      sync.Mutex
	pendingRenders map[uint64]*Instance
	pendingEffects []*effectRecord

	onCommit   func(view any)
	onSchedule func()
	budget     int
}

// RootOption configures a Root.
type RootOption func(*Root)

// WithOnCommit registers a callback invoked with the committed view after
// every render pass. Hosts use this to ship views to clients.
func WithOnCommit(fn func(view any)) RootOption {
	return func(r *Root) { r.onCommit = fn }
}

// WithScheduler registers a callback invoked when the root transitions
// from idle to having pending work. Hosts use this to wake their loop.
// The callback must not call Flush synchronously.
func WithScheduler(fn func()) RootOption {
	return func(r *Root) { r.onSchedule = fn }
}

// WithRenderBudget overrides the per-Flush render pass budget.
func WithRenderBudget(n int) RootOption {
	return func(r *Root) {
		if n > 0 {
			r.budget = n
		}
	}
}

// NewRoot creates a root for the given component. The component is not
// rendered until Mount is called.
func NewRoot(comp Component, opts ...RootOption) *Root {
	r := &Root{
		id:     nextID(),
		comp:   comp,
		budget: DefaultRenderBudget,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID returns the unique identifier for this root.
func (r *Root) ID() uint64 {
	return r.id
}

// Mount renders the component tree for the first time, commits the view,
// runs mount effects, and settles any updates those effects scheduled.
// Mounting an already-mounted root is equivalent to Flush.
func (r *Root) Mount() (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unmounted {
		return nil, ErrRootUnmounted
	}
	if !r.mounted {
		r.inst = newInstance(r.comp, nil, r)
		r.mounted = true
		view := r.inst.render()
		r.commit(view)
		r.runPendingEffects()
	}
	return r.flushLocked()
}

// Flush re-renders the tree while state updates are pending, committing
// after each pass and running the effects the pass scheduled. It returns
// the last committed view.
//
// Flush returns ErrRenderStorm when updates keep arriving past the render
// budget; the view committed so far is still returned.
func (r *Root) Flush() (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unmounted {
		return nil, ErrRootUnmounted
	}
	if !r.mounted {
		return nil, ErrNotMounted
	}
	return r.flushLocked()
}

// flushLocked runs render passes until no dirty work remains.
// Caller holds r.mu.
func (r *Root) flushLocked() (any, error) {
	for pass := 0; ; pass++ {
		r.pendingMu.Lock()
		pending := len(r.pendingRenders)
		r.pendingRenders = nil
		r.pendingMu.Unlock()

		if pending == 0 {
			return r.view, nil
		}
		if pass >= r.budget {
			return r.view, ErrRenderStorm
		}

		// Top-down render: children re-render inline, so one pass clears
		// every dirty instance in the tree.
		view := r.inst.render()
		r.commit(view)
		r.runPendingEffects()
	}
}

// View returns the last committed view.
func (r *Root) View() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// HasPendingWork reports whether state updates are waiting for a Flush.
func (r *Root) HasPendingWork() bool {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	return len(r.pendingRenders) > 0
}

// Unmount disposes the component tree, running every effect cleanup and
// unmount callback. The root cannot be mounted again.
func (r *Root) Unmount() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unmounted {
		return
	}
	r.unmounted = true

	if r.inst != nil {
		r.inst.dispose()
		r.inst = nil
	}

	r.pendingMu.Lock()
	r.pendingRenders = nil
	r.pendingEffects = nil
	r.pendingMu.Unlock()
}

// commit stores the view and notifies the host.
func (r *Root) commit(view any) {
	r.view = view
	if r.onCommit != nil {
		r.onCommit(view)
	}
}

// scheduleRender queues an instance for the next render pass.
// Called by setters from any goroutine.
func (r *Root) scheduleRender(in *Instance) {
	r.pendingMu.Lock()
	if r.pendingRenders == nil {
		r.pendingRenders = make(map[uint64]*Instance)
	}
	wasIdle := len(r.pendingRenders) == 0
	r.pendingRenders[in.id] = in
	r.pendingMu.Unlock()

	if wasIdle && r.onSchedule != nil {
		r.onSchedule()
	}
}

// queueEffect queues an effect record to run after the current render
// pass commits. Called during render.
func (r *Root) queueEffect(rec *effectRecord) {
	r.pendingMu.Lock()
	r.pendingEffects = append(r.pendingEffects, rec)
	r.pendingMu.Unlock()
}

// runPendingEffects drains and runs queued effects in the order their
// call sites completed during render.
func (r *Root) runPendingEffects() {
	r.pendingMu.Lock()
	effects := r.pendingEffects
	r.pendingEffects = nil
	r.pendingMu.Unlock()

	for _, rec := range effects {
		rec.run()
	}
}
