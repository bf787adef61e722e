package hooks

import (
	"runtime"
	"sync"
)

// trackingContext holds the render state for a goroutine.
// Each goroutine has its own tracking context so independent roots can
// render concurrently.
type trackingContext struct {
	// currentInstance is the instance whose render is in progress.
	// Hooks read their slot from it. nil means no render is active.
	currentInstance *Instance

	// batchDepth tracks nested Batch() calls.
	// When > 0, invalidated instances queue instead of scheduling immediately.
	batchDepth int

	// pendingInstances accumulates instances invalidated during a batch.
	pendingInstances []*Instance
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header ("goroutine <id> ...").
// This is an implementation detail and must not leak into the API.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating one if needed.
func getTrackingContext() *trackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// currentInstance returns the instance being rendered on this goroutine,
// or nil when no render is active.
func currentInstance() *Instance {
	return getTrackingContext().currentInstance
}

// setCurrentInstance sets the rendering instance for this goroutine and
// returns the previous one so it can be restored.
func setCurrentInstance(in *Instance) *Instance {
	ctx := getTrackingContext()
	old := ctx.currentInstance
	ctx.currentInstance = in
	return old
}

// withInstance runs fn with in as the current instance.
func withInstance(in *Instance, fn func()) {
	old := setCurrentInstance(in)
	defer setCurrentInstance(old)
	fn()
}

// mustCurrentInstance returns the current instance or panics with a
// diagnostic when a hook is called outside a component render.
func mustCurrentInstance(hook string) *Instance {
	in := currentInstance()
	if in == nil {
		panic("[RELIGHT E001] " + hook + " called outside a component render")
	}
	return in
}

// getBatchDepth returns the batch nesting depth for this goroutine.
func getBatchDepth() int {
	return getTrackingContext().batchDepth
}

// incrementBatchDepth increases the batch depth by 1.
func incrementBatchDepth() {
	getTrackingContext().batchDepth++
}

// decrementBatchDepth decreases the batch depth by 1.
// Returns true when the outermost batch completed.
func decrementBatchDepth() bool {
	ctx := getTrackingContext()
	ctx.batchDepth--
	return ctx.batchDepth == 0
}

// queuePendingInstance defers scheduling of an invalidated instance until
// the outermost batch completes.
func queuePendingInstance(in *Instance) {
	ctx := getTrackingContext()
	ctx.pendingInstances = append(ctx.pendingInstances, in)
}

// drainPendingInstances returns and clears the batch queue.
func drainPendingInstances() []*Instance {
	ctx := getTrackingContext()
	pending := ctx.pendingInstances
	ctx.pendingInstances = nil
	return pending
}
