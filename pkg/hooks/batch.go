package hooks

// Batch groups multiple state updates into a single scheduling phase.
// Instances invalidated inside the batch are collected and handed to
// their roots once, when the outermost batch completes, so a burst of
// setter calls produces one render pass instead of several.
//
// Batches can be nested; scheduling only fires when the outermost batch
// completes.
//
// Example:
//
//	hooks.Batch(func() {
//	    setFirst("John")
//	    setLast("Doe")
//	    setAge(30)
//	})
//	// one render pass sees all three changes
func Batch(fn func()) {
	incrementBatchDepth()

	defer func() {
		if decrementBatchDepth() {
			flushPendingInstances()
		}
	}()

	fn()
}

// flushPendingInstances schedules every instance invalidated during the
// batch. Duplicate invalidation is already suppressed by each instance's
// dirty flag.
func flushPendingInstances() {
	for _, in := range drainPendingInstances() {
		if in.root != nil && !in.IsDisposed() {
			in.root.scheduleRender(in)
		}
	}
}
