package hooks

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DebugMode enables dev-time validation such as hook order checking.
// It should be set at startup and not changed while roots are mounted.
var DebugMode bool

// HookType identifies the kind of hook call for order validation.
type HookType uint8

const (
	HookState HookType = iota + 1
	HookReducer
	HookEffect
	HookMemo
	HookCallback
	HookRef
	HookContext
	HookComponent
)

// String returns a human-readable name for the hook type.
func (h HookType) String() string {
	switch h {
	case HookState:
		return "UseState"
	case HookReducer:
		return "UseReducer"
	case HookEffect:
		return "UseEffect"
	case HookMemo:
		return "UseMemo"
	case HookCallback:
		return "UseCallback"
	case HookRef:
		return "UseRef"
	case HookContext:
		return "UseContext"
	case HookComponent:
		return "UseComponent"
	default:
		return "Unknown"
	}
}

// hookRecord records a single hook call for order validation.
type hookRecord struct {
	Type HookType
}

// Instance is a component instance: an identity that persists across
// re-renders and owns an ordered sequence of hook slots, effect records,
// cleanups, context values, and child instances.
//
// Instances form a tree mirroring the component tree. Disposing an
// instance disposes its children first, then runs its effect cleanups and
// unmount callbacks in reverse registration order.
type Instance struct {
	id uint64

	// comp is the component rendered by this instance.
	comp Component

	// parent is the parent instance, nil for the root.
	parent *Instance

	// children are child instances mounted via UseComponent.
	children   []*Instance
	childrenMu sync.Mutex

	// root is the owning root.
	root *Root

	// depth is the distance from the root instance.
	depth int

	// slots are the hook slots, one per hook call site, in call order.
	slots   []any
	slotIdx int

	// effects owned by this instance, in slot order. Used for disposal.
	effects []*effectRecord

	// cleanups are unmount callbacks registered via OnUnmount.
	cleanups   []func()
	cleanupsMu sync.Mutex

	// values stores context values provided by this instance.
	values   map[any]any
	valuesMu sync.RWMutex

	// lastView is the most recently rendered view.
	lastView any

	// dirty indicates the instance has state updates awaiting a render.
	dirty atomic.Bool

	// disposed indicates the instance has been unmounted.
	disposed atomic.Bool

	// Dev-mode hook order tracking (only used when DebugMode is true).
	hookOrder   []hookRecord
	hookIndex   int
	renderCount int
}

// newInstance creates an instance under parent (nil for the root).
func newInstance(comp Component, parent *Instance, root *Root) *Instance {
	in := &Instance{
		id:     nextID(),
		comp:   comp,
		parent: parent,
		root:   root,
	}
	if parent != nil {
		in.depth = parent.depth + 1
		parent.addChild(in)
	}
	return in
}

// ID returns the unique identifier for this instance.
func (in *Instance) ID() uint64 {
	return in.id
}

// Parent returns the parent instance, or nil for the root instance.
func (in *Instance) Parent() *Instance {
	return in.parent
}

// IsDisposed returns true once the instance has been unmounted.
func (in *Instance) IsDisposed() bool {
	return in.disposed.Load()
}

func (in *Instance) addChild(child *Instance) {
	in.childrenMu.Lock()
	defer in.childrenMu.Unlock()
	in.children = append(in.children, child)
}

func (in *Instance) removeChild(child *Instance) {
	in.childrenMu.Lock()
	defer in.childrenMu.Unlock()
	for i, c := range in.children {
		if c == child {
			in.children = append(in.children[:i], in.children[i+1:]...)
			return
		}
	}
}

// OnCleanup registers a function to run when this instance is disposed.
// If the instance is already disposed the function runs immediately.
func (in *Instance) OnCleanup(fn func()) {
	if in.disposed.Load() {
		fn()
		return
	}
	in.cleanupsMu.Lock()
	defer in.cleanupsMu.Unlock()
	in.cleanups = append(in.cleanups, fn)
}

// invalidate marks the instance dirty and schedules a render pass.
// Safe to call from any goroutine. Inside a Batch, scheduling is deferred
// until the outermost batch completes.
func (in *Instance) invalidate() {
	if in.disposed.Load() {
		return
	}
	if in.dirty.CompareAndSwap(false, true) {
		if getBatchDepth() > 0 {
			queuePendingInstance(in)
			return
		}
		if in.root != nil {
			in.root.scheduleRender(in)
		}
	}
}

// render runs the component function with this instance current,
// resetting the slot cursor first and validating it afterwards.
func (in *Instance) render() any {
	in.startRender()
	defer in.endRender()

	var view any
	withInstance(in, func() {
		view = in.comp.Render()
	})
	in.lastView = view
	in.dirty.Store(false)
	return view
}

// startRender resets the slot cursor, and in debug mode the hook order
// validation index.
func (in *Instance) startRender() {
	in.slotIdx = 0
	if DebugMode {
		in.hookIndex = 0
	}
}

// endRender validates that the render consumed every slot it created on
// the first render. A shrinking slot count means a hook call was skipped,
// which corrupts slot identity for every later hook.
func (in *Instance) endRender() {
	if in.slotIdx < len(in.slots) {
		panic(fmt.Sprintf("[RELIGHT E002] hook order changed: %d hooks rendered, %d expected",
			in.slotIdx, len(in.slots)))
	}
	if DebugMode {
		if in.renderCount == 0 {
			in.renderCount = 1
		} else if in.hookIndex < len(in.hookOrder) {
			panic(fmt.Sprintf("[RELIGHT E002] hook order changed: expected %d hooks, got %d",
				len(in.hookOrder), in.hookIndex))
		}
	}
}

// trackHook records a hook call during render for order validation.
// In debug mode it validates that hooks are called in the same order on
// every render; violations panic with a descriptive error.
func (in *Instance) trackHook(ht HookType) {
	if !DebugMode {
		return
	}
	if in.renderCount == 0 {
		in.hookOrder = append(in.hookOrder, hookRecord{Type: ht})
	} else {
		if in.hookIndex >= len(in.hookOrder) {
			panic(fmt.Sprintf("[RELIGHT E002] hook order changed: extra %s hook at index %d",
				ht, in.hookIndex))
		}
		expected := in.hookOrder[in.hookIndex]
		if expected.Type != ht {
			panic(fmt.Sprintf("[RELIGHT E002] hook order changed at index %d: expected %s, got %s",
				in.hookIndex, expected.Type, ht))
		}
	}
	in.hookIndex++
}

// useSlot returns the stored value for the current hook slot, or nil on
// first render. The caller creates the record and stores it with setSlot.
func (in *Instance) useSlot() any {
	idx := in.slotIdx
	in.slotIdx++

	if idx < len(in.slots) {
		return in.slots[idx]
	}
	return nil
}

// setSlot stores a value in the current hook slot.
// Must be called after useSlot returned nil (first render).
func (in *Instance) setSlot(value any) {
	in.slots = append(in.slots, value)
}

// slotTypeMismatch panics with a diagnostic for a slot whose stored type
// does not match the hook reading it.
func slotTypeMismatch(hook string, got any) {
	panic(fmt.Sprintf("[RELIGHT E003] hook slot type mismatch: %s read a slot holding %T; "+
		"hooks must be called unconditionally and in the same order on every render", hook, got))
}

// setValue sets a context value provided by this instance.
func (in *Instance) setValue(key, value any) {
	in.valuesMu.Lock()
	defer in.valuesMu.Unlock()
	if in.values == nil {
		in.values = make(map[any]any)
	}
	in.values[key] = value
}

// getValue retrieves a context value from this instance or the nearest
// ancestor that provides it. The second result reports whether any
// provider was found.
func (in *Instance) getValue(key any) (any, bool) {
	in.valuesMu.RLock()
	if in.values != nil {
		if val, ok := in.values[key]; ok {
			in.valuesMu.RUnlock()
			return val, true
		}
	}
	in.valuesMu.RUnlock()

	if in.parent != nil {
		return in.parent.getValue(key)
	}
	return nil, false
}

// dispose unmounts the instance: children in reverse order first, then
// effect cleanups in reverse slot order, then unmount callbacks in
// reverse registration order.
func (in *Instance) dispose() {
	if in.disposed.Swap(true) {
		return
	}

	if in.parent != nil {
		in.parent.removeChild(in)
	}

	in.childrenMu.Lock()
	children := make([]*Instance, len(in.children))
	copy(children, in.children)
	in.children = nil
	in.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].dispose()
	}

	for i := len(in.effects) - 1; i >= 0; i-- {
		in.effects[i].runCleanup()
	}
	in.effects = nil

	in.cleanupsMu.Lock()
	cleanups := in.cleanups
	in.cleanups = nil
	in.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	in.slots = nil
	in.valuesMu.Lock()
	in.values = nil
	in.valuesMu.Unlock()
}
