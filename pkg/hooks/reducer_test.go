package hooks

import (
	"fmt"
	"testing"
	"time"
)

type counterAction struct {
	kind string
}

func counterReducer(n int, a counterAction) int {
	switch a.kind {
	case "increment":
		return n + 1
	case "decrement":
		return n - 1
	case "reset":
		return 0
	default:
		panic(fmt.Sprintf("unhandled action kind %q", a.kind))
	}
}

func TestUseReducerDispatch(t *testing.T) {
	var dispatch func(counterAction)
	root := NewRoot(Func(func() any {
		state, d := UseReducer(counterReducer, 0)
		dispatch = d
		return state
	}))

	view, err := root.Mount()
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	if view != 0 {
		t.Errorf("expected initial state 0, got %v", view)
	}

	dispatch(counterAction{kind: "increment"})
	dispatch(counterAction{kind: "increment"})
	dispatch(counterAction{kind: "decrement"})

	view, err = root.Flush()
	if err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if view != 1 {
		t.Errorf("expected state 1, got %v", view)
	}
}

func TestUseReducerDispatchIsSynchronous(t *testing.T) {
	var dispatch func(counterAction)
	root := NewRoot(Func(func() any {
		state, d := UseReducer(counterReducer, 0)
		dispatch = d
		return state
	}))

	if _, err := root.Mount(); err != nil {
		t.Fatalf("mount failed: %v", err)
	}

	// Each dispatch applies to the state produced by the previous one,
	// even without an intervening render.
	for i := 0; i < 5; i++ {
		dispatch(counterAction{kind: "increment"})
	}
	view, _ := root.Flush()
	if view != 5 {
		t.Errorf("expected 5 after five synchronous dispatches, got %v", view)
	}
}

func TestUseReducerUnhandledActionPanics(t *testing.T) {
	var dispatch func(counterAction)
	root := NewRoot(Func(func() any {
		state, d := UseReducer(counterReducer, 0)
		dispatch = d
		return state
	}))

	if _, err := root.Mount(); err != nil {
		t.Fatalf("mount failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for unhandled action kind")
		}
	}()
	dispatch(counterAction{kind: "explode"})
}

func TestUseReducerUsableAfterReducerPanic(t *testing.T) {
	var dispatch func(counterAction)
	root := NewRoot(Func(func() any {
		state, d := UseReducer(counterReducer, 0)
		dispatch = d
		return state
	}))

	if _, err := root.Mount(); err != nil {
		t.Fatalf("mount failed: %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic for unhandled action kind")
			}
		}()
		dispatch(counterAction{kind: "explode"})
	}()

	// The slot must not stay locked after the recovered panic.
	done := make(chan struct{})
	go func() {
		dispatch(counterAction{kind: "increment"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch blocked after a recovered reducer panic")
	}

	// The render path takes the same lock when it re-binds the reducer.
	view, err := root.Flush()
	if err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if view != 1 {
		t.Errorf("expected state 1 after recovery, got %v", view)
	}
}

func TestUseReducerStatePersistsAcrossRenders(t *testing.T) {
	var dispatch func(counterAction)
	var setOther func(int)
	root := NewRoot(Func(func() any {
		other, set := UseState(0)
		setOther = set
		state, d := UseReducer(counterReducer, 0)
		dispatch = d
		return []any{other, state}
	}))

	if _, err := root.Mount(); err != nil {
		t.Fatalf("mount failed: %v", err)
	}

	dispatch(counterAction{kind: "increment"})
	if _, err := root.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	// An unrelated state change must not reset reducer state.
	setOther(9)
	view, _ := root.Flush()
	got := view.([]any)
	if got[1] != 1 {
		t.Errorf("reducer state should persist across renders, got %v", got[1])
	}
}
