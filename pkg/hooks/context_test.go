package hooks

import "testing"

var themeCtx = NewContextNamed("theme", "light")

func TestUseContextDefault(t *testing.T) {
	root := NewRoot(Func(func() any {
		return UseContext(themeCtx)
	}))

	view, err := root.Mount()
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	if view != "light" {
		t.Errorf("expected default %q, got %v", "light", view)
	}
}

func TestUseContextProvidedValue(t *testing.T) {
	child := Func(func() any {
		return UseContext(themeCtx)
	})
	root := NewRoot(Func(func() any {
		themeCtx.Provide("dark")
		return UseComponent(child)
	}))

	view, err := root.Mount()
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	if view != "dark" {
		t.Errorf("expected provided value %q, got %v", "dark", view)
	}
}

func TestUseContextNearestProviderWins(t *testing.T) {
	leaf := Func(func() any {
		return UseContext(themeCtx)
	})
	middle := Func(func() any {
		themeCtx.Provide("sepia") // shadows the outer provider
		return UseComponent(leaf)
	})
	root := NewRoot(Func(func() any {
		themeCtx.Provide("dark")
		return UseComponent(middle)
	}))

	view, err := root.Mount()
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	if view != "sepia" {
		t.Errorf("expected nearest provider value %q, got %v", "sepia", view)
	}
}

func TestUseContextProviderUpdates(t *testing.T) {
	var setTheme func(string)
	leaf := Func(func() any {
		return UseContext(themeCtx)
	})
	root := NewRoot(Func(func() any {
		theme, set := UseState("dark")
		setTheme = set
		themeCtx.Provide(theme)
		return UseComponent(leaf)
	}))

	if _, err := root.Mount(); err != nil {
		t.Fatalf("mount failed: %v", err)
	}

	setTheme("solarized")
	view, err := root.Flush()
	if err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if view != "solarized" {
		t.Errorf("expected updated context value, got %v", view)
	}
}

func TestUseContextTypedHandles(t *testing.T) {
	limits := NewContext(10)
	child := Func(func() any {
		return UseContext(limits)
	})
	root := NewRoot(Func(func() any {
		limits.Provide(42)
		return UseComponent(child)
	}))

	view, err := root.Mount()
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	if view != 42 {
		t.Errorf("expected 42, got %v", view)
	}
	if limits.Default() != 10 {
		t.Errorf("expected default 10, got %d", limits.Default())
	}
}
