package server

import (
	"errors"
	"testing"
)

func TestRegistryLookup(t *testing.T) {
	r := newRegistry()

	if _, ok := r.lookup("missing"); ok {
		t.Fatal("lookup on empty registry should miss")
	}

	r.register("save", func(ctx *Ctx) error { return nil })
	if _, ok := r.lookup("save"); !ok {
		t.Fatal("registered handler not found")
	}

	r.unregister("save")
	if _, ok := r.lookup("save"); ok {
		t.Fatal("unregistered handler still found")
	}
}

func TestChainOrder(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(ctx *Ctx, next func() error) error {
			order = append(order, name+":before")
			err := next()
			order = append(order, name+":after")
			return err
		}
	}

	err := chain([]Middleware{mw("a"), mw("b")}, nil, func() error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("chain: %v", err)
	}

	want := []string{"a:before", "b:before", "handler", "b:after", "a:after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestChainPropagatesError(t *testing.T) {
	sentinel := errors.New("boom")

	passthrough := func(ctx *Ctx, next func() error) error { return next() }

	err := chain([]Middleware{passthrough}, nil, func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want %v", err, sentinel)
	}
}

func TestChainShortCircuit(t *testing.T) {
	ran := false
	block := func(ctx *Ctx, next func() error) error { return errors.New("denied") }

	chain([]Middleware{block}, nil, func() error {
		ran = true
		return nil
	})
	if ran {
		t.Fatal("handler ran despite middleware short-circuit")
	}
}
