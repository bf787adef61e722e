package server

import (
	"context"
	"testing"

	"github.com/relight-dev/relight/pkg/protocol"
)

func TestCtxBindArgs(t *testing.T) {
	c := &Ctx{event: &protocol.Event{Name: "save", Args: []byte(`{"id":7,"name":"x"}`)}}

	var args struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := c.BindArgs(&args); err != nil {
		t.Fatalf("BindArgs: %v", err)
	}
	if args.ID != 7 || args.Name != "x" {
		t.Errorf("args = %+v", args)
	}
}

func TestCtxBindArgsEmpty(t *testing.T) {
	c := &Ctx{event: &protocol.Event{Name: "save"}}

	v := 42
	if err := c.BindArgs(&v); err != nil {
		t.Fatalf("BindArgs: %v", err)
	}
	if v != 42 {
		t.Error("empty args should leave the target untouched")
	}
}

func TestCtxValues(t *testing.T) {
	c := &Ctx{event: &protocol.Event{Name: "x"}}

	type key struct{}
	if c.Value(key{}) != nil {
		t.Error("unset value should be nil")
	}
	c.SetValue(key{}, "hello")
	if c.Value(key{}) != "hello" {
		t.Error("stored value not returned")
	}
}

func TestCtxWithStdContext(t *testing.T) {
	c := &Ctx{event: &protocol.Event{Name: "x"}, std: context.Background()}

	type key struct{}
	c.WithStdContext(context.WithValue(context.Background(), key{}, "v"))
	if c.StdContext().Value(key{}) != "v" {
		t.Error("replaced context not visible")
	}
}
