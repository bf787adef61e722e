package server

import (
	"errors"
	"testing"
	"time"

	"github.com/relight-dev/relight/pkg/hooks"
	"github.com/relight-dev/relight/pkg/protocol"
	"github.com/relight-dev/relight/pkg/session"
)

func testServerConfig() *Config {
	return &Config{
		Manager: session.ManagerConfig{
			MaxDetached:   100,
			MaxPerIP:      10,
			ResumeWindow:  time.Minute,
			SweepInterval: time.Hour,
		},
	}
}

// counterApp registers an "increment" handler and renders the count.
func counterApp() hooks.Component {
	return hooks.Func(func() any {
		count, setCount := hooks.UseState(0)
		UseHandler("increment", func(ctx *Ctx) error {
			setCount(count + 1)
			return nil
		})
		return map[string]any{"count": count}
	})
}

func newTestServer(t *testing.T, comp func() hooks.Component) *Server {
	t.Helper()
	srv := New(testServerConfig())
	srv.SetRoot(comp)
	return srv
}

func viewCount(t *testing.T, s *Session) int {
	t.Helper()
	view, ok := s.root.View().(map[string]any)
	if !ok {
		t.Fatalf("view type %T, want map", s.root.View())
	}
	count, ok := view["count"].(int)
	if !ok {
		t.Fatalf("count type %T, want int", view["count"])
	}
	return count
}

func TestSessionCreateMounts(t *testing.T) {
	srv := newTestServer(t, counterApp)

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID == "" {
		t.Fatal("session has no ID")
	}
	if got := viewCount(t, s); got != 0 {
		t.Errorf("initial count = %d, want 0", got)
	}
	if srv.sessions.count() != 1 {
		t.Errorf("count = %d, want 1", srv.sessions.count())
	}
}

func TestSessionHandleEvent(t *testing.T) {
	srv := newTestServer(t, counterApp)

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	s.handleEvent(&protocol.Event{Seq: 1, Name: "increment"})
	s.flushAndSend()

	if got := viewCount(t, s); got != 1 {
		t.Errorf("count after event = %d, want 1", got)
	}

	s.handleEvent(&protocol.Event{Seq: 2, Name: "increment"})
	s.flushAndSend()

	if got := viewCount(t, s); got != 2 {
		t.Errorf("count after second event = %d, want 2", got)
	}
}

func TestSessionHandlerNotFound(t *testing.T) {
	srv := newTestServer(t, counterApp)

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = s.invoke(&protocol.Event{Name: "nope"}, s.ctx)
	if !errors.Is(err, ErrHandlerNotFound) {
		t.Fatalf("err = %v, want ErrHandlerNotFound", err)
	}
}

func TestSessionServerHandlerFallback(t *testing.T) {
	srv := newTestServer(t, counterApp)
	called := false
	srv.Handle("global", func(ctx *Ctx) error {
		called = true
		return nil
	})

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.invoke(&protocol.Event{Name: "global"}, s.ctx); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !called {
		t.Fatal("server-level handler not invoked")
	}
}

func TestSessionHandlerPanicRecovered(t *testing.T) {
	srv := newTestServer(t, counterApp)
	srv.Handle("explode", func(ctx *Ctx) error {
		panic("kaboom")
	})

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = s.invoke(&protocol.Event{Name: "explode"}, s.ctx)
	var pe *HandlerPanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *HandlerPanicError", err)
	}
	if pe.Event != "explode" || pe.Value != "kaboom" {
		t.Errorf("panic error = %+v", pe)
	}
}

func TestSessionMiddlewareRunsAroundHandler(t *testing.T) {
	srv := newTestServer(t, counterApp)

	var order []string
	srv.Use(func(ctx *Ctx, next func() error) error {
		order = append(order, "before:"+ctx.EventName())
		err := next()
		order = append(order, "after")
		return err
	})
	srv.Handle("noop", func(ctx *Ctx) error {
		order = append(order, "handler")
		return nil
	})

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.invoke(&protocol.Event{Name: "noop"}, s.ctx); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	want := []string{"before:noop", "handler", "after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestSessionValues(t *testing.T) {
	srv := newTestServer(t, counterApp)
	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Set("user", "alice"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var user string
	ok, err := s.Get("user", &user)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if user != "alice" {
		t.Errorf("user = %q, want alice", user)
	}

	s.Delete("user")
	if ok, _ := s.Get("user", &user); ok {
		t.Error("deleted key still present")
	}
}

func TestSessionSnapshotRestore(t *testing.T) {
	srv := newTestServer(t, counterApp)
	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s.Set("theme", "dark")

	data, err := s.snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	snap, err := session.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.ID != s.ID {
		t.Errorf("snapshot ID = %q, want %q", snap.ID, s.ID)
	}

	restored := newSession(srv, s.ID, counterApp())
	restored.restore(snap)

	var theme string
	ok, err := restored.Get("theme", &theme)
	if err != nil || !ok || theme != "dark" {
		t.Errorf("restored theme = %q ok=%v err=%v, want dark", theme, ok, err)
	}
	if restored.CreatedAt != snap.CreatedAt {
		t.Error("CreatedAt not restored")
	}
}

func TestCtxDispatchNested(t *testing.T) {
	srv := newTestServer(t, counterApp)
	srv.Handle("inner", func(ctx *Ctx) error {
		var name string
		if err := ctx.BindArgs(&name); err != nil {
			return err
		}
		return ctx.Session().Set("greeted", name)
	})
	srv.Handle("outer", func(ctx *Ctx) error {
		return ctx.Dispatch("inner", "bob")
	})

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.invoke(&protocol.Event{Name: "outer"}, s.ctx); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	var greeted string
	if ok, _ := s.Get("greeted", &greeted); !ok || greeted != "bob" {
		t.Errorf("greeted = %q, want bob", greeted)
	}
}

func TestSessionCloseCancelsContext(t *testing.T) {
	srv := newTestServer(t, counterApp)
	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	srv.sessions.close(s.ID)

	if !s.IsClosed() {
		t.Error("session not marked closed")
	}
	select {
	case <-s.Context().Done():
	default:
		t.Error("session context not canceled")
	}
	if srv.sessions.get(s.ID) != nil {
		t.Error("closed session still in manager")
	}
}

func TestUseSessionOutsideServer(t *testing.T) {
	var got *Session
	root := hooks.NewRoot(hooks.Func(func() any {
		got = UseSession()
		return nil
	}))
	if _, err := root.Mount(); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if got != nil {
		t.Error("UseSession outside a server should be nil")
	}
}
