package server

import (
	"context"
	"errors"
	"testing"

	"github.com/relight-dev/relight/pkg/protocol"
	"github.com/relight-dev/relight/pkg/session"
)

func TestManagerMaxSessions(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxSessions = 1
	srv := New(cfg)
	srv.SetRoot(counterApp)

	if _, err := srv.sessions.create("192.0.2.1"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := srv.sessions.create("192.0.2.2")
	if !errors.Is(err, ErrMaxSessionsReached) {
		t.Fatalf("err = %v, want ErrMaxSessionsReached", err)
	}
}

func TestManagerWarmResume(t *testing.T) {
	srv := newTestServer(t, counterApp)

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s.handleEvent(&protocol.Event{Seq: 1, Name: "increment"})
	s.flushAndSend()

	srv.sessions.detach(s)
	if !s.isDetached() {
		t.Fatal("session not detached")
	}

	resumed, warm, err := srv.sessions.resume(s.ID, "192.0.2.1")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !warm {
		t.Error("resume should be warm while the tree is mounted")
	}
	if resumed != s {
		t.Error("warm resume returned a different session object")
	}
	if got := viewCount(t, resumed); got != 1 {
		t.Errorf("count after warm resume = %d, want 1", got)
	}
}

func TestManagerColdResume(t *testing.T) {
	srv := newTestServer(t, counterApp)

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s.Set("theme", "dark")
	id := s.ID

	// Detach keeps the snapshot on the lifecycle entry. Dropping the live
	// object forces resume to rebuild the tree from that snapshot.
	srv.sessions.detach(s)

	srv.sessions.mu.Lock()
	delete(srv.sessions.sessions, id)
	srv.sessions.mu.Unlock()
	s.close()

	resumed, warm, err := srv.sessions.resume(id, "192.0.2.1")
	if err != nil {
		t.Fatalf("cold resume: %v", err)
	}
	if warm {
		t.Error("resume should be cold after the live object is gone")
	}
	if resumed.ID != id {
		t.Errorf("resumed ID = %q, want %q", resumed.ID, id)
	}

	var theme string
	if ok, _ := resumed.Get("theme", &theme); !ok || theme != "dark" {
		t.Errorf("theme = %q, want dark", theme)
	}
}

func TestManagerResumeNeverDetachedKeepsGauges(t *testing.T) {
	cfg := testServerConfig()
	cfg.EnableMetrics = true
	srv := New(cfg)
	srv.SetRoot(counterApp)

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A second hello can race a live connection: the session is resumed
	// without ever having been detached. The detached gauge must not go
	// negative.
	resumed, warm, err := srv.sessions.resume(s.ID, "192.0.2.1")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !warm || resumed != s {
		t.Fatal("expected a warm resume of the live session")
	}

	if got := gaugeValue(t, srv, "relight_server_sessions_detached"); got != 0 {
		t.Errorf("sessions_detached = %v, want 0", got)
	}
	if got := gaugeValue(t, srv, "relight_server_sessions_active"); got != 1 {
		t.Errorf("sessions_active = %v, want 1", got)
	}
}

func TestManagerDetachResumeMovesGauges(t *testing.T) {
	cfg := testServerConfig()
	cfg.EnableMetrics = true
	srv := New(cfg)
	srv.SetRoot(counterApp)

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	srv.sessions.detach(s)
	if got := gaugeValue(t, srv, "relight_server_sessions_detached"); got != 1 {
		t.Errorf("sessions_detached after detach = %v, want 1", got)
	}
	if got := gaugeValue(t, srv, "relight_server_sessions_active"); got != 0 {
		t.Errorf("sessions_active after detach = %v, want 0", got)
	}

	if _, _, err := srv.sessions.resume(s.ID, "192.0.2.1"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := gaugeValue(t, srv, "relight_server_sessions_detached"); got != 0 {
		t.Errorf("sessions_detached after resume = %v, want 0", got)
	}
	if got := gaugeValue(t, srv, "relight_server_sessions_active"); got != 1 {
		t.Errorf("sessions_active after resume = %v, want 1", got)
	}
}

func gaugeValue(t *testing.T, srv *Server, name string) float64 {
	t.Helper()
	families, err := srv.metricsReg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestManagerResumeUnknown(t *testing.T) {
	srv := newTestServer(t, counterApp)

	_, _, err := srv.sessions.resume("nope", "192.0.2.1")
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerResumeAfterClose(t *testing.T) {
	srv := newTestServer(t, counterApp)

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	srv.sessions.close(s.ID)

	_, _, err = srv.sessions.resume(s.ID, "192.0.2.1")
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerReconcileDropsEvicted(t *testing.T) {
	srv := newTestServer(t, counterApp)

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Simulate lifecycle eviction without going through close.
	srv.sessions.mgr.Remove(s.ID)
	srv.sessions.reconcile()

	if srv.sessions.get(s.ID) != nil {
		t.Error("evicted session still tracked")
	}
	if !s.IsClosed() {
		t.Error("evicted session not closed")
	}
}

func TestManagerShutdownPersistsSessions(t *testing.T) {
	store := session.NewMemoryStore()
	defer store.Close()

	cfg := testServerConfig()
	cfg.Store = store
	srv := New(cfg)
	srv.SetRoot(counterApp)

	s, err := srv.sessions.create("192.0.2.1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s.Set("k", "v")
	id := s.ID

	if err := srv.sessions.shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	data, err := store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if data == nil {
		t.Fatal("session not persisted on shutdown")
	}

	snap, err := session.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(snap.Values["k"]) != `"v"` {
		t.Errorf("persisted value = %s, want \"v\"", snap.Values["k"])
	}
	if !s.IsClosed() {
		t.Error("session not closed after shutdown")
	}
}
