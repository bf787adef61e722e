package session

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestMemoryStoreSaveLoad(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	err := store.Save(ctx, "s1", []byte("snapshot"), time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(data, []byte("snapshot")) {
		t.Errorf("loaded %q", data)
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	data, err := store.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil for missing session, got %q", data)
	}
}

func TestMemoryStoreExpired(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	store.Save(ctx, "s1", []byte("old"), time.Now().Add(-time.Second))

	data, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if data != nil {
		t.Error("expected expired session to be unloadable")
	}
}

func TestMemoryStoreTouchExtends(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	store.Save(ctx, "s1", []byte("x"), time.Now().Add(10*time.Millisecond))
	store.Touch(ctx, "s1", time.Now().Add(time.Hour))

	time.Sleep(20 * time.Millisecond)

	data, _ := store.Load(ctx, "s1")
	if data == nil {
		t.Error("expected touched session to remain loadable")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	store.Save(ctx, "s1", []byte("x"), time.Now().Add(time.Minute))
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if data, _ := store.Load(ctx, "s1"); data != nil {
		t.Error("session still loadable after delete")
	}

	// Deleting a missing session is fine.
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Errorf("second delete returned %v", err)
	}
}

func TestMemoryStoreSaveAll(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	expires := time.Now().Add(time.Minute)
	err := store.SaveAll(ctx, map[string]Record{
		"a": {Data: []byte("1"), ExpiresAt: expires},
		"b": {Data: []byte("2"), ExpiresAt: expires},
	})
	if err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	if store.Count() != 2 {
		t.Errorf("count = %d, want 2", store.Count())
	}
}

func TestMemoryStoreDataCopied(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	buf := []byte("original")
	store.Save(ctx, "s1", buf, time.Now().Add(time.Minute))
	copy(buf, "mutated!")

	data, _ := store.Load(ctx, "s1")
	if !bytes.Equal(data, []byte("original")) {
		t.Errorf("store aliased caller buffer: %q", data)
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	store := NewMemoryStore()
	store.Close()
	ctx := context.Background()

	if err := store.Save(ctx, "s1", nil, time.Now()); err == nil {
		t.Error("expected error saving to closed store")
	}
	if _, err := store.Load(ctx, "s1"); err == nil {
		t.Error("expected error loading from closed store")
	}

	// Close is idempotent.
	if err := store.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore(WithSweepInterval(5 * time.Millisecond))
	defer store.Close()
	ctx := context.Background()

	store.Save(ctx, "live", []byte("x"), time.Now().Add(time.Hour))
	store.Save(ctx, "dead", []byte("y"), time.Now().Add(-time.Second))

	deadline := time.Now().Add(time.Second)
	for store.Count() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Count() != 1 {
		t.Errorf("count = %d after sweep, want 1", store.Count())
	}
}
