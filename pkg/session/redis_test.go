package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeStatusCmd struct{ err error }

func (c fakeStatusCmd) Err() error { return c.err }

type fakeStringCmd struct {
	data []byte
	err  error
}

func (c fakeStringCmd) Bytes() ([]byte, error) { return c.data, c.err }
func (c fakeStringCmd) Err() error             { return c.err }

type fakeIntCmd struct{ err error }

func (c fakeIntCmd) Err() error { return c.err }

type fakeBoolCmd struct{ err error }

func (c fakeBoolCmd) Err() error { return c.err }

type fakeSetCall struct {
	key string
	ttl time.Duration
}

type fakePipeline struct {
	mu   sync.Mutex
	sets []fakeSetCall
}

func (p *fakePipeline) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) RedisStatusCmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets = append(p.sets, fakeSetCall{key: key, ttl: ttl})
	return fakeStatusCmd{}
}

func (p *fakePipeline) Exec(ctx context.Context) ([]interface{}, error) {
	return nil, nil
}

type fakeRedisClient struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    []fakeSetCall
	expires map[string]time.Duration
	pipe    *fakePipeline
}

func newFakeRedisClient() *fakeRedisClient {
	return &fakeRedisClient{
		data:    make(map[string][]byte),
		expires: make(map[string]time.Duration),
		pipe:    &fakePipeline{},
	}
}

func (c *fakeRedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) RedisStatusCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value.([]byte)
	c.sets = append(c.sets, fakeSetCall{key: key, ttl: ttl})
	return fakeStatusCmd{}
}

func (c *fakeRedisClient) Get(ctx context.Context, key string) RedisStringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	if !ok {
		return fakeStringCmd{err: errors.New("redis: nil")}
	}
	return fakeStringCmd{data: data}
}

func (c *fakeRedisClient) Del(ctx context.Context, keys ...string) RedisIntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return fakeIntCmd{}
}

func (c *fakeRedisClient) Expire(ctx context.Context, key string, ttl time.Duration) RedisBoolCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires[key] = ttl
	return fakeBoolCmd{}
}

func (c *fakeRedisClient) Pipeline() RedisPipeliner { return c.pipe }
func (c *fakeRedisClient) Close() error             { return nil }

func TestRedisStoreSaveLoad(t *testing.T) {
	client := newFakeRedisClient()
	store := NewRedisStore(client)
	ctx := context.Background()

	err := store.Save(ctx, "s1", []byte("snap"), time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Keys carry the configured prefix.
	if _, ok := client.data["relight:session:s1"]; !ok {
		t.Errorf("expected prefixed key, have %v", client.data)
	}

	data, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "snap" {
		t.Errorf("loaded %q", data)
	}
}

func TestRedisStoreLoadMissing(t *testing.T) {
	store := NewRedisStore(newFakeRedisClient())

	data, err := store.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil for missing key, got %q", data)
	}
}

func TestRedisStoreSaveExpiredDeletes(t *testing.T) {
	client := newFakeRedisClient()
	store := NewRedisStore(client)
	ctx := context.Background()

	store.Save(ctx, "s1", []byte("snap"), time.Now().Add(time.Minute))
	// A deadline in the past turns the save into a delete.
	store.Save(ctx, "s1", []byte("snap"), time.Now().Add(-time.Second))

	if data, _ := store.Load(ctx, "s1"); data != nil {
		t.Error("expected key to be deleted")
	}
}

func TestRedisStoreTouch(t *testing.T) {
	client := newFakeRedisClient()
	store := NewRedisStore(client)
	ctx := context.Background()

	store.Save(ctx, "s1", []byte("snap"), time.Now().Add(time.Minute))
	if err := store.Touch(ctx, "s1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	ttl, ok := client.expires["relight:session:s1"]
	if !ok {
		t.Fatal("Touch did not issue EXPIRE")
	}
	if ttl < 59*time.Minute {
		t.Errorf("ttl = %v, expected close to an hour", ttl)
	}
}

func TestRedisStoreSaveAllPipelined(t *testing.T) {
	client := newFakeRedisClient()
	store := NewRedisStore(client)

	expires := time.Now().Add(time.Minute)
	err := store.SaveAll(context.Background(), map[string]Record{
		"a":       {Data: []byte("1"), ExpiresAt: expires},
		"b":       {Data: []byte("2"), ExpiresAt: expires},
		"expired": {Data: []byte("3"), ExpiresAt: time.Now().Add(-time.Second)},
	})
	if err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	// Expired records are skipped, the rest go through the pipeline.
	if len(client.pipe.sets) != 2 {
		t.Errorf("pipeline sets = %d, want 2", len(client.pipe.sets))
	}
}

func TestRedisStoreCustomPrefix(t *testing.T) {
	client := newFakeRedisClient()
	store := NewRedisStore(client, WithRedisPrefix("app:"))

	store.Save(context.Background(), "s1", []byte("x"), time.Now().Add(time.Minute))
	if _, ok := client.data["app:s1"]; !ok {
		t.Errorf("expected custom prefix, have %v", client.data)
	}
}

func TestRedisStoreClosed(t *testing.T) {
	store := NewRedisStore(newFakeRedisClient())
	store.Close()

	if err := store.Save(context.Background(), "s1", nil, time.Now()); err == nil {
		t.Error("expected error on closed store")
	}
}
