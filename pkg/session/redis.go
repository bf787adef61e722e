package session

import (
	"context"
	"errors"
	"time"
)

// RedisClient is the subset of Redis operations the store needs.
// It is satisfied by *redis.Client from github.com/redis/go-redis/v9
// through a thin adapter, and by test fakes directly.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) RedisStatusCmd
	Get(ctx context.Context, key string) RedisStringCmd
	Del(ctx context.Context, keys ...string) RedisIntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) RedisBoolCmd
	Pipeline() RedisPipeliner
	Close() error
}

// RedisStatusCmd is the result of a status-returning command.
type RedisStatusCmd interface {
	Err() error
}

// RedisStringCmd is the result of a string-returning command.
type RedisStringCmd interface {
	Bytes() ([]byte, error)
	Err() error
}

// RedisIntCmd is the result of an int-returning command.
type RedisIntCmd interface {
	Err() error
}

// RedisBoolCmd is the result of a bool-returning command.
type RedisBoolCmd interface {
	Err() error
}

// RedisPipeliner batches commands into one round trip.
type RedisPipeliner interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) RedisStatusCmd
	Exec(ctx context.Context) ([]interface{}, error)
}

// ErrRedisNil mirrors redis.Nil from go-redis: the key does not exist.
var ErrRedisNil = errors.New("redis: nil")

// RedisStore persists snapshots in Redis with native TTL expiration.
// Suitable for multi-server deployments with shared session state.
type RedisStore struct {
	client RedisClient
	prefix string
	closed bool
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*redisStoreConfig)

type redisStoreConfig struct {
	prefix string
}

// WithRedisPrefix sets the key prefix. Default: "relight:session:".
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(c *redisStoreConfig) {
		c.prefix = prefix
	}
}

// NewRedisStore creates a Redis-backed snapshot store.
func NewRedisStore(client RedisClient, opts ...RedisStoreOption) *RedisStore {
	cfg := &redisStoreConfig{prefix: "relight:session:"}
	for _, opt := range opts {
		opt(cfg)
	}
	return &RedisStore{client: client, prefix: cfg.prefix}
}

func (r *RedisStore) key(sessionID string) string {
	return r.prefix + sessionID
}

// Save stores a snapshot with a TTL derived from expiresAt.
// An already-expired deadline deletes the key instead.
func (r *RedisStore) Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error {
	if r.closed {
		return ErrStoreClosed{}
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, sessionID)
	}
	return r.client.Set(ctx, r.key(sessionID), data, ttl).Err()
}

// Load returns a snapshot, or (nil, nil) when the key is absent.
func (r *RedisStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if r.closed {
		return nil, ErrStoreClosed{}
	}

	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		if err.Error() == ErrRedisNil.Error() {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Delete removes a snapshot key.
func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if r.closed {
		return ErrStoreClosed{}
	}
	return r.client.Del(ctx, r.key(sessionID)).Err()
}

// Touch resets the key's TTL without rewriting the value.
func (r *RedisStore) Touch(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if r.closed {
		return ErrStoreClosed{}
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, sessionID)
	}
	return r.client.Expire(ctx, r.key(sessionID), ttl).Err()
}

// SaveAll stores multiple snapshots through a pipeline.
func (r *RedisStore) SaveAll(ctx context.Context, sessions map[string]Record) error {
	if r.closed {
		return ErrStoreClosed{}
	}
	if len(sessions) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for id, rec := range sessions {
		if ttl := time.Until(rec.ExpiresAt); ttl > 0 {
			pipe.Set(ctx, r.key(id), rec.Data, ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Close marks the store closed. The Redis client is left open; it may be
// shared with other components.
func (r *RedisStore) Close() error {
	r.closed = true
	return nil
}

// Prefix returns the configured key prefix.
func (r *RedisStore) Prefix() string {
	return r.prefix
}
