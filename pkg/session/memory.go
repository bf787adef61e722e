package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process memory. It is the default store
// and fits single-server deployments; use RedisStore or SQLStore when
// sessions must survive a restart or move between servers.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]*memoryItem
	closed bool
	done   chan struct{}
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*memoryStoreConfig)

type memoryStoreConfig struct {
	sweepInterval time.Duration
}

// WithSweepInterval sets how often expired snapshots are swept.
// Default: 1 minute.
func WithSweepInterval(d time.Duration) MemoryStoreOption {
	return func(c *memoryStoreConfig) {
		c.sweepInterval = d
	}
}

// NewMemoryStore creates an in-memory snapshot store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	cfg := &memoryStoreConfig{sweepInterval: time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &MemoryStore{
		items: make(map[string]*memoryItem),
		done:  make(chan struct{}),
	}
	go s.sweepLoop(cfg.sweepInterval)
	return s
}

// Save stores a snapshot, copying data so callers may reuse the slice.
func (s *MemoryStore) Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed{}
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	s.items[sessionID] = &memoryItem{data: dataCopy, expiresAt: expiresAt}
	return nil
}

// Load returns a copy of a snapshot, or (nil, nil) if missing or expired.
func (s *MemoryStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed{}
	}

	item, ok := s.items[sessionID]
	if !ok || time.Now().After(item.expiresAt) {
		return nil, nil
	}

	dataCopy := make([]byte, len(item.data))
	copy(dataCopy, item.data)
	return dataCopy, nil
}

// Delete removes a snapshot.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed{}
	}

	delete(s.items, sessionID)
	return nil
}

// Touch extends a snapshot's expiration.
func (s *MemoryStore) Touch(ctx context.Context, sessionID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed{}
	}

	if item, ok := s.items[sessionID]; ok {
		item.expiresAt = expiresAt
	}
	return nil
}

// SaveAll stores multiple snapshots under a single lock acquisition.
func (s *MemoryStore) SaveAll(ctx context.Context, sessions map[string]Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed{}
	}

	for id, rec := range sessions {
		dataCopy := make([]byte, len(rec.Data))
		copy(dataCopy, rec.Data)
		s.items[id] = &memoryItem{data: dataCopy, expiresAt: rec.ExpiresAt}
	}
	return nil
}

// Close stops the sweep loop and drops all snapshots.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	s.items = nil
	return nil
}

// Count reports the number of stored snapshots, for monitoring and tests.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	now := time.Now()
	for id, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, id)
		}
	}
}
