package session

import (
	"container/list"
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Manager tracks live and detached sessions and bounds the memory they
// hold. Detached sessions sit in an LRU queue and are evicted when the
// configured limit is exceeded; per-IP counts guard against a single
// client opening unbounded sessions.
type Manager struct {
	mu sync.RWMutex

	sessions map[string]*Entry

	// Detached sessions, front = most recently detached or touched.
	detachedQueue *list.List
	detachedIndex map[string]*list.Element

	byIP map[string]int

	config ManagerConfig
	store  Store
	logger *slog.Logger

	// Overrideable for deterministic eviction tests.
	randIntN func(n int) int

	done    chan struct{}
	stopped bool
}

// Entry is a session known to the manager.
type Entry struct {
	// ID is the session identifier.
	ID string

	// IP is the client address used for per-IP limiting.
	IP string

	// CreatedAt is when the session was established.
	CreatedAt time.Time

	// LastActive is the time of the last event or reconnect.
	LastActive time.Time

	// DetachedAt is when the client disconnected; zero while connected.
	DetachedAt time.Time

	// Snapshot is the encoded session snapshot, set while detached.
	Snapshot []byte

	// Connected reports whether the client holds a live connection.
	Connected bool
}

// ManagerConfig configures the session manager.
type ManagerConfig struct {
	// MaxDetached is the detached-session count that triggers eviction.
	// Default: 10000.
	MaxDetached int

	// MaxPerIP caps concurrent sessions per client IP. Zero disables
	// the check. Default: 100.
	MaxPerIP int

	// ResumeWindow is how long a detached session stays resumable.
	// Default: 5 minutes.
	ResumeWindow time.Duration

	// SweepInterval is how often expired detached sessions are removed.
	// Default: 1 minute.
	SweepInterval time.Duration

	// Eviction selects which detached session goes first when
	// MaxDetached is exceeded. Default: EvictLRU.
	Eviction EvictionPolicy
}

// EvictionPolicy selects the victim when the detached limit is exceeded.
type EvictionPolicy int

const (
	// EvictLRU removes the least recently touched detached session.
	EvictLRU EvictionPolicy = iota

	// EvictOldest removes the detached session with the earliest
	// creation time.
	EvictOldest

	// EvictRandom removes a random detached session.
	EvictRandom
)

// DefaultManagerConfig returns the default manager limits.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxDetached:   10000,
		MaxPerIP:      100,
		ResumeWindow:  5 * time.Minute,
		SweepInterval: time.Minute,
		Eviction:      EvictLRU,
	}
}

// Manager errors.
var (
	ErrTooManySessionsFromIP = errors.New("too many sessions from this IP address")
	ErrSessionExpired        = errors.New("session has expired")
	ErrSessionNotFound       = errors.New("session not found")
	ErrManagerStopped        = errors.New("session manager is stopped")
)

// NewManager creates a session manager backed by the given store.
// A nil store disables persistence; detached sessions then live only
// in memory.
func NewManager(store Store, config ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		sessions:      make(map[string]*Entry),
		detachedQueue: list.New(),
		detachedIndex: make(map[string]*list.Element),
		byIP:          make(map[string]int),
		config:        config,
		store:         store,
		logger:        logger.With("component", "session_manager"),
		randIntN:      rand.IntN,
		done:          make(chan struct{}),
	}

	go m.sweepLoop()
	return m
}

// CheckIPLimit reports whether ip may open another session.
func (m *Manager) CheckIPLimit(ip string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.stopped {
		return ErrManagerStopped
	}
	if m.config.MaxPerIP > 0 && m.byIP[ip] >= m.config.MaxPerIP {
		return ErrTooManySessionsFromIP
	}
	return nil
}

// Register adds a new session and marks it connected.
func (m *Manager) Register(e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrManagerStopped
	}
	if m.config.MaxPerIP > 0 && m.byIP[e.IP] >= m.config.MaxPerIP {
		return ErrTooManySessionsFromIP
	}

	m.sessions[e.ID] = e
	m.byIP[e.IP]++
	e.Connected = true
	e.LastActive = time.Now()

	m.logger.Debug("session registered",
		"session_id", e.ID,
		"ip", e.IP,
		"ip_session_count", m.byIP[e.IP])
	return nil
}

// Detach records a disconnect. The snapshot is held for resume within
// ResumeWindow and persisted to the store in the background.
func (m *Manager) Detach(sessionID string, snapshot []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok || m.stopped {
		return
	}

	now := time.Now()
	e.Connected = false
	e.DetachedAt = now
	e.Snapshot = snapshot

	// At most one queue entry per session.
	if elem, ok := m.detachedIndex[sessionID]; ok {
		m.detachedQueue.Remove(elem)
		delete(m.detachedIndex, sessionID)
	}
	m.detachedIndex[sessionID] = m.detachedQueue.PushFront(sessionID)

	for m.detachedQueue.Len() > m.config.MaxDetached {
		m.evictOneLocked()
	}

	if m.store != nil && len(snapshot) > 0 {
		expiresAt := now.Add(m.config.ResumeWindow)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.store.Save(ctx, sessionID, snapshot, expiresAt); err != nil {
				m.logger.Warn("failed to persist detached session",
					"session_id", sessionID,
					"error", err)
			}
		}()
	}

	m.logger.Debug("session detached",
		"session_id", sessionID,
		"detached_count", m.detachedQueue.Len())
}

// Resume reattaches a detached session. When the session is gone from
// memory but present in the store, the raw snapshot is returned with a
// nil Entry and the caller rebuilds the session from it.
func (m *Manager) Resume(sessionID string) (*Entry, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil, nil, ErrManagerStopped
	}

	e, ok := m.sessions[sessionID]
	if !ok {
		if m.store != nil {
			data, err := m.store.Load(context.Background(), sessionID)
			if err != nil {
				return nil, nil, err
			}
			if data != nil {
				return nil, data, nil
			}
		}
		return nil, nil, ErrSessionNotFound
	}

	if !e.DetachedAt.IsZero() && time.Since(e.DetachedAt) > m.config.ResumeWindow {
		m.removeLocked(sessionID)
		return nil, nil, ErrSessionExpired
	}

	if elem, ok := m.detachedIndex[sessionID]; ok {
		m.detachedQueue.Remove(elem)
		delete(m.detachedIndex, sessionID)
	}

	e.Connected = true
	e.DetachedAt = time.Time{}
	e.LastActive = time.Now()
	snapshot := e.Snapshot
	e.Snapshot = nil

	m.logger.Debug("session resumed",
		"session_id", sessionID,
		"detached_count", m.detachedQueue.Len())
	return e, snapshot, nil
}

// Get returns the entry for sessionID, or nil.
func (m *Manager) Get(sessionID string) *Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sessionID]
}

// Touch refreshes a session's activity time and LRU position.
func (m *Manager) Touch(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[sessionID]; ok {
		e.LastActive = time.Now()
		if elem, ok := m.detachedIndex[sessionID]; ok {
			m.detachedQueue.MoveToFront(elem)
		}
	}
}

// Remove drops a session entirely, including its stored snapshot.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(sessionID)
}

func (m *Manager) removeLocked(sessionID string) {
	e, ok := m.sessions[sessionID]
	if !ok {
		return
	}

	delete(m.sessions, sessionID)
	m.byIP[e.IP]--
	if m.byIP[e.IP] <= 0 {
		delete(m.byIP, e.IP)
	}

	if elem, ok := m.detachedIndex[sessionID]; ok {
		m.detachedQueue.Remove(elem)
		delete(m.detachedIndex, sessionID)
	}

	if m.store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			m.store.Delete(ctx, sessionID)
		}()
	}

	m.logger.Debug("session removed",
		"session_id", sessionID,
		"remaining", len(m.sessions))
}

func (m *Manager) evictOneLocked() {
	if m.detachedQueue.Len() == 0 {
		return
	}

	var sessionID string

	switch m.config.Eviction {
	case EvictOldest:
		var oldest time.Time
		for elem := m.detachedQueue.Front(); elem != nil; elem = elem.Next() {
			id := elem.Value.(string)
			e := m.sessions[id]
			if e == nil {
				continue
			}
			if sessionID == "" || e.CreatedAt.Before(oldest) {
				sessionID = id
				oldest = e.CreatedAt
			}
		}
		if sessionID == "" {
			sessionID = m.detachedQueue.Back().Value.(string)
		}
	case EvictRandom:
		idx := m.randIntN(m.detachedQueue.Len())
		elem := m.detachedQueue.Front()
		for i := 0; i < idx && elem != nil; i++ {
			elem = elem.Next()
		}
		if elem == nil {
			elem = m.detachedQueue.Back()
		}
		sessionID = elem.Value.(string)
	default:
		// LRU: least recently touched is at the back.
		sessionID = m.detachedQueue.Back().Value.(string)
	}

	// Persist the victim before dropping it so it stays resumable.
	e := m.sessions[sessionID]
	if m.store != nil && e != nil && len(e.Snapshot) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = m.store.Save(ctx, sessionID, e.Snapshot, time.Now().Add(m.config.ResumeWindow))
		cancel()
	}

	m.removeLocked(sessionID)

	m.logger.Debug("evicted detached session",
		"session_id", sessionID,
		"policy", m.config.Eviction)
}

func (m *Manager) sweepLoop() {
	interval := m.config.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweepExpired()
		case <-m.done:
			return
		}
	}
}

func (m *Manager) sweepExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}

	now := time.Now()
	var expired []string
	for id, e := range m.sessions {
		if e.DetachedAt.IsZero() {
			continue
		}
		if now.Sub(e.DetachedAt) > m.config.ResumeWindow {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		m.removeLocked(id)
	}

	if len(expired) > 0 {
		m.logger.Debug("swept expired sessions",
			"count", len(expired),
			"remaining", len(m.sessions))
	}
}

// Shutdown stops the manager and persists every held snapshot.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	close(m.done)

	toSave := make(map[string]Record)
	for id, e := range m.sessions {
		if len(e.Snapshot) > 0 {
			toSave[id] = Record{
				Data:      e.Snapshot,
				ExpiresAt: time.Now().Add(m.config.ResumeWindow),
			}
		}
	}
	m.mu.Unlock()

	if m.store != nil && len(toSave) > 0 {
		if err := m.store.SaveAll(ctx, toSave); err != nil {
			m.logger.Warn("failed to persist sessions on shutdown",
				"error", err,
				"count", len(toSave))
			return err
		}
		m.logger.Info("persisted sessions on shutdown", "count", len(toSave))
	}
	return nil
}

// Stats reports current session counts.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	connected := 0
	for _, e := range m.sessions {
		if e.Connected {
			connected++
		}
	}

	return Stats{
		Total:     len(m.sessions),
		Connected: connected,
		Detached:  m.detachedQueue.Len(),
		UniqueIPs: len(m.byIP),
	}
}

// Stats is a point-in-time view of manager state.
type Stats struct {
	Total     int // All tracked sessions
	Connected int // Sessions with a live connection
	Detached  int // Sessions awaiting resume
	UniqueIPs int // Distinct client addresses
}
