package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relight-dev/relight/pkg/session"
)

// SessionManager owns the live Session objects and delegates lifecycle
// accounting (limits, LRU eviction, persistence) to session.Manager.
// Detached sessions keep their component tree mounted so a resume within
// the window is instant; cold resumes rebuild the tree from a snapshot.
type SessionManager struct {
	srv *Server
	mgr *session.Manager

	mu       sync.RWMutex
	sessions map[string]*Session

	totalCreated int64

	done   chan struct{}
	logger *slog.Logger
}

func newSessionManager(srv *Server, store session.Store, cfg session.ManagerConfig, logger *slog.Logger) *SessionManager {
	sm := &SessionManager{
		srv:      srv,
		mgr:      session.NewManager(store, cfg, logger),
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
		logger:   logger.With("component", "sessions"),
	}
	go sm.reconcileLoop(cfg.SweepInterval)
	return sm
}

// create builds, registers, and mounts a new session.
func (sm *SessionManager) create(ip string) (*Session, error) {
	sm.mu.Lock()
	if max := sm.srv.config.MaxSessions; max > 0 && len(sm.sessions) >= max {
		sm.mu.Unlock()
		return nil, ErrMaxSessionsReached
	}
	sm.mu.Unlock()

	id := uuid.NewString()
	if err := sm.mgr.Register(&session.Entry{ID: id, IP: ip, CreatedAt: time.Now()}); err != nil {
		return nil, err
	}

	s := newSession(sm.srv, id, sm.srv.rootComp())
	if err := s.mount(); err != nil {
		sm.mgr.Remove(id)
		s.close()
		return nil, err
	}

	sm.mu.Lock()
	sm.sessions[id] = s
	sm.totalCreated++
	sm.mu.Unlock()

	sm.srv.metrics.sessionCreated()
	return s, nil
}

// resume reattaches a detached session. The bool reports whether the
// resume was warm (tree still mounted) as opposed to rebuilt from a
// snapshot.
func (sm *SessionManager) resume(id, ip string) (*Session, bool, error) {
	entry, snap, err := sm.mgr.Resume(id)
	if err != nil {
		return nil, false, err
	}

	if entry != nil {
		sm.mu.RLock()
		s := sm.sessions[id]
		sm.mu.RUnlock()
		if s != nil && !s.IsClosed() {
			sm.srv.metrics.sessionResumed(s.isDetached())
			return s, true, nil
		}
		// Entry without a live session should not happen; fall through
		// to a cold resume if a snapshot survived.
		sm.mgr.Remove(id)
		if snap == nil {
			return nil, false, session.ErrSessionNotFound
		}
	}

	decoded, err := session.DecodeSnapshot(snap)
	if err != nil {
		return nil, false, err
	}

	if err := sm.mgr.Register(&session.Entry{ID: id, IP: ip, CreatedAt: decoded.CreatedAt}); err != nil {
		return nil, false, err
	}

	s := newSession(sm.srv, id, sm.srv.rootComp())
	s.restore(decoded)
	if err := s.mount(); err != nil {
		sm.mgr.Remove(id)
		s.close()
		return nil, false, err
	}

	sm.mu.Lock()
	sm.sessions[id] = s
	sm.mu.Unlock()

	sm.srv.metrics.sessionRebuilt()
	return s, false, nil
}

// detach snapshots a session after its connection dropped and hands the
// snapshot to the lifecycle manager.
func (sm *SessionManager) detach(s *Session) {
	if s.IsClosed() {
		return
	}
	s.detachConn()

	snap, err := s.snapshot()
	if err != nil {
		sm.logger.Warn("session snapshot failed", "session_id", s.ID, "error", err)
		snap = nil
	}
	sm.mgr.Detach(s.ID, snap)
	sm.srv.metrics.sessionDetached()
}

// touch refreshes lifecycle accounting for an active session.
func (sm *SessionManager) touch(id string) {
	sm.mgr.Touch(id)
}

// close removes a session permanently.
func (sm *SessionManager) close(id string) {
	sm.mu.Lock()
	s := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()

	if s != nil {
		wasDetached := s.isDetached()
		s.close()
		sm.srv.metrics.sessionClosed(wasDetached)
	}
	sm.mgr.Remove(id)
}

// get returns the live session for id, or nil.
func (sm *SessionManager) get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// count returns the number of live session objects.
func (sm *SessionManager) count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// reconcileLoop disposes session objects whose lifecycle entry has been
// evicted or expired by the manager.
func (sm *SessionManager) reconcileLoop(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-sm.done:
			return
		case <-ticker.C:
			sm.reconcile()
		}
	}
}

func (sm *SessionManager) reconcile() {
	sm.mu.Lock()
	var orphans []*Session
	for id, s := range sm.sessions {
		if sm.mgr.Get(id) == nil {
			orphans = append(orphans, s)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, s := range orphans {
		wasDetached := s.isDetached()
		s.close()
		sm.srv.metrics.sessionClosed(wasDetached)
	}
	if len(orphans) > 0 {
		sm.logger.Debug("reconciled evicted sessions", "count", len(orphans))
	}
}

// shutdown detaches every live session and persists all snapshots.
func (sm *SessionManager) shutdown(ctx context.Context) error {
	close(sm.done)

	sm.mu.Lock()
	all := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		all = append(all, s)
	}
	sm.mu.Unlock()

	for _, s := range all {
		sm.detach(s)
	}

	err := sm.mgr.Shutdown(ctx)

	for _, s := range all {
		s.close()
	}
	return err
}

// stats merges lifecycle stats with the live object count.
func (sm *SessionManager) stats() session.Stats {
	return sm.mgr.Stats()
}
