package session

import (
	"context"
	"time"
)

// Store is the contract for session persistence backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save persists a session snapshot, overwriting any existing one.
	// The snapshot expires and becomes unloadable at expiresAt.
	Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error

	// Load retrieves a snapshot by session ID.
	// Returns (nil, nil) when the session does not exist or has expired.
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Touch extends a session's expiration without rewriting its data.
	// Touching a missing session is not an error.
	Touch(ctx context.Context, sessionID string, expiresAt time.Time) error

	// SaveAll persists multiple snapshots, atomically where the backend
	// allows. Used on graceful shutdown.
	SaveAll(ctx context.Context, sessions map[string]Record) error

	// Close releases resources held by the store.
	Close() error
}

// Record is a snapshot queued for persistence.
type Record struct {
	// Data is the encoded session snapshot.
	Data []byte

	// ExpiresAt is when the snapshot stops being loadable.
	ExpiresAt time.Time
}

// NotFoundError is returned by backends that need an explicit error for
// a missing session. Load itself reports absence as (nil, nil).
type NotFoundError struct {
	SessionID string
}

func (e NotFoundError) Error() string {
	return "session not found: " + e.SessionID
}

// ErrStoreClosed is returned for operations on a closed store.
type ErrStoreClosed struct{}

func (e ErrStoreClosed) Error() string {
	return "session store is closed"
}
