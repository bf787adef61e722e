package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotVersion is the current snapshot format version.
// Increment on breaking changes to the format.
const SnapshotVersion = 1

// Snapshot is the JSON-encodable state of a detached session.
//
// It carries what is needed to resume the client's view of a session, not
// the component tree itself: the tree is rebuilt by mounting the root
// component again, and Values reseeds its context providers. Hook slot
// contents are deliberately not persisted; they are rebuilt from initial
// values on remount.
type Snapshot struct {
	// ID is the session identifier.
	ID string `json:"id"`

	// CreatedAt is when the session was first established.
	CreatedAt time.Time `json:"created_at"`

	// LastActive is the time of the last handled event.
	LastActive time.Time `json:"last_active"`

	// Values holds application data set via the session context,
	// keyed by name.
	Values map[string]json.RawMessage `json:"values,omitempty"`

	// View is the last committed view, JSON-encoded.
	View json.RawMessage `json:"view,omitempty"`

	// ViewSeq is the sequence number of View.
	ViewSeq uint64 `json:"view_seq"`

	// Version is the snapshot format version.
	Version int `json:"version"`
}

// EncodeSnapshot converts a Snapshot to bytes, stamping the current
// format version.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	s.Version = SnapshotVersion
	return json.Marshal(s)
}

// DecodeSnapshot converts bytes back to a Snapshot. Snapshots from a
// newer format version are rejected.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Version > SnapshotVersion {
		return nil, fmt.Errorf("session: unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}
