// Package session provides persistence and lifecycle management for
// live component sessions.
//
// A session is the server-side state of one connected client: the mounted
// component tree, its context values, and the last committed view. When a
// client disconnects, the session is snapshotted and kept resumable for a
// configurable window.
//
// # Storage backends
//
// The Store interface defines the persistence contract:
//
//	store := session.NewMemoryStore()          // default, single server
//	store := session.NewSQLStore(db)           // any database/sql driver
//	store := session.NewRedisStore(client)     // shared across servers
//	store := session.NewS3Store(s3client, "b") // cold storage
//
// # Memory protection
//
// The Manager bounds detached-session memory with LRU eviction and
// per-IP session limits.
package session
