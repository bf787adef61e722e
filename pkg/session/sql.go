package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLStore persists snapshots through database/sql. It works with
// PostgreSQL, MySQL, and SQLite drivers. The expected schema is:
//
//	CREATE TABLE relight_sessions (
//	    id VARCHAR(64) PRIMARY KEY,
//	    data BYTEA NOT NULL,
//	    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
//	    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
//	);
//	CREATE INDEX idx_relight_sessions_expires ON relight_sessions(expires_at);
type SQLStore struct {
	db            *sql.DB
	table         string
	dialect       SQLDialect
	sweepInterval time.Duration
	closed        bool
	done          chan struct{}
}

// SQLDialect selects the placeholder and time syntax for generated queries.
type SQLDialect int

const (
	// DialectPostgreSQL uses $1, $2 placeholders and NOW().
	DialectPostgreSQL SQLDialect = iota
	// DialectMySQL uses ? placeholders and NOW().
	DialectMySQL
	// DialectSQLite uses ? placeholders and datetime('now').
	DialectSQLite
)

// SQLStoreOption configures an SQLStore.
type SQLStoreOption func(*sqlStoreConfig)

type sqlStoreConfig struct {
	table         string
	dialect       SQLDialect
	sweepInterval time.Duration
}

// WithSQLTable sets the session table name. Default: "relight_sessions".
func WithSQLTable(name string) SQLStoreOption {
	return func(c *sqlStoreConfig) {
		c.table = name
	}
}

// WithSQLDialect sets the SQL dialect. Default: DialectPostgreSQL.
func WithSQLDialect(d SQLDialect) SQLStoreOption {
	return func(c *sqlStoreConfig) {
		c.dialect = d
	}
}

// WithSQLSweepInterval sets how often expired rows are deleted.
// Default: 5 minutes.
func WithSQLSweepInterval(d time.Duration) SQLStoreOption {
	return func(c *sqlStoreConfig) {
		c.sweepInterval = d
	}
}

// NewSQLStore creates a SQL-backed snapshot store.
func NewSQLStore(db *sql.DB, opts ...SQLStoreOption) *SQLStore {
	cfg := &sqlStoreConfig{
		table:         "relight_sessions",
		dialect:       DialectPostgreSQL,
		sweepInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &SQLStore{
		db:            db,
		table:         cfg.table,
		dialect:       cfg.dialect,
		sweepInterval: cfg.sweepInterval,
		done:          make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) now() string {
	if s.dialect == DialectSQLite {
		return "datetime('now')"
	}
	return "NOW()"
}

func (s *SQLStore) upsertQuery() string {
	switch s.dialect {
	case DialectMySQL:
		return fmt.Sprintf(`
			INSERT INTO %s (id, data, expires_at, updated_at)
			VALUES (?, ?, ?, NOW())
			ON DUPLICATE KEY UPDATE
				data = VALUES(data),
				expires_at = VALUES(expires_at),
				updated_at = NOW()
		`, s.table)
	case DialectSQLite:
		return fmt.Sprintf(`
			INSERT OR REPLACE INTO %s (id, data, expires_at, updated_at)
			VALUES (?, ?, ?, datetime('now'))
		`, s.table)
	default:
		return fmt.Sprintf(`
			INSERT INTO %s (id, data, expires_at, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (id) DO UPDATE SET
				data = EXCLUDED.data,
				expires_at = EXCLUDED.expires_at,
				updated_at = NOW()
		`, s.table)
	}
}

// Save upserts a snapshot row.
func (s *SQLStore) Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error {
	if s.closed {
		return ErrStoreClosed{}
	}
	_, err := s.db.ExecContext(ctx, s.upsertQuery(), sessionID, data, expiresAt)
	return err
}

// Load returns a snapshot if present and not expired.
// Expiration is evaluated by the database clock.
func (s *SQLStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if s.closed {
		return nil, ErrStoreClosed{}
	}

	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = %s AND expires_at > %s`,
		s.table, s.placeholder(1), s.now())

	var data []byte
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete removes a snapshot row.
func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	if s.closed {
		return ErrStoreClosed{}
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = %s`, s.table, s.placeholder(1))
	_, err := s.db.ExecContext(ctx, query, sessionID)
	return err
}

// Touch extends a snapshot's expiration.
func (s *SQLStore) Touch(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if s.closed {
		return ErrStoreClosed{}
	}
	query := fmt.Sprintf(`UPDATE %s SET expires_at = %s, updated_at = %s WHERE id = %s`,
		s.table, s.placeholder(1), s.now(), s.placeholder(2))
	_, err := s.db.ExecContext(ctx, query, expiresAt, sessionID)
	return err
}

// SaveAll upserts multiple snapshots inside a transaction.
func (s *SQLStore) SaveAll(ctx context.Context, sessions map[string]Record) error {
	if s.closed {
		return ErrStoreClosed{}
	}
	if len(sessions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.upsertQuery())
	if err != nil {
		return err
	}
	defer stmt.Close()

	for id, rec := range sessions {
		if _, err := stmt.ExecContext(ctx, id, rec.Data, rec.ExpiresAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close stops the sweep loop. The *sql.DB is left open; it may be shared
// with other components.
func (s *SQLStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}

// CreateTable creates the session table and its expiration index.
// Convenience for development and tests.
func (s *SQLStore) CreateTable(ctx context.Context) error {
	var query string
	switch s.dialect {
	case DialectMySQL:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(64) PRIMARY KEY,
				data BLOB NOT NULL,
				expires_at DATETIME NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			)
		`, s.table)
	case DialectSQLite:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				data BLOB NOT NULL,
				expires_at TEXT NOT NULL,
				updated_at TEXT DEFAULT (datetime('now'))
			)
		`, s.table)
	default:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(64) PRIMARY KEY,
				data BYTEA NOT NULL,
				expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`, s.table)
	}

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return err
	}

	// MySQL lacks IF NOT EXISTS for indexes; a duplicate-index error here
	// is harmless and ignored.
	indexQuery := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_expires ON %s(expires_at)`, s.table, s.table)
	if s.dialect == DialectMySQL {
		indexQuery = fmt.Sprintf(`CREATE INDEX idx_%s_expires ON %s(expires_at)`, s.table, s.table)
	}
	s.db.ExecContext(ctx, indexQuery)
	return nil
}

func (s *SQLStore) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
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

func (s *SQLStore) sweep() {
	if s.closed {
		return
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at < %s`, s.table, s.now())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.db.ExecContext(ctx, query)
}
