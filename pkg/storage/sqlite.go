package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLite keeps entries in a SQLite database so they survive restarts.
//
// Several stores can share one database file; each one owns the rows of its
// namespace. Expiry is checked lazily on Get like the memory store.
type SQLite struct {
	db        *sql.DB
	namespace string
	now       func() time.Time

	writeMu sync.Mutex
}

// SQLiteOption configures a SQLite store.
type SQLiteOption func(*SQLite)

// WithNamespace sets the namespace owning this store's rows.
func WithNamespace(namespace string) SQLiteOption {
	return func(s *SQLite) {
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// WithSQLiteClock replaces time.Now for insertion and expiry times.
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLite) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSQLite opens (or creates) the database at path. An empty path opens a
// shared in-memory database.
func NewSQLite(path string, opts ...SQLiteOption) (*SQLite, error) {
	if path == "" {
		path = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS ultracache_entries (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB,
		inserted_at INTEGER NOT NULL,
		ttl_ms INTEGER NOT NULL,
		PRIMARY KEY (namespace, key)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite create table: %w", err)
	}

	s := &SQLite{db: db, namespace: DefaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save inserts or replaces the entry for key.
func (s *SQLite) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = NoExpiration
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO ultracache_entries (namespace, key, value, inserted_at, ttl_ms) VALUES (?, ?, ?, ?, ?)`,
		s.namespace, key, value, s.now().UnixMilli(), ttl.Milliseconds())
	if err != nil {
		OperationErrors.WithLabelValues("sqlite", "save").Inc()
		return fmt.Errorf("sqlite save: %w", err)
	}
	return nil
}

// Get returns the stored value or ErrCacheMiss.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value      []byte
		insertedAt int64
		ttlMillis  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, inserted_at, ttl_ms FROM ultracache_entries WHERE namespace = ? AND key = ?`,
		s.namespace, key).Scan(&value, &insertedAt, &ttlMillis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCacheMiss
		}
		OperationErrors.WithLabelValues("sqlite", "get").Inc()
		return nil, fmt.Errorf("sqlite get: %w", err)
	}

	entry := memoryEntry{
		ttl:        time.Duration(ttlMillis) * time.Millisecond,
		insertedAt: time.UnixMilli(insertedAt),
	}
	if entry.expired(s.now()) {
		return nil, ErrCacheMiss
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Clear deletes the rows of this store's namespace.
func (s *SQLite) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM ultracache_entries WHERE namespace = ?`, s.namespace)
	if err != nil {
		OperationErrors.WithLabelValues("sqlite", "clear").Inc()
		return fmt.Errorf("sqlite clear: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		ClearedKeys.WithLabelValues("sqlite").Add(float64(n))
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
