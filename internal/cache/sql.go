package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	// Register Postgres SQL driver.
	_ "github.com/lib/pq"
	// Register SQLite SQL driver.
	_ "modernc.org/sqlite"
)

// SQLStore persists cache entries in SQLite or Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// NewSQLiteStore opens (or creates) a SQLite-backed cache store.
func NewSQLiteStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "agentgw.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache store: %w", err)
	}
	s := &SQLStore{db: db, dialect: "sqlite"}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore opens a Postgres-backed cache store.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres cache store: %w", err)
	}
	s := &SQLStore{db: db, dialect: "postgres"}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an existing database handle. The dialect must be
// "sqlite" or "postgres"; the agent_cache table is created if missing.
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("ping %s cache store: %w", s.dialect, err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS agent_cache (
	user_id TEXT NOT NULL,
	endpoint TEXT NOT NULL,
	input_hash TEXT NOT NULL,
	payload TEXT NOT NULL,
	ttl_seconds INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, endpoint, input_hash)
);`
	if s.dialect == "postgres" {
		ddl = `
CREATE TABLE IF NOT EXISTS agent_cache (
	user_id TEXT NOT NULL,
	endpoint TEXT NOT NULL,
	input_hash TEXT NOT NULL,
	payload TEXT NOT NULL,
	ttl_seconds INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, endpoint, input_hash)
);`
	}

	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize cache schema: %w", err)
	}
	return nil
}

// Get loads an entry by its composite key, or (nil, nil) when absent.
func (s *SQLStore) Get(ctx context.Context, userID, endpoint, inputHash string) (*Entry, error) {
	query := `SELECT payload, ttl_seconds, created_at FROM agent_cache
	WHERE user_id = ? AND endpoint = ? AND input_hash = ?`
	if s.dialect == "postgres" {
		query = `SELECT payload, ttl_seconds, created_at FROM agent_cache
		WHERE user_id = $1 AND endpoint = $2 AND input_hash = $3`
	}

	var (
		payload    string
		ttlSeconds int64
		createdAt  time.Time
	)
	err := s.db.QueryRowContext(ctx, query, userID, endpoint, inputHash).
		Scan(&payload, &ttlSeconds, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	return &Entry{
		UserID:    userID,
		Endpoint:  endpoint,
		InputHash: inputHash,
		Payload:   []byte(payload),
		TTL:       time.Duration(ttlSeconds) * time.Second,
		CreatedAt: createdAt,
	}, nil
}

// Put upserts an entry; last write wins.
func (s *SQLStore) Put(ctx context.Context, entry Entry) error {
	query := `INSERT INTO agent_cache(user_id, endpoint, input_hash, payload, ttl_seconds, created_at)
	VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id, endpoint, input_hash) DO UPDATE SET
		payload = excluded.payload,
		ttl_seconds = excluded.ttl_seconds,
		created_at = excluded.created_at`
	if s.dialect == "postgres" {
		query = `INSERT INTO agent_cache(user_id, endpoint, input_hash, payload, ttl_seconds, created_at)
		VALUES($1, $2, $3, $4, $5, $6)
		ON CONFLICT(user_id, endpoint, input_hash) DO UPDATE SET
			payload = excluded.payload,
			ttl_seconds = excluded.ttl_seconds,
			created_at = excluded.created_at`
	}

	_, err := s.db.ExecContext(ctx, query,
		entry.UserID,
		entry.Endpoint,
		entry.InputHash,
		string(entry.Payload),
		int64(entry.TTL/time.Second),
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
