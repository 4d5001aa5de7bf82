package ratelimit

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

// SQLStore persists bucket rows in SQLite or Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// NewSQLiteStore opens (or creates) a SQLite-backed rate-limit store.
func NewSQLiteStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "agentgw.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite rate-limit store: %w", err)
	}
	s := &SQLStore{db: db, dialect: "sqlite"}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore opens a Postgres-backed rate-limit store.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres rate-limit store: %w", err)
	}
	s := &SQLStore{db: db, dialect: "postgres"}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an existing database handle ("sqlite" or "postgres").
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("ping %s rate-limit store: %w", s.dialect, err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS rate_limits (
	user_id TEXT NOT NULL,
	endpoint TEXT NOT NULL,
	tokens INTEGER NOT NULL,
	window_seconds INTEGER NOT NULL,
	last_refill TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, endpoint)
);`
	if s.dialect == "postgres" {
		ddl = `
CREATE TABLE IF NOT EXISTS rate_limits (
	user_id TEXT NOT NULL,
	endpoint TEXT NOT NULL,
	tokens INTEGER NOT NULL,
	window_seconds INTEGER NOT NULL,
	last_refill TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, endpoint)
);`
	}

	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize rate-limit schema: %w", err)
	}
	return nil
}

// Load returns the stored row or (nil, nil) when absent.
func (s *SQLStore) Load(ctx context.Context, userID, endpoint string) (*State, error) {
	query := `SELECT tokens, window_seconds, last_refill FROM rate_limits
	WHERE user_id = ? AND endpoint = ?`
	if s.dialect == "postgres" {
		query = `SELECT tokens, window_seconds, last_refill FROM rate_limits
		WHERE user_id = $1 AND endpoint = $2`
	}

	var (
		tokens        int
		windowSeconds int64
		lastRefill    time.Time
	)
	err := s.db.QueryRowContext(ctx, query, userID, endpoint).
		Scan(&tokens, &windowSeconds, &lastRefill)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rate-limit row: %w", err)
	}

	return &State{
		UserID:     userID,
		Endpoint:   endpoint,
		Tokens:     tokens,
		Window:     time.Duration(windowSeconds) * time.Second,
		LastRefill: lastRefill,
	}, nil
}

// Save upserts the bucket row.
func (s *SQLStore) Save(ctx context.Context, state State) error {
	query := `INSERT INTO rate_limits(user_id, endpoint, tokens, window_seconds, last_refill)
	VALUES(?, ?, ?, ?, ?)
	ON CONFLICT(user_id, endpoint) DO UPDATE SET
		tokens = excluded.tokens,
		window_seconds = excluded.window_seconds,
		last_refill = excluded.last_refill`
	if s.dialect == "postgres" {
		query = `INSERT INTO rate_limits(user_id, endpoint, tokens, window_seconds, last_refill)
		VALUES($1, $2, $3, $4, $5)
		ON CONFLICT(user_id, endpoint) DO UPDATE SET
			tokens = excluded.tokens,
			window_seconds = excluded.window_seconds,
			last_refill = excluded.last_refill`
	}

	_, err := s.db.ExecContext(ctx, query,
		state.UserID,
		state.Endpoint,
		state.Tokens,
		int64(state.Window/time.Second),
		state.LastRefill.UTC(),
	)
	if err != nil {
		return fmt.Errorf("write rate-limit row: %w", err)
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
