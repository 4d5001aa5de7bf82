package execlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Register Postgres SQL driver.
	_ "github.com/lib/pq"
	// Register SQLite SQL driver.
	_ "modernc.org/sqlite"
)

// SQLWriter persists execution entries to SQLite or Postgres. It also
// implements Reader for the executions listing endpoint.
type SQLWriter struct {
	db      *sql.DB
	dialect string
}

// NewSQLiteWriter opens (or creates) a SQLite-backed execution log.
func NewSQLiteWriter(dsn string) (*SQLWriter, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "agentgw.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite execution log: %w", err)
	}
	w := &SQLWriter{db: db, dialect: "sqlite"}
	if err := w.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// NewPostgresWriter opens a Postgres-backed execution log.
func NewPostgresWriter(dsn string) (*SQLWriter, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres execution log: %w", err)
	}
	w := &SQLWriter{db: db, dialect: "postgres"}
	if err := w.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// NewSQLWriter wraps an existing database handle ("sqlite" or "postgres").
func NewSQLWriter(db *sql.DB, dialect string) (*SQLWriter, error) {
	w := &SQLWriter{db: db, dialect: dialect}
	if err := w.init(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *SQLWriter) init() error {
	if err := w.db.Ping(); err != nil {
		return fmt.Errorf("ping %s execution log: %w", w.dialect, err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS agent_executions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	agent_name TEXT NOT NULL,
	input TEXT NOT NULL,
	output TEXT,
	success BOOLEAN NOT NULL,
	cache_hit BOOLEAN NOT NULL,
	error TEXT,
	started_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agent_executions_user ON agent_executions(user_id, started_at);`
	if w.dialect == "postgres" {
		ddl = `
CREATE TABLE IF NOT EXISTS agent_executions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	agent_name TEXT NOT NULL,
	input TEXT NOT NULL,
	output TEXT,
	success BOOLEAN NOT NULL,
	cache_hit BOOLEAN NOT NULL,
	error TEXT,
	started_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agent_executions_user ON agent_executions(user_id, started_at);`
	}

	if _, err := w.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize execution log schema: %w", err)
	}
	return nil
}

// Write appends one entry. Missing IDs and timestamps are filled in.
func (w *SQLWriter) Write(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now().UTC()
	}

	query := `INSERT INTO agent_executions(id, user_id, agent_name, input, output, success, cache_hit, error, started_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if w.dialect == "postgres" {
		query = `INSERT INTO agent_executions(id, user_id, agent_name, input, output, success, cache_hit, error, started_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	}

	_, err := w.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.AgentName,
		string(entry.Input),
		string(entry.Output),
		entry.Success,
		entry.CacheHit,
		entry.Error,
		entry.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("write execution entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for userID, newest first.
func (w *SQLWriter) Recent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT id, user_id, agent_name, input, output, success, cache_hit, error, started_at
	FROM agent_executions WHERE user_id = ? ORDER BY started_at DESC LIMIT ?`
	if w.dialect == "postgres" {
		query = `SELECT id, user_id, agent_name, input, output, success, cache_hit, error, started_at
		FROM agent_executions WHERE user_id = $1 ORDER BY started_at DESC LIMIT $2`
	}

	rows, err := w.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list execution entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e             Entry
			input, output sql.NullString
			errMsg        sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.AgentName, &input, &output, &e.Success, &e.CacheHit, &errMsg, &e.StartedAt); err != nil {
			return nil, fmt.Errorf("scan execution entry: %w", err)
		}
		if input.Valid {
			e.Input = []byte(input.String)
		}
		if output.Valid && output.String != "" {
			e.Output = []byte(output.String)
		}
		e.Error = errMsg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (w *SQLWriter) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}
