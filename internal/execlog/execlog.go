// Package execlog records an append-only audit trail of agent executions:
// one entry per attempt, including cache hits, never mutated after insert.
// Writes are best-effort — the gateway logs and drops write failures.
package execlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one agent execution record.
type Entry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	AgentName string          `json:"agent_name"`
	Input     json.RawMessage `json:"input"`
	Output    json.RawMessage `json:"output,omitempty"`
	Success   bool            `json:"success"`
	CacheHit  bool            `json:"cache_hit"`
	Error     string          `json:"error,omitempty"`
	StartedAt time.Time       `json:"started_at"`
}

// NewID returns a fresh entry ID.
func NewID() string {
	return uuid.NewString()
}

// Writer persists execution entries.
type Writer interface {
	Write(ctx context.Context, entry Entry) error
}

// Reader lists recent execution entries for operator visibility.
type Reader interface {
	Recent(ctx context.Context, userID string, limit int) ([]Entry, error)
}

// NoopWriter ignores all writes.
type NoopWriter struct{}

func (NoopWriter) Write(context.Context, Entry) error { return nil }
