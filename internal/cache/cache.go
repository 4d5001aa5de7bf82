// Package cache persists agent responses keyed by (user, endpoint, input
// hash) with a TTL. The gateway is the sole writer; entries are upserted
// after every successful upstream call and never explicitly deleted —
// stale entries are ignored once past their TTL and overwritten on the
// next write.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one cached agent response.
type Entry struct {
	UserID    string          `json:"user_id"`
	Endpoint  string          `json:"endpoint"`
	InputHash string          `json:"input_hash"`
	Payload   json.RawMessage `json:"payload"`
	TTL       time.Duration   `json:"ttl"`
	CreatedAt time.Time       `json:"created_at"`
}

// Fresh reports whether the entry is still within its TTL at now.
func (e *Entry) Fresh(now time.Time) bool {
	return now.Sub(e.CreatedAt) < e.TTL
}

// Store is the persistence interface for cached responses. Get returns
// (nil, nil) on a miss; freshness is the caller's concern so a stale hit
// can be treated identically to a miss.
type Store interface {
	Get(ctx context.Context, userID, endpoint, inputHash string) (*Entry, error)
	Put(ctx context.Context, entry Entry) error
}
