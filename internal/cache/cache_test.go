package cache

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	now := time.Now()

	entry := Entry{
		UserID:    "u1",
		Endpoint:  "research",
		InputHash: "abc",
		Payload:   json.RawMessage(`{"report":"X"}`),
		TTL:       60 * time.Second,
		CreatedAt: now,
	}
	if err := m.Put(ctx, entry); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := m.Get(ctx, "u1", "research", "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected a hit")
	}
	if string(got.Payload) != `{"report":"X"}` {
		t.Fatalf("payload mismatch: %s", got.Payload)
	}
	if !got.Fresh(now) {
		t.Fatal("entry should be fresh immediately after put")
	}
	if got.Fresh(now.Add(61 * time.Second)) {
		t.Fatal("entry should be stale after its TTL elapses")
	}
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory(10)
	got, err := m.Get(context.Background(), "u1", "research", "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected miss, got %+v", got)
	}
}

func TestMemoryEvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)
	for _, hash := range []string{"h1", "h2", "h3"} {
		entry := Entry{UserID: "u1", Endpoint: "research", InputHash: hash,
			Payload: json.RawMessage(`{}`), TTL: time.Minute, CreatedAt: time.Now()}
		if err := m.Put(ctx, entry); err != nil {
			t.Fatalf("put %s: %v", hash, err)
		}
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", m.Len())
	}
	if got, _ := m.Get(ctx, "u1", "research", "h1"); got != nil {
		t.Fatal("oldest entry should have been evicted")
	}
	if got, _ := m.Get(ctx, "u1", "research", "h3"); got == nil {
		t.Fatal("newest entry should survive eviction")
	}
}

func TestSQLiteUpsert(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	first := Entry{
		UserID:    "u1",
		Endpoint:  "research",
		InputHash: "abc",
		Payload:   json.RawMessage(`{"v":1}`),
		TTL:       60 * time.Second,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Put(ctx, first); err != nil {
		t.Fatalf("put: %v", err)
	}

	second := first
	second.Payload = json.RawMessage(`{"v":2}`)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	if err := s.Put(ctx, second); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.Get(ctx, "u1", "research", "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected a hit")
	}
	if string(got.Payload) != `{"v":2}` {
		t.Fatalf("upsert did not overwrite: %s", got.Payload)
	}
	if got.TTL != 60*time.Second {
		t.Fatalf("ttl mismatch: %v", got.TTL)
	}

	if miss, _ := s.Get(ctx, "u2", "research", "abc"); miss != nil {
		t.Fatal("entries must be scoped by user")
	}
}
