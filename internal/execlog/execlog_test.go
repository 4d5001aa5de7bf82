package execlog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteAndRecent(t *testing.T) {
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "exec.db"))
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	entries := []Entry{
		{UserID: "u1", AgentName: "research", Input: json.RawMessage(`{"query":"funding"}`),
			Output: json.RawMessage(`{"report":"A"}`), Success: true, StartedAt: base},
		{UserID: "u1", AgentName: "research", Input: json.RawMessage(`{"query":"funding"}`),
			Output: json.RawMessage(`{"report":"A"}`), Success: true, CacheHit: true, StartedAt: base.Add(time.Second)},
		{UserID: "u1", AgentName: "email-outreach", Input: json.RawMessage(`{"company":"acme"}`),
			Success: false, Error: "upstream status 502", StartedAt: base.Add(2 * time.Second)},
		{UserID: "u2", AgentName: "research", Input: json.RawMessage(`{"query":"x"}`),
			Success: true, StartedAt: base.Add(3 * time.Second)},
	}
	for i, e := range entries {
		if err := w.Write(ctx, e); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	got, err := w.Recent(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries for u1, got %d", len(got))
	}
	// Newest first.
	if got[0].AgentName != "email-outreach" || got[0].Success {
		t.Fatalf("unexpected newest entry: %+v", got[0])
	}
	if got[0].Error != "upstream status 502" {
		t.Fatalf("error message lost: %q", got[0].Error)
	}
	if !got[1].CacheHit {
		t.Fatal("cache-hit flag lost")
	}
	for _, e := range got {
		if e.ID == "" {
			t.Fatal("entry IDs should be generated on write")
		}
	}
}

func TestRecentLimit(t *testing.T) {
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "exec.db"))
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := Entry{UserID: "u1", AgentName: "research", Input: json.RawMessage(`{}`),
			Success: true, StartedAt: time.Now().UTC().Add(time.Duration(i) * time.Second)}
		if err := w.Write(ctx, e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	got, err := w.Recent(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
}
