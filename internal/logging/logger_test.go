package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTraceIDRoundTrip(t *testing.T) {
	id := NewTraceID()
	if len(id) != 32 {
		t.Fatalf("trace ID length = %d, want 32 hex chars", len(id))
	}
	ctx := WithTraceID(context.Background(), id)
	if got := TraceIDFromContext(ctx); got != id {
		t.Fatalf("round-tripped trace ID = %q, want %q", got, id)
	}
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Fatalf("empty context yielded trace ID %q", got)
	}
}

func TestMiddlewareAssignsAndEchoesTraceID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" {
		t.Fatal("handler context has no trace ID")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Fatalf("response header %q does not match context trace ID %q", got, seen)
	}
}

func TestMiddlewareReusesIncomingTraceID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-trace-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "upstream-trace-1" {
		t.Fatalf("incoming trace ID not reused, got %q", seen)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "upstream-trace-1" {
		t.Fatalf("incoming trace ID not echoed, got %q", got)
	}
}
