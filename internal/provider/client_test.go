package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/launchpath/agent-gateway/internal/retry"
)

func fastRetry() retry.Options {
	return retry.Options{Retries: 2, MinDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func completionServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(handler)
}

func TestCompleteSendsExpectedRequest(t *testing.T) {
	var gotAuth string
	var gotBody completionBody
	srv := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"report text"}}]}`)
	})
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", srv.Client(), fastRetry())
	out, err := c.Complete(context.Background(), CompletionRequest{
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   2048,
		System:      "you are an analyst",
		User:        "research acme",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "report text" {
		t.Fatalf("unexpected content %q", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody.Stream {
		t.Fatal("upstream calls must not request streaming")
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", gotBody.Messages)
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	})
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", srv.Client(), fastRetry())
	out, err := c.Complete(context.Background(), CompletionRequest{Model: "m", User: "q"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "ok" || calls.Load() != 3 {
		t.Fatalf("expected success on attempt 3, got %q after %d calls", out, calls.Load())
	}
}

func TestCompleteReportsUpstreamStatus(t *testing.T) {
	srv := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", srv.Client(), fastRetry())
	_, err := c.Complete(context.Background(), CompletionRequest{Model: "m", User: "q"})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", statusErr.Status)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	c := NewClient("http://localhost:1", "", nil, fastRetry())
	if _, err := c.Complete(context.Background(), CompletionRequest{Model: "m", User: "q"}); err == nil {
		t.Fatal("expected configuration error without api key")
	}
}

func TestReconfigureSwapsToken(t *testing.T) {
	var gotAuth atomic.Value
	srv := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	})
	defer srv.Close()

	c := NewClient(srv.URL, "sk-old", srv.Client(), fastRetry())
	c.Reconfigure("sk-new")
	if _, err := c.Complete(context.Background(), CompletionRequest{Model: "m", User: "q"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if gotAuth.Load() != "Bearer sk-new" {
		t.Fatalf("expected rotated token, got %v", gotAuth.Load())
	}
}
