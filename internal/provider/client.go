// Package provider implements the HTTP client for the upstream completion
// API (OpenAI-compatible POST /v1/chat/completions). All calls go through
// the retry wrapper; the gateway never talks to the provider directly.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/launchpath/agent-gateway/internal/retry"
)

// DefaultBaseURL is the upstream API root used when none is configured.
const DefaultBaseURL = "https://api.openai.com"

// Message is one chat message sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries the resolved parameters for one upstream call.
type CompletionRequest struct {
	Model       string
	Temperature float64
	MaxTokens   int
	System      string
	User        string
}

// StatusError reports a non-2xx upstream response after retries were
// exhausted. The body is truncated to keep error events bounded.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// Client calls the completion API with bearer-token auth.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	apiKey  string
	http    *http.Client
	retry   retry.Options
}

// NewClient creates a provider client. baseURL may be empty for the
// default; apiKey may be empty, in which case every Complete call fails
// until Reconfigure supplies a key.
func NewClient(baseURL, apiKey string, httpClient *http.Client, retryOpts retry.Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		retry:   retryOpts,
	}
}

// Reconfigure swaps the bearer token, e.g. after credential rotation.
// It is the only supported way to change a client's credentials.
func (c *Client) Reconfigure(apiKey string) {
	c.mu.Lock()
	c.apiKey = apiKey
	c.mu.Unlock()
}

func (c *Client) credentials() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.apiKey == "" {
		return "", fmt.Errorf("provider api key is not configured")
	}
	return c.apiKey, nil
}

type completionBody struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete performs one chat completion and returns the generated text.
// Non-2xx responses surface as *StatusError; transport failures surface as
// the underlying error.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	key, err := c.credentials()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(completionBody{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	url := c.baseURL + "/v1/chat/completions"
	build := func() (*http.Request, error) {
		httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+key)
		return httpReq, nil
	}

	resp, err := retry.Do(ctx, c.http, build, c.retry)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Status: resp.StatusCode, Body: truncate(string(body), 2048)}
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
