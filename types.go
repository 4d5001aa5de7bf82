package agentgateway

import (
	"fmt"
	"strings"

	"github.com/launchpath/agent-gateway/internal/agents"
)

// RequestOptions are the per-request knobs a client may set. Zero values
// defer to the agent's defaults.
type RequestOptions struct {
	// Regenerate bypasses the cache read; the fresh result is still
	// written back.
	Regenerate bool `json:"regeneration,omitempty"`
	// CacheTTLSeconds overrides the configured cache TTL for the result.
	CacheTTLSeconds int `json:"cacheTTLSeconds,omitempty"`
	// MaxTokens overrides the agent's completion budget.
	MaxTokens int `json:"maxTokens,omitempty"`
	// Temperature overrides the agent's sampling temperature.
	Temperature *float64 `json:"temperature,omitempty"`
	// Model overrides the agent's model.
	Model string `json:"model,omitempty"`
}

// Request is the inbound contract for every agent endpoint. Endpoint is
// filled from the URL path by the HTTP layer.
type Request struct {
	UserID   string         `json:"userId"`
	Endpoint string         `json:"endpoint,omitempty"`
	Input    map[string]any `json:"input"`
	Options  RequestOptions `json:"options"`
}

// Validate checks the minimal inbound contract: a user, a known endpoint,
// and the endpoint's required input fields.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("userId is required")
	}
	agent, ok := agents.Get(r.Endpoint)
	if !ok {
		return fmt.Errorf("unknown endpoint %q", r.Endpoint)
	}
	if err := agent.ValidateInput(r.Input); err != nil {
		return err
	}
	return nil
}
