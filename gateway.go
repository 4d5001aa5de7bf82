// Package agentgateway is the AI-request gateway behind the job-search
// assistant's agent endpoints (research, project-generator, email-outreach).
//
// Each request is fingerprinted, checked against a persisted per-user token
// bucket, served from the response cache when fresh, and otherwise proxied
// to the upstream completion API with retries. Results stream back to the
// client as Server-Sent Events; every stream terminates with a single
// "done" event regardless of outcome.
//
// Create a Gateway with New, injecting the cache store, rate-limit store,
// execution log, and provider client. The HTTP layer lives in cmd/agentgw.
package agentgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/launchpath/agent-gateway/internal/agents"
	"github.com/launchpath/agent-gateway/internal/cache"
	"github.com/launchpath/agent-gateway/internal/execlog"
	"github.com/launchpath/agent-gateway/internal/fingerprint"
	"github.com/launchpath/agent-gateway/internal/logging"
	"github.com/launchpath/agent-gateway/internal/metrics"
	"github.com/launchpath/agent-gateway/internal/provider"
	"github.com/launchpath/agent-gateway/internal/ratelimit"
	"github.com/launchpath/agent-gateway/internal/sse"
)

// Completer is the upstream call the gateway depends on. *provider.Client
// implements it; tests substitute stubs.
type Completer interface {
	Complete(ctx context.Context, req provider.CompletionRequest) (string, error)
}

// Deps are the injected collaborators. All are created once at process
// start and shared across requests; there is no other cross-request state.
type Deps struct {
	Cache     cache.Store
	RateLimit ratelimit.Store
	ExecLog   execlog.Writer
	Completer Completer
}

// Gateway orchestrates one agent request end to end.
type Gateway struct {
	cfg       Config
	cache     cache.Store
	limiter   *ratelimit.Limiter
	execLog   execlog.Writer
	completer Completer
	now       func() time.Time
}

// New creates a Gateway from config and injected collaborators.
func New(cfg Config, deps Deps) (*Gateway, error) {
	if deps.Cache == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if deps.RateLimit == nil {
		return nil, fmt.Errorf("rate-limit store is required")
	}
	if deps.Completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if deps.ExecLog == nil {
		deps.ExecLog = execlog.NoopWriter{}
	}
	return &Gateway{
		cfg:       cfg,
		cache:     deps.Cache,
		limiter:   ratelimit.New(deps.RateLimit),
		execLog:   deps.ExecLog,
		completer: deps.Completer,
		now:       time.Now,
	}, nil
}

// WithClock overrides the gateway's time source; tests use it to simulate
// TTL expiry without sleeping. The rate limiter keeps the same clock.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	g.limiter.WithClock(now)
	return g
}

// Limit consumes one rate-limit token for (userID, endpoint) using the
// configured per-endpoint bucket. Callers reject with HTTP 429 before any
// stream is opened when the decision is not allowed.
func (g *Gateway) Limit(ctx context.Context, userID, endpoint string) ratelimit.Decision {
	lc := g.cfg.LimitFor(endpoint)
	window := time.Duration(lc.WindowSeconds) * time.Second
	return g.limiter.Check(ctx, userID, endpoint, window, lc.Capacity)
}

// chunkPayload is the JSON shape of cached and streamed results.
type chunkPayload struct {
	Content string `json:"content"`
}

// Run executes a validated, rate-limit-cleared request and emits the event
// sequence to sink: progress* -> (chunk | error) -> done. Cache and log
// failures degrade silently; a sink write failure (client disconnect)
// stops all further work. Run never returns before emitting done unless
// the sink itself has failed.
func (g *Gateway) Run(ctx context.Context, req Request, sink sse.Sink) {
	start := g.now()
	log := logging.FromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout())
	defer cancel()

	agent, ok := agents.Get(req.Endpoint)
	if !ok {
		// Callers validate first; this is a programming error surfaced
		// through the stream rather than a panic.
		_ = sink.Send(sse.Error("unknown endpoint " + req.Endpoint))
		g.finish(sink, req.Endpoint, "error", start)
		return
	}

	inputJSON, err := json.Marshal(req.Input)
	if err != nil {
		_ = sink.Send(sse.Error("invalid input"))
		g.finish(sink, req.Endpoint, "error", start)
		return
	}

	hash, err := fingerprint.Request(req.Endpoint, req.Input, req.UserID)
	if err != nil {
		_ = sink.Send(sse.Error("request could not be processed"))
		g.finish(sink, req.Endpoint, "error", start)
		return
	}

	if !req.Options.Regenerate {
		if entry := g.cacheRead(ctx, req, hash); entry != nil {
			metrics.CacheHits.WithLabelValues(req.Endpoint).Inc()
			if err := sink.Send(sse.Progress("cache")); err != nil {
				return
			}
			if err := sink.Send(sse.Chunk(entry.Payload)); err != nil {
				return
			}
			g.writeExecution(ctx, execlog.Entry{
				UserID:    req.UserID,
				AgentName: req.Endpoint,
				Input:     inputJSON,
				Output:    entry.Payload,
				Success:   true,
				CacheHit:  true,
				StartedAt: start,
			})
			g.finish(sink, req.Endpoint, "cache_hit", start)
			return
		}
	}
	metrics.CacheMisses.WithLabelValues(req.Endpoint).Inc()

	if err := sink.Send(sse.Progress("started")); err != nil {
		return
	}

	system, user := agent.Prompt(req.Input)
	creq := provider.CompletionRequest{
		Model:       agent.Defaults.Model,
		Temperature: agent.Defaults.Temperature,
		MaxTokens:   agent.Defaults.MaxTokens,
		System:      system,
		User:        user,
	}
	if req.Options.Model != "" {
		creq.Model = req.Options.Model
	}
	if req.Options.Temperature != nil {
		creq.Temperature = *req.Options.Temperature
	}
	if req.Options.MaxTokens > 0 {
		creq.MaxTokens = req.Options.MaxTokens
	}

	upstreamStart := g.now()
	text, err := g.completer.Complete(ctx, creq)
	metrics.UpstreamLatency.WithLabelValues(req.Endpoint).Observe(g.now().Sub(upstreamStart).Seconds())
	if err != nil {
		kind := "transport"
		var statusErr *provider.StatusError
		if errors.As(err, &statusErr) {
			kind = "http"
		}
		metrics.UpstreamErrors.WithLabelValues(req.Endpoint, kind).Inc()
		log.Error("upstream call failed",
			"endpoint", req.Endpoint,
			"user_id", req.UserID,
			"kind", kind,
			"error", err.Error(),
		)
		if serr := sink.Send(sse.Error(err.Error())); serr != nil {
			return
		}
		g.writeExecution(ctx, execlog.Entry{
			UserID:    req.UserID,
			AgentName: req.Endpoint,
			Input:     inputJSON,
			Success:   false,
			Error:     err.Error(),
			StartedAt: start,
		})
		g.finish(sink, req.Endpoint, "error", start)
		return
	}

	payload, err := json.Marshal(chunkPayload{Content: text})
	if err != nil {
		_ = sink.Send(sse.Error("result could not be encoded"))
		g.finish(sink, req.Endpoint, "error", start)
		return
	}

	if err := sink.Send(sse.Chunk(payload)); err != nil {
		// Client gone; the cache/log writes below are useless now.
		return
	}

	if err := g.cache.Put(ctx, cache.Entry{
		UserID:    req.UserID,
		Endpoint:  req.Endpoint,
		InputHash: hash,
		Payload:   payload,
		TTL:       g.cfg.CacheTTL(req.Options.CacheTTLSeconds),
		CreatedAt: g.now(),
	}); err != nil {
		log.Warn("cache write failed", "endpoint", req.Endpoint, "error", err.Error())
	}

	g.writeExecution(ctx, execlog.Entry{
		UserID:    req.UserID,
		AgentName: req.Endpoint,
		Input:     inputJSON,
		Output:    payload,
		Success:   true,
		StartedAt: start,
	})

	log.Info("agent request completed",
		"endpoint", req.Endpoint,
		"user_id", req.UserID,
		"latency_ms", g.now().Sub(start).Milliseconds(),
	)
	g.finish(sink, req.Endpoint, "success", start)
}

// cacheRead returns a fresh entry or nil. Read failures degrade to a miss.
func (g *Gateway) cacheRead(ctx context.Context, req Request, hash string) *cache.Entry {
	entry, err := g.cache.Get(ctx, req.UserID, req.Endpoint, hash)
	if err != nil {
		logging.FromContext(ctx).Warn("cache read failed",
			"endpoint", req.Endpoint, "error", err.Error())
		return nil
	}
	if entry == nil || !entry.Fresh(g.now()) {
		return nil
	}
	return entry
}

// writeExecution appends an audit entry, logging and dropping failures.
func (g *Gateway) writeExecution(ctx context.Context, entry execlog.Entry) {
	entry.ID = execlog.NewID()
	if err := g.execLog.Write(ctx, entry); err != nil {
		logging.FromContext(ctx).Warn("execution log write failed",
			"agent", entry.AgentName, "error", err.Error())
	}
}

// finish emits the terminal done event and records request metrics.
func (g *Gateway) finish(sink sse.Sink, endpoint, status string, start time.Time) {
	_ = sink.Send(sse.Done())
	metrics.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	metrics.RequestDuration.WithLabelValues(endpoint).Observe(g.now().Sub(start).Seconds())
}
