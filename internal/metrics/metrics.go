// Package metrics registers the Prometheus metrics exported by the agent
// gateway. Importing it registers all metrics before the /metrics handler
// is mounted.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts gateway requests labelled by endpoint and
	// outcome ("success", "error", "cache_hit", "rejected").
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentgw_requests_total",
			Help: "Total agent requests processed by the gateway.",
		},
		[]string{"endpoint", "status"},
	)

	// RequestDuration observes end-to-end request latency in seconds,
	// from rate check through stream close.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentgw_request_duration_seconds",
			Help:    "End-to-end agent request duration in seconds.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	// CacheHits counts fresh cache hits served without an upstream call.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentgw_cache_hits_total",
			Help: "Total fresh cache hits served per endpoint.",
		},
		[]string{"endpoint"},
	)

	// CacheMisses counts cache misses, stale hits, and forced regenerations.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentgw_cache_misses_total",
			Help: "Total cache misses per endpoint (including stale and bypassed reads).",
		},
		[]string{"endpoint"},
	)

	// RateLimitRejections counts requests rejected by the token bucket.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentgw_rate_limit_rejections_total",
			Help: "Total requests rejected by rate limiting per endpoint.",
		},
		[]string{"endpoint"},
	)

	// UpstreamLatency observes the duration of completed upstream provider
	// calls, retries included.
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentgw_upstream_latency_seconds",
			Help:    "Upstream completion call latency in seconds, retries included.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	// UpstreamRetries counts retried upstream attempts: every backoff
	// taken before a request is re-issued, whether the trigger was a
	// retryable status or a transport failure.
	UpstreamRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentgw_upstream_retries_total",
			Help: "Total retried upstream HTTP attempts.",
		},
	)

	// UpstreamErrors counts upstream failures after retries were exhausted,
	// labelled by kind ("http", "transport").
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentgw_upstream_errors_total",
			Help: "Total upstream provider failures by kind.",
		},
		[]string{"endpoint", "kind"},
	)
)
