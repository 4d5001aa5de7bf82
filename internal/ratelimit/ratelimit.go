// Package ratelimit implements a per-user, per-endpoint token bucket with
// coarse window refill, persisted through a pluggable Store. The bucket is
// an advisory throttle for human-paced requests: concurrent checks for the
// same key may race and the store row is last-write-wins.
package ratelimit

import (
	"context"
	"time"

	"github.com/launchpath/agent-gateway/internal/logging"
	"github.com/launchpath/agent-gateway/internal/metrics"
)

// State is the persisted bucket row for one (user, endpoint) pair.
type State struct {
	UserID     string
	Endpoint   string
	Tokens     int
	Window     time.Duration
	LastRefill time.Time
}

// Store persists bucket state. Load returns (nil, nil) when no row exists
// yet, which the limiter treats as a full bucket.
type Store interface {
	Load(ctx context.Context, userID, endpoint string) (*State, error)
	Save(ctx context.Context, state State) error
}

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
}

// Limiter applies the token-bucket policy on top of a Store.
type Limiter struct {
	store Store
	now   func() time.Time
}

// New creates a Limiter backed by store.
func New(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// WithClock overrides the limiter's time source. Tests use it to simulate
// window boundaries without sleeping.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Check consumes one token for (userID, endpoint) with the given window and
// capacity. Refill is coarse: once the window has fully elapsed the bucket
// resets to capacity-1, the boundary call itself consuming the first token
// of the new window. The call that decrements 1->0 is allowed; the call
// arriving when tokens is already 0 is not.
//
// Store failures fail open — the caller proceeds as if allowed with full
// remaining capacity, so a limiter outage never blocks users.
func (l *Limiter) Check(ctx context.Context, userID, endpoint string, window time.Duration, capacity int) Decision {
	if capacity < 1 {
		capacity = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	now := l.now()
	open := Decision{Allowed: true, Remaining: capacity, ResetAfter: window}

	st, err := l.store.Load(ctx, userID, endpoint)
	if err != nil {
		logging.FromContext(ctx).Warn("rate limit load failed, failing open",
			"user_id", userID, "endpoint", endpoint, "error", err.Error())
		return open
	}
	if st == nil {
		st = &State{
			UserID:     userID,
			Endpoint:   endpoint,
			Tokens:     capacity,
			Window:     window,
			LastRefill: now,
		}
	}

	allowed := false
	switch {
	case now.Sub(st.LastRefill) >= window:
		st.Tokens = capacity - 1
		st.LastRefill = now
		allowed = true
	case st.Tokens > 0:
		st.Tokens--
		allowed = true
	}
	st.Window = window

	if err := l.store.Save(ctx, *st); err != nil {
		logging.FromContext(ctx).Warn("rate limit save failed, failing open",
			"user_id", userID, "endpoint", endpoint, "error", err.Error())
		return open
	}

	if !allowed {
		metrics.RateLimitRejections.WithLabelValues(endpoint).Inc()
	}
	reset := st.LastRefill.Add(window).Sub(now)
	if reset < 0 {
		reset = 0
	}
	return Decision{Allowed: allowed, Remaining: st.Tokens, ResetAfter: reset}
}
