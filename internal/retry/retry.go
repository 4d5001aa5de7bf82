// Package retry wraps outbound HTTP calls with exponential backoff, jitter,
// and Retry-After handling. It is used for every upstream provider call.
package retry

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/launchpath/agent-gateway/internal/metrics"
)

// Options controls the retry policy for Do.
type Options struct {
	// Retries is the number of additional attempts after the first
	// (total attempts = Retries + 1). Negative is treated as zero.
	Retries int
	// MinDelay is the base backoff delay (default 250ms).
	MinDelay time.Duration
	// MaxDelay caps the computed backoff (default 4s).
	MaxDelay time.Duration
	// ShouldRetry decides whether a received response warrants a retry.
	// Defaults to DefaultShouldRetry. Transport errors always retry.
	ShouldRetry func(*http.Response) bool
}

const jitterCeiling = 200 * time.Millisecond

// DefaultShouldRetry retries on HTTP 429 and any 5xx status.
func DefaultShouldRetry(resp *http.Response) bool {
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

func (o Options) withDefaults() Options {
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.MinDelay <= 0 {
		o.MinDelay = 250 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 4 * time.Second
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = DefaultShouldRetry
	}
	return o
}

// Do executes the request produced by build, retrying per opts. build is
// called once per attempt so request bodies are re-created rather than
// re-read.
//
// When retries are exhausted the last HTTP response is returned even if it
// is an error status, so the caller can inspect and report it. A transport
// failure with no response on the final attempt returns the error instead.
// Intermediate failed response bodies are drained and closed.
func Do(ctx context.Context, client *http.Client, build func() (*http.Request, error), opts Options) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := client.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = err
			if attempt == opts.Retries {
				return nil, lastErr
			}
			metrics.UpstreamRetries.Inc()
			if err := sleep(ctx, backoff(opts, attempt, nil)); err != nil {
				return nil, err
			}
			continue
		}

		if !opts.ShouldRetry(resp) || attempt == opts.Retries {
			return resp, nil
		}

		metrics.UpstreamRetries.Inc()
		delay := backoff(opts, attempt, resp)
		drain(resp)
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// backoff computes min(MaxDelay, MinDelay*2^attempt + jitter). A Retry-After
// header (whole seconds) on the failing response takes precedence when it is
// larger than the computed delay.
func backoff(opts Options, attempt int, resp *http.Response) time.Duration {
	delay := opts.MinDelay << uint(attempt)
	if delay > opts.MaxDelay || delay <= 0 {
		delay = opts.MaxDelay
	}
	delay += time.Duration(rand.Int63n(int64(jitterCeiling)))

	if resp != nil {
		if ra := retryAfter(resp); ra > delay {
			delay = ra
		}
	}
	return delay
}

func retryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
