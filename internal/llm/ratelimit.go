package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRateLimitBackoff is how long calls are held after a rate-limit error.
const DefaultRateLimitBackoff = 60 * time.Second

// RateLimiter is a token bucket with a backoff window that opens after the
// provider reports a rate-limit error.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	backoff time.Duration
}

// NewRateLimiter allows requestsPerMinute sustained calls with the given burst.
// requestsPerMinute <= 0 disables the token bucket; the backoff window still applies.
func NewRateLimiter(requestsPerMinute float64, burst int, backoff time.Duration) *RateLimiter {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Limit(requestsPerMinute / 60)
	}
	if burst < 1 {
		burst = 1
	}
	if backoff <= 0 {
		backoff = DefaultRateLimitBackoff
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		backoff: backoff,
	}
}

// Wait blocks until a call may proceed. When the wait would outlast ctx's
// deadline it returns an error wrapping ErrRateLimited straight away.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		if deadline, ok := ctx.Deadline(); ok && deadline.Before(retryAt) {
			return fmt.Errorf("%w: backing off for %s", ErrRateLimited, wait.Round(time.Second))
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return nil
}

// RecordRateLimitError opens the backoff window. retryAfter <= 0 uses the configured backoff.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if retryAfter <= 0 {
		retryAfter = r.backoff
	}
	r.retryAt = time.Now().Add(retryAfter)
}

// Allow reports whether a call may proceed immediately, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()
	if time.Now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}

// RateLimitedGenerator gates a Generator behind a RateLimiter.
type RateLimitedGenerator struct {
	Generator
	limiter *RateLimiter
}

// NewRateLimitedGenerator wraps g. Several generators may share one limiter when
// they draw on the same provider quota.
func NewRateLimitedGenerator(g Generator, limiter *RateLimiter) *RateLimitedGenerator {
	return &RateLimitedGenerator{Generator: g, limiter: limiter}
}

// Generate waits for the limiter, then calls the wrapped generator. A
// rate-limit error from the provider opens the limiter's backoff window.
func (g *RateLimitedGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	text, err := g.Generator.Generate(ctx, prompt, opts)
	if errors.Is(err, ErrRateLimited) {
		g.limiter.RecordRateLimitError(0)
	}
	return text, err
}
