// Package ratelimit wraps golang.org/x/time/rate with the retry/backoff
// policy the fetcher needs when a chain's portal starts throttling or
// erroring under concurrent discovery.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Config controls request pacing and retry behavior.
type Config struct {
	RequestsPerSecond int
	MaxRetries        int
	InitialBackoffMs  int
	MaxBackoffMs      int
}

// DefaultConfig returns the default rate limit configuration.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 4,
		MaxRetries:        3,
		InitialBackoffMs:  200,
		MaxBackoffMs:      10000,
	}
}

// Limiter paces outbound requests to a chain portal.
type Limiter struct {
	config  Config
	limiter *rate.Limiter
}

// NewLimiter creates a rate limiter with the given config. Burst is fixed
// at 1 so bursts never exceed the configured steady-state rate — chain
// portals are scraped, not APIs with documented burst allowances.
func NewLimiter(cfg Config) *Limiter {
	return &Limiter{
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Wait blocks until a request may proceed, respecting ctx cancellation.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Backoff computes the delay before retry attempt n (0-indexed):
// exponential growth from InitialBackoffMs, capped at MaxBackoffMs,
// plus 0-25% jitter on top of the capped value to avoid a thundering
// herd without straying far from the intended delay.
func (c Config) Backoff(attempt int) time.Duration {
	base := float64(c.InitialBackoffMs) * math.Pow(2, float64(attempt))
	if base > float64(c.MaxBackoffMs) {
		base = float64(c.MaxBackoffMs)
	}
	jitter := rand.Float64() * 0.25 * base
	return time.Duration(base+jitter) * time.Millisecond
}

// RetryError reports that all retry attempts for a URL were exhausted.
type RetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastErr    error
}

func (e *RetryError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("fetch %s failed after %d attempts: status %d", e.URL, e.Attempts, e.LastStatus)
}

func (e *RetryError) Unwrap() error { return e.LastErr }
