// Package ratelimit paces store writes during ingestion and backs off all
// writers together after a transient store failure.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration for store writes.
type Config struct {
	// WritesPerSecond is the sustained write rate. Zero or less is unlimited.
	WritesPerSecond float64
	// Burst is the maximum burst size.
	Burst int
	// BaseBackoff is the delay after the first transient failure.
	BaseBackoff time.Duration
	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration
}

// DefaultConfig is unlimited writes with a 200ms doubling backoff capped at 10s.
var DefaultConfig = Config{
	WritesPerSecond: 0,
	Burst:           1,
	BaseBackoff:     200 * time.Millisecond,
	MaxBackoff:      10 * time.Second,
}

// Limiter combines a token bucket with a shared backoff deadline.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	base    time.Duration
	max     time.Duration
}

// New creates a limiter from cfg, filling zero fields from DefaultConfig.
func New(cfg Config) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig.Burst
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultConfig.BaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultConfig.MaxBackoff
	}

	limit := rate.Inf
	if cfg.WritesPerSecond > 0 {
		limit = rate.Limit(cfg.WritesPerSecond)
	}

	return &Limiter{
		limiter: rate.NewLimiter(limit, cfg.Burst),
		base:    cfg.BaseBackoff,
		max:     cfg.MaxBackoff,
	}
}

// Wait blocks until a write can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordFailure.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Backoff returns the delay before retry number attempt (0-based).
func (l *Limiter) Backoff(attempt int) time.Duration {
	d := l.base
	for i := 0; i < attempt && d < l.max; i++ {
		d *= 2
	}
	if d > l.max {
		d = l.max
	}
	return d
}

// RecordFailure pushes the shared retry deadline out by Backoff(attempt)
// and returns that delay. A later deadline already in place is kept.
func (l *Limiter) RecordFailure(attempt int) time.Duration {
	d := l.Backoff(attempt)

	l.mu.Lock()
	defer l.mu.Unlock()
	if at := time.Now().Add(d); at.After(l.retryAt) {
		l.retryAt = at
	}
	return d
}

// Allow checks if a write can be made immediately without blocking.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return l.limiter.Allow()
}
