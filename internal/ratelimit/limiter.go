// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ratelimit throttles outgoing requests to the Rama Judicial API.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	rateLimitWaits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "consultaprocesos",
			Name:      "ratelimit_waits_total",
			Help:      "Requests that had to wait for the client-side rate limiter",
		},
		[]string{"reason"},
	)
	rateLimitWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "consultaprocesos",
			Name:      "ratelimit_wait_seconds",
			Help:      "Time spent waiting for the client-side rate limiter",
			Buckets:   []float64{0.1, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
	)
)

// ErrBurstExceeded is returned when the limiter can never satisfy a request,
// which only happens with a zero burst.
var ErrBurstExceeded = errors.New("ratelimit: request exceeds burst")

// Config holds rate limiting configuration
type Config struct {
	// RequestsPerMinute is the sustained rate across all workers.
	RequestsPerMinute int
	// Burst is the number of requests allowed back to back.
	Burst int
	// RequestDelay is the minimum spacing between two consecutive requests.
	RequestDelay time.Duration
	// Disabled lets every request through immediately.
	Disabled bool
}

// DefaultConfig returns the limits the public API tolerates.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 15,
		Burst:             3,
		RequestDelay:      time.Second,
	}
}

// Limiter combines a token bucket with a minimum spacing between requests.
// It is safe for concurrent use; concurrent callers are served in the order
// they reserved a slot.
type Limiter struct {
	config Config
	bucket *rate.Limiter

	mu   sync.Mutex
	next time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock and the sleep function (tests).
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(l *Limiter) {
		l.now = now
		l.sleep = sleep
	}
}

// New creates a new rate limiter with the given config
func New(config Config, opts ...Option) *Limiter {
	limit := rate.Inf
	if !config.Disabled && config.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(config.RequestsPerMinute) / 60.0)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	l := &Limiter{
		config: config,
		bucket: rate.NewLimiter(limit, burst),
		now:    time.Now,
		sleep:  Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Enabled reports whether the limiter throttles at all.
func (l *Limiter) Enabled() bool {
	return l != nil && !l.config.Disabled
}

// Wait blocks until a request may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.Enabled() {
		return ctx.Err()
	}

	l.mu.Lock()
	now := l.now()
	start := now
	reason := "bucket"
	if l.next.After(start) {
		start = l.next
		reason = "spacing"
	}
	r := l.bucket.ReserveN(start, 1)
	if !r.OK() {
		l.mu.Unlock()
		return ErrBurstExceeded
	}
	at := start.Add(r.DelayFrom(start))
	l.next = at.Add(l.config.RequestDelay)
	l.mu.Unlock()

	wait := at.Sub(now)
	if wait <= 0 {
		return ctx.Err()
	}
	rateLimitWaits.WithLabelValues(reason).Inc()
	rateLimitWaitSeconds.Observe(wait.Seconds())
	if err := l.sleep(ctx, wait); err != nil {
		r.CancelAt(l.now())
		return err
	}
	return nil
}

// Pause sleeps for d unless the limiter is disabled. It is used for the
// pause between two cases.
func (l *Limiter) Pause(ctx context.Context, d time.Duration) error {
	if !l.Enabled() || d <= 0 {
		return ctx.Err()
	}
	return l.sleep(ctx, d)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
