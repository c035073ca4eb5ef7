// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"
	"net/netip"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ManuGH/consultaprocesos/internal/ratelimit"
)

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	// RequestLimit is the maximum number of requests allowed in the window
	RequestLimit int
	// WindowSize is the time window for rate limiting
	WindowSize time.Duration
	// KeyFunc extracts the rate limit key; nil keys by client IP.
	KeyFunc func(r *http.Request) (string, error)
	// TrustedProxies may set the client IP through forwarding headers.
	TrustedProxies []netip.Prefix
}

func keyByClientIP(trusted []netip.Prefix) func(r *http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		return ratelimit.ClientIP(r, trusted), nil
	}
}

// RateLimit creates a sliding window rate limiter using httprate. Rejected
// requests get a JSON 429 with Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = keyByClientIP(cfg.TrustedProxies)
	}
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(cfg.WindowSize.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","detail":"Too many requests. Please try again later."}`))
		}),
	)
}

// TriggerRateLimit limits manual run triggers to perMinute per client.
func TriggerRateLimit(perMinute int, trusted []netip.Prefix) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = 6
	}
	return RateLimit(RateLimitConfig{RequestLimit: perMinute, WindowSize: time.Minute, TrustedProxies: trusted})
}
