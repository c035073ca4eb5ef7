// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ramajudicial

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/metrics"
	"github.com/ManuGH/consultaprocesos/internal/resilience"
	"github.com/cenkalti/backoff/v4"
)

// hintedBackOff lets the server's Retry-After override a shorter computed delay.
type hintedBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	next := h.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if h.hint > next {
		next = h.hint
	}
	h.hint = 0
	return next
}

func (c *Client) newBackOff(ctx context.Context) *hintedBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.backoff
	exp.MaxInterval = c.maxBackoff
	exp.MaxElapsedTime = 0
	exp.Reset()

	return &hintedBackOff{
		BackOff: backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.retries)), ctx),
	}
}

// withRetry runs fn until it succeeds, fails permanently or the retry budget
// is spent. Only errors that APIError.Retryable accepts are retried.
func (c *Client) withRetry(ctx context.Context, endpoint string, fn func() ([]byte, error)) ([]byte, error) {
	b := c.newBackOff(ctx)
	logger := log.WithContext(ctx, c.logger)

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		out, err := fn()
		if err == nil {
			body = out
			return nil
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() || errors.Is(err, resilience.ErrCircuitOpen) {
			return backoff.Permanent(err)
		}
		b.hint = apiErr.RetryAfter
		return err
	}
	notify := func(err error, wait time.Duration) {
		metrics.IncAPIRetry(endpoint)
		logger.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Int(log.FieldAttempt, attempt).
			Dur("retry_in", wait).
			Msg("api request failed, retrying")
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, err
	}
	return body, nil
}
