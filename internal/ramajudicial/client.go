// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ramajudicial is a client for the public process search API of the
// Colombian judicial branch (consultaprocesos.ramajudicial.gov.co).
package ramajudicial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/consultaprocesos/internal/cache"
	"github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/metrics"
	"github.com/ManuGH/consultaprocesos/internal/resilience"
	"github.com/rs/zerolog"
)

// API paths relative to the base URL.
const (
	pathSearch      = "/Procesos/Consulta/NumeroRadicacion"
	pathDetail      = "/Proceso/Detalle"
	pathActuaciones = "/Proceso/Actuaciones"
)

// Endpoint labels used in logs and metrics.
const (
	EndpointSearch      = "search"
	EndpointDetail      = "detail"
	EndpointActuaciones = "actuaciones"
)

const maxResponseBytes = 8 << 20

// Waiter throttles outgoing requests. *ratelimit.Limiter satisfies it.
type Waiter interface {
	Wait(ctx context.Context) error
}

type nopWaiter struct{}

func (nopWaiter) Wait(ctx context.Context) error { return ctx.Err() }

// Options configure a Client. Zero values select sensible defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	Limiter  Waiter
	Breaker  *resilience.CircuitBreaker
	Cache    cache.Cache
	CacheTTL time.Duration

	Retries    int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// Client queries the Rama Judicial API. It is safe for concurrent use.
type Client struct {
	base      string
	http      *http.Client
	userAgent string

	limiter  Waiter
	breaker  *resilience.CircuitBreaker
	cache    cache.Cache
	cacheTTL time.Duration

	retries    int
	backoff    time.Duration
	maxBackoff time.Duration

	logger zerolog.Logger
}

// New creates a client from opts.
func New(opts Options) *Client {
	c := &Client{
		base:       strings.TrimRight(opts.BaseURL, "/"),
		http:       opts.HTTPClient,
		userAgent:  opts.UserAgent,
		limiter:    opts.Limiter,
		breaker:    opts.Breaker,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		retries:    opts.Retries,
		backoff:    opts.Backoff,
		maxBackoff: opts.MaxBackoff,
		logger:     log.WithComponent("ramajudicial"),
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.limiter == nil {
		c.limiter = nopWaiter{}
	}
	if c.cache == nil {
		c.cache = cache.NewNoOpCache()
	}
	if c.backoff <= 0 {
		c.backoff = 2 * time.Second
	}
	if c.maxBackoff < c.backoff {
		c.maxBackoff = c.backoff
	}
	if c.retries < 0 {
		c.retries = 0
	}
	return c
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.base }

// SearchByNumber looks up a case by its radicado. It returns every match on
// the first page; an empty slice means the API knows no such case.
func (c *Client) SearchByNumber(ctx context.Context, numero string) (*SearchResult, error) {
	q := url.Values{}
	q.Set("numero", numero)
	q.Set("SoloActivos", "false")
	q.Set("pagina", "1")

	var out SearchResult
	if err := c.getJSON(ctx, EndpointSearch, pathSearch, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Detail fetches the detail record of a process.
func (c *Client) Detail(ctx context.Context, id int64) (*ProcesoDetail, error) {
	var out ProcesoDetail
	path := pathDetail + "/" + strconv.FormatInt(id, 10)
	if err := c.getJSON(ctx, EndpointDetail, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Actuaciones fetches one page (1-based) of the actions recorded on a process.
func (c *Client) Actuaciones(ctx context.Context, id int64, page int) (*ActuacionesPage, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("pagina", strconv.Itoa(page))

	var out ActuacionesPage
	path := pathActuaciones + "/" + strconv.FormatInt(id, 10)
	if err := c.getJSON(ctx, EndpointActuaciones, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	body, err := c.fetch(ctx, endpoint, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Sentinel: ErrUpstreamBadResponse, Operation: endpoint, Err: err}
	}
	return nil
}

// fetch returns the raw body for u, from cache or from the API with retries.
func (c *Client) fetch(ctx context.Context, endpoint, u string) ([]byte, error) {
	key := "GET " + u
	if body, ok := c.cache.Get(ctx, key); ok {
		metrics.RecordCacheLookup(true)
		logger := log.WithContext(ctx, c.logger)
		logger.Debug().Str(log.FieldURL, u).Msg("cache hit")
		return body, nil
	}
	metrics.RecordCacheLookup(false)

	body, err := c.withRetry(ctx, endpoint, func() ([]byte, error) {
		return c.doOnce(ctx, endpoint, u)
	})
	if err != nil {
		return nil, err
	}
	if c.cacheTTL > 0 {
		c.cache.Set(ctx, key, body, c.cacheTTL)
	}
	return body, nil
}

// doOnce performs a single throttled request guarded by the circuit breaker.
func (c *Client) doOnce(ctx context.Context, endpoint, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	call := func() error {
		var err error
		body, err = c.roundTrip(ctx, endpoint, u)
		return err
	}
	if c.breaker == nil {
		return body, call()
	}
	err := c.breaker.Execute(call)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, &APIError{Sentinel: ErrUpstreamUnavailable, Operation: endpoint, Err: err}
	}
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, endpoint, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9")

	start := time.Now()
	logger := log.WithContext(ctx, c.logger)

	res, err := c.http.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(endpoint, "transport_error", time.Since(start))
		return nil, classifyTransportError(ctx, endpoint, err)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordAPIRequest(endpoint, "transport_error", elapsed)
		return nil, classifyTransportError(ctx, endpoint, err)
	}

	logger.Debug().
		Str("endpoint", endpoint).
		Int(log.FieldStatus, res.StatusCode).
		Int64(log.FieldDuration, elapsed.Milliseconds()).
		Msg("api request")

	if apiErr := classifyStatus(endpoint, res, body); apiErr != nil {
		metrics.RecordAPIRequest(endpoint, strconv.Itoa(res.StatusCode), elapsed)
		return nil, apiErr
	}
	if !json.Valid(body) {
		metrics.RecordAPIRequest(endpoint, "bad_response", elapsed)
		return nil, &APIError{Sentinel: ErrUpstreamBadResponse, Operation: endpoint, Status: res.StatusCode, Body: truncateBody(body)}
	}
	metrics.RecordAPIRequest(endpoint, "success", elapsed)
	return body, nil
}

func classifyStatus(endpoint string, res *http.Response, body []byte) error {
	status := res.StatusCode
	if status >= 200 && status < 300 {
		return nil
	}
	e := &APIError{Operation: endpoint, Status: status, Body: truncateBody(body)}
	switch {
	case status == http.StatusNotFound:
		e.Sentinel = ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Sentinel = ErrForbidden
	case status == http.StatusTooManyRequests:
		e.Sentinel = ErrRateLimited
		e.RetryAfter = parseRetryAfter(res.Header.Get("Retry-After"), time.Now())
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		e.Sentinel = ErrTimeout
	case status >= 500:
		e.Sentinel = ErrUpstreamError
	default:
		e.Sentinel = ErrUpstreamBadResponse
	}
	return e
}

func classifyTransportError(ctx context.Context, endpoint string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &APIError{Sentinel: ErrTimeout, Operation: endpoint, Err: err}
	}
	return &APIError{Sentinel: ErrUpstreamUnavailable, Operation: endpoint, Err: err}
}

// parseRetryAfter accepts both forms of the header: delay-seconds and HTTP-date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
