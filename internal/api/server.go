// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api is the HTTP surface of serve mode: probes, metrics, the run
// history and a throttled manual trigger.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/consultaprocesos/internal/api/middleware"
	"github.com/ManuGH/consultaprocesos/internal/consulta"
	"github.com/ManuGH/consultaprocesos/internal/health"
	"github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/scheduler"
	"github.com/ManuGH/consultaprocesos/internal/store"
)

// History is the read side of the run store. *store.Store satisfies it.
type History interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	GetRun(ctx context.Context, id string) (store.Run, error)
	RunRecords(ctx context.Context, runID string) ([]consulta.Record, error)
	LastRun(ctx context.Context) (store.Run, error)
}

// Trigger queues batch runs. *scheduler.Scheduler satisfies it.
type Trigger interface {
	Trigger(reason string) bool
	Status() scheduler.Status
}

// Config tunes the server.
type Config struct {
	Version string
	// TriggerRPM caps POST /api/v1/runs per client and minute.
	TriggerRPM int
	// Tracing enables server spans.
	Tracing bool
	// FilesRoot is the report directory. Downloads outside it are refused
	// and an empty root disables them.
	FilesRoot string
	// TrustedProxies may forward the client address for trigger throttling.
	TrustedProxies []netip.Prefix
}

// Server wires handlers to their dependencies. History may be nil when the
// run store is disabled.
type Server struct {
	cfg     Config
	health  *health.Manager
	history History
	trigger Trigger
	router  chi.Router
}

// New builds the server and its routes.
func New(cfg Config, hm *health.Manager, history History, trigger Trigger) *Server {
	s := &Server{cfg: cfg, health: hm, history: history, trigger: trigger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	stack := middleware.StackConfig{EnableMetrics: true, EnableLogging: true}
	if s.cfg.Tracing {
		stack.TracingService = "consultaprocesos-api"
	}
	r := middleware.NewRouter(stack)

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/files/{format}", s.handleRunFile)
		r.With(middleware.TriggerRateLimit(s.cfg.TriggerRPM, s.cfg.TrustedProxies)).Post("/runs", s.handleTriggerRun)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { writeNotFound(w) })
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := log.WithComponent("api")
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info().Str("addr", ln.Addr().String()).Msg("http server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
