// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package bootstrap is the composition root: it turns an AppConfig into the
// wired collaborators of a batch run.
package bootstrap

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/ManuGH/consultaprocesos/internal/app"
	"github.com/ManuGH/consultaprocesos/internal/backup"
	"github.com/ManuGH/consultaprocesos/internal/cache"
	"github.com/ManuGH/consultaprocesos/internal/config"
	"github.com/ManuGH/consultaprocesos/internal/consulta"
	applog "github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/platform/httpx"
	"github.com/ManuGH/consultaprocesos/internal/ramajudicial"
	"github.com/ManuGH/consultaprocesos/internal/ratelimit"
	"github.com/ManuGH/consultaprocesos/internal/report"
	"github.com/ManuGH/consultaprocesos/internal/resilience"
	"github.com/ManuGH/consultaprocesos/internal/store"
	"github.com/ManuGH/consultaprocesos/internal/telemetry"
	"github.com/ManuGH/consultaprocesos/internal/workbook"
)

const day = 24 * time.Hour

// Container is the production composition root output.
type Container struct {
	Config   config.AppConfig
	Pipeline *app.Pipeline
	Runner   *consulta.Runner
	Client   *ramajudicial.Client
	Limiter  *ratelimit.Limiter
	Breaker  *resilience.CircuitBreaker
	Cache    cache.Cache
	Backups  *backup.Manager
	// Store is nil when store.path is empty.
	Store *store.Store

	telemetry *telemetry.Provider
	closeOnce sync.Once
	closeErr  error
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ConfigureLogging installs the global logger for cfg. The returned closer
// releases the daily log file, if one was opened.
func ConfigureLogging(cfg config.AppConfig, out io.Writer) io.Closer {
	lc := applog.Config{
		Level:   cfg.Logging.Level,
		Output:  out,
		Console: cfg.Logging.Console,
		Version: cfg.Version,
	}
	var closer io.Closer = nopCloser{}
	if cfg.Logging.File && cfg.Logging.Dir != "" {
		f, err := applog.OpenDailyFile(cfg.Logging.Dir, time.Now())
		if err == nil {
			lc.File = f
			closer = f
		} else {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	applog.Configure(lc)
	return closer
}

// Wire builds the dependency graph for cfg.
func Wire(ctx context.Context, cfg config.AppConfig) (*Container, error) {
	logger := applog.WithComponent("bootstrap")

	if b, err := json.Marshal(cfg); err == nil {
		logger.Debug().
			Str("event", "config.snapshot").
			Str("sha256", fmt.Sprintf("%x", sha256.Sum256(b))).
			Msg("configuration snapshot fingerprint")
	}

	c := &Container{Config: cfg}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "consultaprocesos",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}
	c.telemetry = tp

	c.Cache, err = cache.New(ctx, cache.Config{
		Backend:   cfg.Cache.Backend,
		RedisAddr: cfg.Cache.RedisAddr,
		RedisDB:   cfg.Cache.RedisDB,
		BadgerDir: cfg.Cache.BadgerDir,
	}, applog.WithComponent("cache"))
	if err != nil {
		_ = c.Close(ctx)
		return nil, fmt.Errorf("initialize cache: %w", err)
	}

	c.Limiter = ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
		RequestDelay:      cfg.RateLimit.RequestDelay,
		Disabled:          !cfg.RateLimit.Enabled,
	})
	c.Breaker = resilience.NewCircuitBreaker("ramajudicial",
		cfg.API.BreakerThreshold, cfg.API.BreakerReset,
		resilience.WithFailurePredicate(ramajudicial.IsUpstreamFailure))

	c.Client = ramajudicial.New(ramajudicial.Options{
		BaseURL: cfg.API.BaseURL,
		HTTPClient: httpx.NewClient(httpx.Options{
			Timeout: cfg.API.Timeout,
			Tracing: cfg.Telemetry.Enabled,
		}),
		UserAgent:  cfg.API.UserAgent,
		Limiter:    c.Limiter,
		Breaker:    c.Breaker,
		Cache:      c.Cache,
		CacheTTL:   cfg.Cache.TTL,
		Retries:    cfg.API.Retries,
		Backoff:    cfg.API.Backoff,
		MaxBackoff: cfg.API.MaxBackoff,
	})

	if cfg.Store.Path != "" {
		c.Store, err = store.Open(ctx, cfg.Store.Path)
		if err != nil {
			_ = c.Close(ctx)
			return nil, fmt.Errorf("open run history: %w", err)
		}
	}

	// the limiter skips the pause between cases when rate limiting is off
	c.Runner = &consulta.Runner{
		Querier:   consulta.NewQuerier(c.Client),
		Workers:   cfg.Workers,
		CaseDelay: cfg.RateLimit.CaseDelay,
		Pause:     c.Limiter.Pause,
	}

	fsys := afero.NewOsFs()
	p := &app.Pipeline{
		InputFile: cfg.Input.Path,
		Version:   cfg.Version,
		Reader: workbook.Reader{
			Path:     cfg.Input.Path,
			Sheet:    cfg.Input.Sheet,
			Column:   cfg.Input.Column,
			StartRow: cfg.Input.StartRow,
			Rules:    cfg.RadicadoRules(),
		},
		Runner: c.Runner,
		Writer: &report.Writer{
			Dir:     cfg.Output.Dir,
			Prefix:  cfg.Output.Prefix,
			Formats: cfg.Output.Formats,
		},
		Fs: fsys,
	}
	if c.Store != nil {
		c.Runner.Sink = c.Store
		p.History = c.Store
	}
	if cfg.Backup.Enabled {
		c.Backups = backup.New(fsys, cfg.Backup.Dir)
		p.Backup = c.Backups
		p.BackupRetention = time.Duration(cfg.Backup.RetentionDays) * day
	}
	if cfg.Logging.File {
		p.LogDir = cfg.Logging.Dir
		p.LogRetention = time.Duration(cfg.Logging.RetentionDays) * day
	}
	c.Pipeline = p

	logger.Info().
		Str("event", "startup").
		Str(applog.FieldURL, httpx.RedactURL(c.Client.BaseURL())).
		Bool("rate_limit", c.Limiter.Enabled()).
		Int("workers", cfg.Workers).
		Str("cache", cfg.Cache.Backend).
		Bool("history", c.Store != nil).
		Msg("components wired")
	return c, nil
}

// Close releases every resource. It is safe to call more than once.
func (c *Container) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		var errs []error
		if c.Store != nil {
			errs = append(errs, c.Store.Close())
		}
		if c.Cache != nil {
			errs = append(errs, c.Cache.Close())
		}
		if c.telemetry != nil {
			errs = append(errs, c.telemetry.Shutdown(ctx))
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}
