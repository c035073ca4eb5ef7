// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/consultaprocesos/internal/api"
	"github.com/ManuGH/consultaprocesos/internal/app"
	"github.com/ManuGH/consultaprocesos/internal/app/bootstrap"
	"github.com/ManuGH/consultaprocesos/internal/config"
	"github.com/ManuGH/consultaprocesos/internal/health"
	applog "github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/ratelimit"
	"github.com/ManuGH/consultaprocesos/internal/scheduler"
	"github.com/ManuGH/consultaprocesos/internal/store"
)

// staleRunFactor is how many missed intervals degrade the last_run check.
const staleRunFactor = 3

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		listen   string
		interval time.Duration
		watch    bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the batch on a schedule and serve status, metrics and history over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			cfg, _, err := opts.loadConfig(func(c *config.AppConfig) {
				if f.Changed("listen") {
					c.Serve.Listen = listen
				}
				if f.Changed("interval") {
					c.Serve.Interval = interval
				}
				if f.Changed("watch") {
					c.Serve.WatchInput = watch
				}
			})
			if err != nil {
				return err
			}
			closer := bootstrap.ConfigureLogging(cfg, cmd.ErrOrStderr())
			defer closer.Close()

			if err := serve(cmd.Context(), cfg); err != nil {
				return failure(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides serve.listen)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "time between scheduled runs (overrides serve.interval)")
	cmd.Flags().BoolVar(&watch, "watch", false, "run whenever the input workbook changes (overrides serve.watchInput)")
	return cmd
}

// serve blocks until ctx is cancelled or the HTTP server fails.
func serve(ctx context.Context, cfg config.AppConfig) error {
	logger := applog.WithComponent("serve")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return err
	}

	c, err := bootstrap.Wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeContainer(c)

	sopts := scheduler.Options{
		Interval:   cfg.Serve.Interval,
		RunOnStart: true,
		Debounce:   cfg.Serve.Debounce,
	}
	if cfg.Serve.WatchInput {
		sopts.WatchPath = cfg.Input.Path
	}
	sched := scheduler.New(func(ctx context.Context, trigger string) error {
		_, err := c.Pipeline.Execute(ctx, app.Options{Trigger: trigger})
		return err
	}, sopts)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewFileChecker("input", cfg.Input.Path))
	var history api.History
	if c.Store != nil {
		history = c.Store
		hm.RegisterChecker(health.NewPingChecker("store", c.Store))
		hm.RegisterChecker(health.NewLastRunChecker(lastRun(c.Store), staleRunFactor*cfg.Serve.Interval))
	}

	trusted, err := ratelimit.ParseTrustedProxies(cfg.Serve.TrustedProxies)
	if err != nil {
		return fmt.Errorf("serve.trustedProxies: %w", err)
	}
	srv := api.New(api.Config{
		Version:        cfg.Version,
		TriggerRPM:     cfg.Serve.TriggerRPM,
		Tracing:        cfg.Telemetry.Enabled,
		FilesRoot:      cfg.Output.Dir,
		TrustedProxies: trusted,
	}, hm, history, sched)

	logger.Info().
		Str("listen", cfg.Serve.Listen).
		Dur("interval", cfg.Serve.Interval).
		Bool("watch", cfg.Serve.WatchInput).
		Msg("serve mode starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Serve.Listen) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("serve mode stopped")
	return nil
}

// lastRun adapts the newest history row for health.LastRunChecker. A run
// still in progress reports no finish time and counts as healthy.
func lastRun(st *store.Store) func(ctx context.Context) (health.LastRun, bool) {
	return func(ctx context.Context) (health.LastRun, bool) {
		r, err := st.LastRun(ctx)
		if err != nil {
			return health.LastRun{}, false
		}
		lr := health.LastRun{FinishedAt: r.FinishedAt, Error: r.Error}
		if r.Status == store.RunFailed && lr.Error == "" {
			lr.Error = "run failed"
		}
		return lr, true
	}
}
