// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package consulta

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/metrics"
	"github.com/ManuGH/consultaprocesos/internal/radicado"
	"github.com/ManuGH/consultaprocesos/internal/ratelimit"
	"github.com/ManuGH/consultaprocesos/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// CaseQuerier looks up one case. *Querier satisfies it.
type CaseQuerier interface {
	Query(ctx context.Context, r radicado.Radicado) (Record, error)
}

// RecordSink persists records as they complete.
type RecordSink interface {
	SaveRecord(ctx context.Context, runID string, seq int, rec Record) error
}

// Progress is reported after each completed case.
type Progress struct {
	Done   int
	Total  int
	Record Record
}

// Runner processes a batch of radicados.
type Runner struct {
	Querier   CaseQuerier
	Workers   int
	CaseDelay time.Duration
	// Pause waits between cases; defaults to a context-aware sleep.
	Pause    func(ctx context.Context, d time.Duration) error
	Sink     RecordSink
	Progress func(Progress)
	Now      func() time.Time
}

// RunResult is the outcome of a batch.
type RunResult struct {
	RunID      string
	Records    []Record
	Stats      Stats
	StartedAt  time.Time
	FinishedAt time.Time
	// Interrupted is set when cancellation left some radicados unprocessed.
	Interrupted bool
}

// Duration is the wall time of the run.
func (r *RunResult) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Run queries every radicado with at most Workers cases in flight. Records
// keep the input order. After cancellation no new case starts; unstarted
// cases are absent from the result.
func (rn *Runner) Run(ctx context.Context, runID string, rads []radicado.Radicado) *RunResult {
	now := rn.Now
	if now == nil {
		now = time.Now
	}
	pause := rn.Pause
	if pause == nil {
		pause = ratelimit.Sleep
	}
	workers := max(rn.Workers, 1)

	ctx = log.ContextWithRunID(ctx, runID)
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "consulta.run")
	span.SetAttributes(telemetry.RunAttributes(runID, "", len(rads), workers)...)
	defer span.End()

	logger := log.WithComponentFromContext(ctx, "runner")
	res := &RunResult{RunID: runID, StartedAt: now()}

	slots := make([]Record, len(rads))
	done := make([]bool, len(rads))
	var (
		mu        sync.Mutex
		completed int
	)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, r := range rads {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if i > 0 && rn.CaseDelay > 0 {
				if err := pause(ctx, rn.CaseDelay); err != nil {
					return nil
				}
			}
			if ctx.Err() != nil {
				return nil
			}

			start := now()
			rec, err := rn.Querier.Query(ctx, r)
			if err != nil {
				logger.Debug().Str(log.FieldRadicado, r.String()).Err(err).Msg("case interrupted")
				return nil
			}
			metrics.RecordCase(string(rec.Status), now().Sub(start))
			slots[i], done[i] = rec, true

			if rn.Sink != nil {
				if err := rn.Sink.SaveRecord(context.WithoutCancel(ctx), runID, i, rec); err != nil {
					logger.Warn().Err(err).Str(log.FieldRadicado, r.String()).Msg("failed to persist record")
				}
			}

			mu.Lock()
			completed++
			p := Progress{Done: completed, Total: len(rads), Record: rec}
			if rn.Progress != nil {
				rn.Progress(p)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i, ok := range done {
		if ok {
			res.Records = append(res.Records, slots[i])
		}
	}
	res.Stats = ComputeStats(res.Records)
	res.Interrupted = len(res.Records) < len(rads)
	res.FinishedAt = now()

	ev := logger.Info()
	if res.Interrupted {
		ev = logger.Warn()
	}
	ev.Int("total", len(rads)).
		Int("processed", len(res.Records)).
		Int("success", res.Stats.Success).
		Int("private", res.Stats.Private).
		Int("not_found", res.Stats.NotFound).
		Int("failed", res.Stats.Failed).
		Bool("interrupted", res.Interrupted).
		Dur("elapsed", res.Duration()).
		Msg("run finished")
	return res
}
