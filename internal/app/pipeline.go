// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package app runs one batch end to end: back up the input, read the
// radicados, query them, write the reports and record the run.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ManuGH/consultaprocesos/internal/backup"
	"github.com/ManuGH/consultaprocesos/internal/consulta"
	"github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/metrics"
	"github.com/ManuGH/consultaprocesos/internal/radicado"
	"github.com/ManuGH/consultaprocesos/internal/report"
	"github.com/ManuGH/consultaprocesos/internal/store"
	"github.com/ManuGH/consultaprocesos/internal/workbook"
)

var (
	// ErrNoRadicados is returned when the input column holds no valid radicado.
	ErrNoRadicados = errors.New("no valid radicados in input")
	// ErrAborted is returned when the confirmation callback declines the run.
	ErrAborted = errors.New("run cancelled by user")
)

// InputReader reads the radicados. workbook.Reader satisfies it.
type InputReader interface {
	Read(ctx context.Context) (*workbook.Result, error)
}

// BatchRunner queries a batch. *consulta.Runner satisfies it.
type BatchRunner interface {
	Run(ctx context.Context, runID string, rads []radicado.Radicado) *consulta.RunResult
}

// ReportWriter renders every configured format. *report.Writer satisfies it.
type ReportWriter interface {
	WriteAll(ctx context.Context, rep *report.Report) (map[string]string, error)
}

// History records runs. *store.Store satisfies it.
type History interface {
	BeginRun(ctx context.Context, id, trigger, inputFile string, startedAt time.Time) error
	FinishRun(ctx context.Context, id string, f store.Finish) error
}

// Backups copies and prunes input backups. *backup.Manager satisfies it.
type Backups interface {
	BackupInput(src string) (string, error)
	Prune(olderThan time.Duration) (int, error)
}

// Pipeline holds the collaborators of a batch. Nil Backup, History and an
// empty LogDir disable the matching step.
type Pipeline struct {
	InputFile string
	Version   string

	Reader  InputReader
	Runner  BatchRunner
	Writer  ReportWriter
	History History
	Backup  Backups

	BackupRetention time.Duration
	LogDir          string
	LogRetention    time.Duration
	Fs              afero.Fs

	Now      func() time.Time
	NewRunID func() string
}

// Options tune a single Execute call.
type Options struct {
	Trigger string
	// DryRun stops after reading and validating the input.
	DryRun bool
	// Confirm is asked before querying; returning false aborts the run.
	Confirm func(read *workbook.Result) bool
}

// Outcome is the result of Execute.
type Outcome struct {
	RunID       string
	Read        *workbook.Result
	BackupPath  string
	Records     []consulta.Record
	Stats       consulta.Stats
	Files       map[string]string
	Interrupted bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration is the wall time of the run.
func (o *Outcome) Duration() time.Duration { return o.FinishedAt.Sub(o.StartedAt) }

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Execute runs one batch. Reports are written even when ctx is cancelled
// mid-run, covering the cases that completed. The returned Outcome is
// non-nil whenever reading the input succeeded. A run that fails before
// querying is still recorded in the history as failed, except in dry runs.
func (p *Pipeline) Execute(ctx context.Context, opts Options) (*Outcome, error) {
	runID := uuid.NewString()
	if p.NewRunID != nil {
		runID = p.NewRunID()
	}
	trigger := opts.Trigger
	if trigger == "" {
		trigger = "cli"
	}
	ctx = log.ContextWithRunID(ctx, runID)
	logger := log.WithComponentFromContext(ctx, "pipeline")

	out := &Outcome{RunID: runID, StartedAt: p.now()}

	// reading, history and reports must complete even after an interrupt;
	// only the runner stops early
	bg := context.WithoutCancel(ctx)

	if p.Backup != nil && !opts.DryRun {
		path, err := p.Backup.BackupInput(p.InputFile)
		if err != nil {
			logger.Warn().Err(err).Str(log.FieldPath, p.InputFile).Msg("input backup failed, continuing")
		}
		out.BackupPath = path
	}

	read, err := p.Reader.Read(bg)
	if err != nil {
		err = fmt.Errorf("read input: %w", err)
		p.recordFailure(bg, logger, out, trigger, opts.DryRun, err)
		return nil, err
	}
	out.Read = read
	logger.Info().
		Int("radicados", len(read.Radicados)).
		Int("skipped", len(read.Skipped)).
		Str("sheet", read.Sheet).
		Msg("input read")

	if len(read.Radicados) == 0 {
		p.recordFailure(bg, logger, out, trigger, opts.DryRun, ErrNoRadicados)
		return out, ErrNoRadicados
	}
	if opts.DryRun {
		out.FinishedAt = p.now()
		return out, nil
	}
	if opts.Confirm != nil && !opts.Confirm(read) {
		return out, ErrAborted
	}

	if p.History != nil {
		if err := p.History.BeginRun(bg, runID, trigger, p.InputFile, out.StartedAt); err != nil {
			logger.Warn().Err(err).Msg("could not record run start")
		}
	}

	res := p.Runner.Run(ctx, runID, read.Radicados)
	out.Records = res.Records
	out.Stats = res.Stats
	out.Interrupted = res.Interrupted

	files, werr := p.Writer.WriteAll(bg, &report.Report{
		RunID:       runID,
		Version:     p.Version,
		InputFile:   p.InputFile,
		GeneratedAt: p.now(),
		Records:     res.Records,
		Stats:       res.Stats,
		Interrupted: res.Interrupted,
	})
	out.Files = files
	out.FinishedAt = p.now()

	status := store.RunCompleted
	switch {
	case werr != nil:
		status = store.RunFailed
	case res.Interrupted:
		status = store.RunInterrupted
	}
	metrics.RecordRun(metrics.RunSummary{
		Outcome:     status,
		ByStatus:    res.Stats.ByStatus(),
		SuccessRate: res.Stats.SuccessRate(),
		Duration:    out.Duration(),
		FinishedAt:  out.FinishedAt,
	})

	if p.History != nil {
		fin := store.Finish{
			FinishedAt: out.FinishedAt,
			Status:     status,
			Stats:      res.Stats,
			Files:      files,
		}
		if werr != nil {
			fin.Error = werr.Error()
		}
		if err := p.History.FinishRun(bg, runID, fin); err != nil {
			logger.Warn().Err(err).Msg("could not record run result")
		}
	}

	p.prune(logger)

	logger.Info().
		Str(log.FieldStatus, status).
		Int("total", res.Stats.Total).
		Float64("success_rate", res.Stats.SuccessRate()).
		Dur(log.FieldDuration, out.Duration()).
		Msg("batch finished")

	if werr != nil {
		return out, fmt.Errorf("write reports: %w", werr)
	}
	return out, nil
}

// recordFailure marks a run that ended before any case was queried.
func (p *Pipeline) recordFailure(ctx context.Context, logger zerolog.Logger, out *Outcome, trigger string, dryRun bool, cause error) {
	out.FinishedAt = p.now()
	if dryRun {
		return
	}
	metrics.RecordRun(metrics.RunSummary{
		Outcome:    store.RunFailed,
		Duration:   out.Duration(),
		FinishedAt: out.FinishedAt,
	})
	if p.History == nil {
		return
	}
	if err := p.History.BeginRun(ctx, out.RunID, trigger, p.InputFile, out.StartedAt); err != nil {
		logger.Warn().Err(err).Msg("could not record run start")
		return
	}
	fin := store.Finish{FinishedAt: out.FinishedAt, Status: store.RunFailed, Error: cause.Error()}
	if err := p.History.FinishRun(ctx, out.RunID, fin); err != nil {
		logger.Warn().Err(err).Msg("could not record run result")
	}
}

// prune removes old backups and logs. Failures only warn.
func (p *Pipeline) prune(logger zerolog.Logger) {
	if p.Backup != nil && p.BackupRetention > 0 {
		if n, err := p.Backup.Prune(p.BackupRetention); err != nil {
			logger.Warn().Err(err).Msg("backup pruning failed")
		} else if n > 0 {
			logger.Info().Int("removed", n).Msg("old backups pruned")
		}
	}
	if p.LogDir != "" && p.LogRetention > 0 {
		if n, err := backup.PruneLogs(p.Fs, p.LogDir, p.now(), p.LogRetention); err != nil {
			logger.Warn().Err(err).Msg("log pruning failed")
		} else if n > 0 {
			logger.Info().Int("removed", n).Msg("old logs pruned")
		}
	}
}
