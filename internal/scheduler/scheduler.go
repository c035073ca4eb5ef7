// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package scheduler drives batch runs in serve mode. Runs never overlap:
// triggers that arrive while a run is active coalesce into one follow-up run.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ManuGH/consultaprocesos/internal/log"
)

// Trigger reasons.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerWatch    = "watch"
	TriggerManual   = "manual"
)

// RunFunc executes one batch.
type RunFunc func(ctx context.Context, trigger string) error

// Options configures a Scheduler.
type Options struct {
	// Interval between scheduled runs. Zero disables the ticker.
	Interval time.Duration
	// RunOnStart queues a run as soon as Run is called.
	RunOnStart bool
	// WatchPath, when set, queues a run whenever the file changes.
	WatchPath string
	// Debounce groups bursts of file events. Zero means 2s.
	Debounce time.Duration
}

// Status is a snapshot of the scheduler.
type Status struct {
	Running        bool      `json:"running"`
	Pending        bool      `json:"pending"`
	CurrentTrigger string    `json:"current_trigger,omitempty"`
	LastTrigger    string    `json:"last_trigger,omitempty"`
	LastStarted    time.Time `json:"last_started,omitzero"`
	LastFinished   time.Time `json:"last_finished,omitzero"`
	LastError      string    `json:"last_error,omitempty"`
	Runs           int       `json:"runs"`
	NextScheduled  time.Time `json:"next_scheduled,omitzero"`
}

// Scheduler is safe for concurrent use.
type Scheduler struct {
	run  RunFunc
	opts Options

	triggers chan string
	now      func() time.Time

	mu     sync.Mutex
	status Status
}

// New returns a Scheduler calling run.
func New(run RunFunc, opts Options) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	return &Scheduler{
		run:      run,
		opts:     opts,
		triggers: make(chan string, 1),
		now:      time.Now,
	}
}

// Trigger queues a run. It returns false when a run is already queued, in
// which case the request coalesces into it.
func (s *Scheduler) Trigger(reason string) bool {
	// Pending and the queue change together under mu; execute reads the
	// queue length under the same lock.
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case s.triggers <- reason:
		s.status.Pending = true
		return true
	default:
		return false
	}
}

// Status returns a snapshot.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Run blocks until ctx is cancelled. A run in progress receives the
// cancellation and Run waits for it to return.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := log.WithComponent("scheduler")

	var wg sync.WaitGroup
	if s.opts.WatchPath != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("scheduler: new watcher: %w", err)
		}
		dir := filepath.Dir(s.opts.WatchPath)
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("scheduler: watch %s: %w", dir, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { _ = watcher.Close() }()
			s.watch(ctx, logger, watcher)
		}()
	}
	defer wg.Wait()

	if s.opts.RunOnStart {
		s.Trigger(TriggerStartup)
	}

	var tick <-chan time.Time
	if s.opts.Interval > 0 {
		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
		s.setNext(s.now().Add(s.opts.Interval))
	}

	logger.Info().
		Dur("interval", s.opts.Interval).
		Str(log.FieldPath, s.opts.WatchPath).
		Msg("scheduler started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler stopped")
			return nil
		case <-tick:
			s.setNext(s.now().Add(s.opts.Interval))
			s.execute(ctx, logger, TriggerSchedule)
		case reason := <-s.triggers:
			s.execute(ctx, logger, reason)
		}
	}
}

func (s *Scheduler) setNext(t time.Time) {
	s.mu.Lock()
	s.status.NextScheduled = t
	s.mu.Unlock()
}

func (s *Scheduler) execute(ctx context.Context, logger zerolog.Logger, trigger string) {
	start := s.now()
	s.mu.Lock()
	s.status.Running = true
	s.status.Pending = len(s.triggers) > 0
	s.status.CurrentTrigger = trigger
	s.status.LastStarted = start
	s.mu.Unlock()

	logger.Info().Str("trigger", trigger).Msg("batch run starting")
	err := s.run(ctx, trigger)

	s.mu.Lock()
	s.status.Running = false
	s.status.Pending = len(s.triggers) > 0
	s.status.CurrentTrigger = ""
	s.status.LastTrigger = trigger
	s.status.LastFinished = s.now()
	s.status.Runs++
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	ev := logger.Info()
	if err != nil && !errors.Is(err, context.Canceled) {
		ev = logger.Error().Err(err)
	}
	ev.Str("trigger", trigger).Dur(log.FieldDuration, s.now().Sub(start)).Msg("batch run finished")
}

// watch turns file events on the watched path into debounced triggers.
// The parent directory is watched because spreadsheet editors replace the
// file on save instead of writing it in place.
func (s *Scheduler) watch(ctx context.Context, logger zerolog.Logger, w *fsnotify.Watcher) {
	target := filepath.Clean(s.opts.WatchPath)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug().Str(log.FieldPath, ev.Name).Str("op", ev.Op.String()).Msg("input changed")
			if timer == nil {
				timer = time.NewTimer(s.opts.Debounce)
			} else {
				timer.Reset(s.opts.Debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if s.Trigger(TriggerWatch) {
				logger.Info().Str(log.FieldPath, target).Msg("input workbook changed, run queued")
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("fsnotify watcher error")
		}
	}
}
