// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package store keeps the history of batch runs and their records in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/consultaprocesos/internal/consulta"
	"github.com/ManuGH/consultaprocesos/internal/persistence/sqlite"
)

// Run statuses.
const (
	RunRunning     = "running"
	RunCompleted   = "completed"
	RunInterrupted = "interrupted"
	RunFailed      = "failed"
)

var ErrRunNotFound = errors.New("store: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	started_at   TEXT NOT NULL,
	finished_at  TEXT,
	trigger      TEXT NOT NULL DEFAULT '',
	input_file   TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	total        INTEGER NOT NULL DEFAULT 0,
	success      INTEGER NOT NULL DEFAULT 0,
	private      INTEGER NOT NULL DEFAULT 0,
	not_found    INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	success_rate REAL NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	files        TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at DESC);

CREATE TABLE IF NOT EXISTS records (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq          INTEGER NOT NULL,
	radicado     TEXT NOT NULL,
	status       TEXT NOT NULL,
	es_privado   INTEGER NOT NULL DEFAULT 0,
	consulted_at TEXT NOT NULL,
	data         TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS records_radicado ON records(radicado);
`

// Run is one row of the history.
type Run struct {
	ID          string            `json:"id"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at,omitzero"`
	Trigger     string            `json:"trigger"`
	InputFile   string            `json:"input_file"`
	Status      string            `json:"status"`
	Stats       consulta.Stats    `json:"stats"`
	SuccessRate float64           `json:"success_rate"`
	Error       string            `json:"error,omitempty"`
	Files       map[string]string `json:"files,omitempty"`
}

// Duration is zero while the run is in progress.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Finish carries the final state of a run.
type Finish struct {
	FinishedAt time.Time
	Status     string
	Stats      consulta.Stats
	Error      string
	Files      map[string]string
}

// Store is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (and migrates) the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Verify runs an integrity check over the database file.
func (s *Store) Verify(ctx context.Context, full bool) ([]string, error) {
	mode := "quick"
	if full {
		mode = "full"
	}
	return sqlite.VerifyIntegrity(ctx, s.path, mode)
}

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, id, trigger, inputFile string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, trigger, input_file, status) VALUES (?, ?, ?, ?, ?)`,
		id, formatTime(startedAt), trigger, inputFile, RunRunning)
	if err != nil {
		return fmt.Errorf("store: begin run: %w", err)
	}
	return nil
}

// SaveRecord upserts one record of a run. It satisfies consulta.RecordSink.
func (s *Store) SaveRecord(ctx context.Context, runID string, seq int, rec consulta.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (run_id, seq, radicado, status, es_privado, consulted_at, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, seq) DO UPDATE SET
		   radicado = excluded.radicado, status = excluded.status, es_privado = excluded.es_privado,
		   consulted_at = excluded.consulted_at, data = excluded.data`,
		runID, seq, rec.Radicado, string(rec.Status), rec.EsPrivado, formatTime(rec.ConsultedAt), string(data))
	if err != nil {
		return fmt.Errorf("store: save record: %w", err)
	}
	return nil
}

// FinishRun records the final state of a run.
func (s *Store) FinishRun(ctx context.Context, id string, f Finish) error {
	files, err := json.Marshal(f.Files)
	if err != nil {
		return fmt.Errorf("store: encode files: %w", err)
	}
	if f.Files == nil {
		files = []byte("{}")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, total = ?, success = ?, private = ?,
		   not_found = ?, failed = ?, success_rate = ?, error = ?, files = ?
		 WHERE id = ?`,
		formatTime(f.FinishedAt), f.Status, f.Stats.Total, f.Stats.Success, f.Stats.Private,
		f.Stats.NotFound, f.Stats.Failed, f.Stats.SuccessRate(), f.Error, string(files), id)
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, trigger, input_file, status, total, success,
	private, not_found, failed, success_rate, error, files`

// ListRuns returns up to limit runs, newest first. limit <= 0 means 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// LastRun returns the most recent run, or ErrRunNotFound when there is none.
func (s *Store) LastRun(ctx context.Context) (Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrRunNotFound
	}
	return runs[0], nil
}

// RunRecords returns the records of a run in input order.
func (s *Store) RunRecords(ctx context.Context, runID string) ([]consulta.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM records WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: run records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []consulta.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		var rec consulta.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("store: decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r              Run
		started, files string
		finished       sql.NullString
	)
	err := sc.Scan(&r.ID, &started, &finished, &r.Trigger, &r.InputFile, &r.Status,
		&r.Stats.Total, &r.Stats.Success, &r.Stats.Private, &r.Stats.NotFound, &r.Stats.Failed,
		&r.SuccessRate, &r.Error, &files)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("store: scan run: %w", err)
	}
	r.StartedAt = parseTime(started)
	if finished.Valid {
		r.FinishedAt = parseTime(finished.String)
	}
	if files != "" && files != "{}" {
		_ = json.Unmarshal([]byte(files), &r.Files)
	}
	return r, nil
}

// timeLayout is fixed width so that text ordering in SQL matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
