// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ManuGH/consultaprocesos/internal/backup"
	"github.com/ManuGH/consultaprocesos/internal/consulta"
	"github.com/ManuGH/consultaprocesos/internal/radicado"
	"github.com/ManuGH/consultaprocesos/internal/ramajudicial"
	"github.com/ManuGH/consultaprocesos/internal/report"
	"github.com/ManuGH/consultaprocesos/internal/store"
	"github.com/ManuGH/consultaprocesos/internal/workbook"

	"github.com/spf13/afero"
)

const (
	radPublico = "11001310300120230012300"
	radPrivado = "05001310300220220004500"
	radMissing = "76001310300320210009900"
)

func writeInput(t *testing.T, dir string, values ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "RADICADO"))
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Sheet1", cell, v))
	}
	path := filepath.Join(dir, "PROCESOS.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

type fixture struct {
	pipeline *Pipeline
	store    *store.Store
	outDir   string
	backups  string
}

func newFixture(t *testing.T, values ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	input := writeInput(t, dir, values...)

	srv := ramajudicial.NewMockServer()
	t.Cleanup(srv.Close)
	srv.AddProceso(radPublico,
		ramajudicial.ProcesoSummary{ID: 101, Despacho: "Juzgado 001 Civil del Circuito", Departamento: "BOGOTÁ", SujetosProcesales: "Demandante: ANA PÉREZ | Demandado: BANCO XYZ S.A."},
		ramajudicial.ProcesoDetail{ID: 101, TipoProceso: "Declarativo", ClaseProceso: "Verbal"},
		ramajudicial.Actuacion{FechaActuacion: "2024-05-02T00:00:00", Actuacion: "Auto admite demanda", Anotacion: "Se admite"},
	)
	srv.AddPrivado(radPrivado, 202)

	client := ramajudicial.New(ramajudicial.Options{BaseURL: srv.BaseURL(), Retries: 0})

	st, err := store.Open(context.Background(), filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	outDir := filepath.Join(dir, "output")
	backups := filepath.Join(dir, "backups")
	return &fixture{
		store:   st,
		outDir:  outDir,
		backups: backups,
		pipeline: &Pipeline{
			InputFile: input,
			Version:   "test",
			Reader:    workbook.Reader{Path: input, Rules: radicado.DefaultRules()},
			Runner: &consulta.Runner{
				Querier: consulta.NewQuerier(client),
				Workers: 2,
				Sink:    st,
			},
			Writer:          &report.Writer{Dir: outDir, Formats: []string{report.FormatJSON, report.FormatCSV}},
			History:         st,
			Backup:          backup.New(afero.NewOsFs(), backups),
			BackupRetention: 30 * 24 * time.Hour,
			NewRunID:        func() string { return "run-test" },
		},
	}
}

func TestExecuteEndToEnd(t *testing.T) {
	fx := newFixture(t, radPublico, "abc", radPrivado, radMissing)

	out, err := fx.pipeline.Execute(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "run-test", out.RunID)
	require.Len(t, out.Records, 3)
	assert.Len(t, out.Read.Skipped, 1)
	assert.Equal(t, consulta.StatusSuccess, out.Records[0].Status)
	assert.Equal(t, consulta.StatusPrivate, out.Records[1].Status)
	assert.Equal(t, consulta.StatusNotFound, out.Records[2].Status)
	assert.Equal(t, consulta.Stats{Total: 3, Success: 1, Private: 1, NotFound: 1}, out.Stats)

	for _, f := range []string{report.FormatJSON, report.FormatCSV} {
		require.Contains(t, out.Files, f)
		assert.FileExists(t, out.Files[f])
	}
	assert.FileExists(t, out.BackupPath)

	run, err := fx.store.GetRun(context.Background(), "run-test")
	require.NoError(t, err)
	assert.Equal(t, store.RunCompleted, run.Status)
	assert.Equal(t, 3, run.Stats.Total)

	recs, err := fx.store.RunRecords(context.Background(), "run-test")
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestExecuteDryRunQueriesNothing(t *testing.T) {
	fx := newFixture(t, radPublico)
	out, err := fx.pipeline.Execute(context.Background(), Options{DryRun: true})
	require.NoError(t, err)
	assert.Len(t, out.Read.Radicados, 1)
	assert.Empty(t, out.Records)
	assert.NoDirExists(t, fx.outDir)
	assert.NoDirExists(t, fx.backups)

	_, err = fx.store.GetRun(context.Background(), "run-test")
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestExecuteDeclined(t *testing.T) {
	fx := newFixture(t, radPublico)
	asked := 0
	_, err := fx.pipeline.Execute(context.Background(), Options{Confirm: func(r *workbook.Result) bool {
		asked++
		assert.Len(t, r.Radicados, 1)
		return false
	}})
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, 1, asked)
	assert.NoDirExists(t, fx.outDir)
}

func TestExecuteEmptyInput(t *testing.T) {
	fx := newFixture(t, "no-es-radicado")
	out, err := fx.pipeline.Execute(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrNoRadicados)
	require.NotNil(t, out)
	assert.Len(t, out.Read.Skipped, 1)

	last, err := fx.store.LastRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-test", last.ID)
	assert.Equal(t, store.RunFailed, last.Status)
	assert.Equal(t, ErrNoRadicados.Error(), last.Error)
	assert.False(t, last.FinishedAt.IsZero())
	assert.NoDirExists(t, fx.outDir)
}

func TestExecuteUnreadableInputIsRecorded(t *testing.T) {
	fx := newFixture(t, radPublico)
	require.NoError(t, os.Remove(fx.pipeline.InputFile))

	_, err := fx.pipeline.Execute(context.Background(), Options{Trigger: "schedule"})
	require.ErrorIs(t, err, workbook.ErrFileNotFound)

	run, err := fx.store.GetRun(context.Background(), "run-test")
	require.NoError(t, err)
	assert.Equal(t, store.RunFailed, run.Status)
	assert.Equal(t, "schedule", run.Trigger)
	assert.Contains(t, run.Error, "read input")
}

func TestExecuteDryRunFailureIsNotRecorded(t *testing.T) {
	fx := newFixture(t, "no-es-radicado")
	_, err := fx.pipeline.Execute(context.Background(), Options{DryRun: true})
	assert.ErrorIs(t, err, ErrNoRadicados)

	_, err = fx.store.LastRun(context.Background())
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestExecuteMissingInput(t *testing.T) {
	fx := newFixture(t, radPublico)
	require.NoError(t, os.Remove(fx.pipeline.InputFile))
	fx.pipeline.Reader = workbook.Reader{Path: fx.pipeline.InputFile}

	_, err := fx.pipeline.Execute(context.Background(), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, workbook.ErrFileNotFound))
}

func TestExecuteCancelledStillWritesReports(t *testing.T) {
	fx := newFixture(t, radPublico, radPrivado)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := fx.pipeline.Execute(ctx, Options{})
	require.NoError(t, err)
	assert.True(t, out.Interrupted)
	assert.FileExists(t, out.Files[report.FormatJSON])

	run, err := fx.store.GetRun(context.Background(), "run-test")
	require.NoError(t, err)
	assert.Equal(t, store.RunInterrupted, run.Status)
}
