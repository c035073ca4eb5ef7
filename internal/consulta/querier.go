// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package consulta

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/radicado"
	"github.com/ManuGH/consultaprocesos/internal/ramajudicial"
	"github.com/ManuGH/consultaprocesos/internal/telemetry"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "consultaprocesos/consulta"

// API is the subset of the Rama Judicial client the lookup needs.
type API interface {
	SearchByNumber(ctx context.Context, numero string) (*ramajudicial.SearchResult, error)
	Detail(ctx context.Context, id int64) (*ramajudicial.ProcesoDetail, error)
	Actuaciones(ctx context.Context, id int64, page int) (*ramajudicial.ActuacionesPage, error)
}

// Querier runs the per-case lookup against the API.
type Querier struct {
	api API
	now func() time.Time
}

// NewQuerier returns a Querier backed by api.
func NewQuerier(api API) *Querier {
	return &Querier{api: api, now: time.Now}
}

// Query looks up one case. API failures are reported in the record's status;
// the returned error is only set when ctx ends before the case completes.
func (q *Querier) Query(ctx context.Context, r radicado.Radicado) (Record, error) {
	ctx = log.ContextWithRadicado(ctx, r.String())
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "consulta.case")
	defer span.End()

	logger := log.WithComponentFromContext(ctx, "consulta")
	rec := NewRecord(r.String(), q.now())

	rec, err := q.lookup(ctx, rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return rec, err
	}

	span.SetAttributes(telemetry.CaseAttributes(rec.Radicado, string(rec.Status), rec.IDProceso, rec.Matches, rec.EsPrivado)...)
	if rec.Status == StatusFailed {
		span.SetStatus(codes.Error, rec.Error)
	}

	ev := logger.Info()
	if rec.Status == StatusFailed {
		ev = logger.Warn().Str("error", rec.Error)
	}
	ev.Str(log.FieldStatus, string(rec.Status)).Int("matches", rec.Matches).Msg("case processed")
	return rec, nil
}

func (q *Querier) lookup(ctx context.Context, rec Record) (Record, error) {
	logger := log.WithComponentFromContext(ctx, "consulta")

	res, err := q.api.SearchByNumber(ctx, rec.Radicado)
	if err != nil {
		if isCancel(ctx, err) {
			return rec, err
		}
		if errors.Is(err, ramajudicial.ErrNotFound) {
			rec.Status = StatusNotFound
			return rec, nil
		}
		return failed(rec, err), nil
	}
	if len(res.Procesos) == 0 {
		rec.Status = StatusNotFound
		return rec, nil
	}

	rec.Matches = len(res.Procesos)
	if rec.Matches > 1 {
		logger.Info().Int("matches", rec.Matches).Msg("several procesos share the radicado, using the first")
	}
	first := res.Procesos[0]
	rec.IDProceso = first.ID
	rec.Juzgado = Clean(first.Despacho)
	rec.Departamento = Clean(first.Departamento)
	rec.FechaUltimaActuacion = FormatDate(first.FechaUltimaActuacion)

	if first.EsPrivado {
		rec.EsPrivado = true
		rec.UltimaActuacion = PrivateNotice
		rec.Anotaciones = PrivateNotice
		rec.Status = StatusPrivate
		return rec, nil
	}

	rec.Demandante, rec.Demandado = SplitSujetos(first.SujetosProcesales)
	if first.ID == 0 {
		rec.Error = "la búsqueda no devolvió idProceso"
		rec.Status = StatusFailed
		return rec, nil
	}

	detail, err := q.api.Detail(ctx, first.ID)
	if err != nil {
		if isCancel(ctx, err) {
			return rec, err
		}
		return failed(rec, err), nil
	}
	if d := Clean(detail.Despacho); Has(d) {
		rec.Juzgado = d
	}
	rec.TipoProceso = Clean(detail.TipoProceso)
	rec.ClaseProceso = Clean(detail.ClaseProceso)
	rec.SubclaseProceso = Clean(detail.SubclaseProceso)
	if detail.EsPrivado {
		rec.EsPrivado = true
	}

	page, err := q.api.Actuaciones(ctx, first.ID, 1)
	switch {
	case err == nil:
		rec.UltimaActuacion = UltimaActuacion(page.Actuaciones)
		rec.Anotaciones = JoinAnotaciones(page.Actuaciones)
	case isCancel(ctx, err):
		return rec, err
	default:
		logger.Warn().Err(err).Int64(log.FieldProcesoID, first.ID).Msg("actuaciones unavailable, continuing")
	}

	if rec.EsPrivado {
		rec.UltimaActuacion = PrivateNotice
		rec.Anotaciones = PrivateNotice
		rec.Status = StatusPrivate
		return rec, nil
	}
	rec.Status = StatusSuccess
	return rec, nil
}

func failed(rec Record, err error) Record {
	rec.Status = StatusFailed
	rec.Error = strings.Join(strings.Fields(err.Error()), " ")
	return rec
}

// isCancel reports whether err is due to ctx ending, in which case the case
// counts as not started rather than failed.
func isCancel(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}
