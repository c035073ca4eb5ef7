// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans across the application.
const (
	CaseRadicadoKey  = "consulta.radicado"
	CaseStatusKey    = "consulta.status"
	CaseProcesoIDKey = "consulta.proceso_id"
	CaseMatchesKey   = "consulta.matches"
	CasePrivateKey   = "consulta.private"

	RunIDKey       = "run.id"
	RunTotalKey    = "run.total"
	RunWorkersKey  = "run.workers"
	RunTriggerKey  = "run.trigger"
	RunOutcomeKey  = "run.outcome"
	RunDurationKey = "run.duration_ms"

	HTTPMethodKey     = "http.method"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPStatusCodeKey = "http.status_code"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// CaseAttributes describes the outcome of one case lookup.
func CaseAttributes(radicado, status string, procesoID int64, matches int, private bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(CaseRadicadoKey, radicado),
		attribute.String(CaseStatusKey, status),
		attribute.Int(CaseMatchesKey, matches),
		attribute.Bool(CasePrivateKey, private),
	}
	if procesoID > 0 {
		attrs = append(attrs, attribute.Int64(CaseProcesoIDKey, procesoID))
	}
	return attrs
}

// RunAttributes describes a batch run when it starts.
func RunAttributes(runID, trigger string, total, workers int) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if runID != "" {
		attrs = append(attrs, attribute.String(RunIDKey, runID))
	}
	if trigger != "" {
		attrs = append(attrs, attribute.String(RunTriggerKey, trigger))
	}
	return append(attrs,
		attribute.Int(RunTotalKey, total),
		attribute.Int(RunWorkersKey, workers),
	)
}

// ErrorAttributes marks a span as failed with a coarse error category.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}
