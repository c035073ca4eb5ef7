// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package consulta turns radicados into result records: it runs the
// search/detail/actuaciones lookup per case and drives batches of cases.
package consulta

import "time"

// Status is the outcome of one case lookup.
type Status string

const (
	StatusSuccess  Status = "SUCCESS"
	StatusPrivate  Status = "PRIVATE"
	StatusNotFound Status = "NOT_FOUND"
	StatusFailed   Status = "FAILED"
)

const (
	// Placeholder fills every field the API did not provide.
	Placeholder = "No disponible"
	// PrivateNotice replaces the restricted fields of a private case.
	PrivateNotice = "PROCESO PRIVADO - Información restringida"
)

// Record is the flattened result for one radicado.
type Record struct {
	Radicado             string    `json:"radicado"`
	IDProceso            int64     `json:"id_proceso,omitempty"`
	Demandante           string    `json:"demandante"`
	Demandado            string    `json:"demandado"`
	Juzgado              string    `json:"juzgado"`
	Departamento         string    `json:"departamento"`
	TipoProceso          string    `json:"tipo_proceso"`
	ClaseProceso         string    `json:"clase_proceso"`
	SubclaseProceso      string    `json:"subclase_proceso"`
	FechaUltimaActuacion string    `json:"fecha_ultima_actuacion"`
	UltimaActuacion      string    `json:"ultima_actuacion"`
	Anotaciones          string    `json:"anotaciones"`
	EsPrivado            bool      `json:"es_privado"`
	Status               Status    `json:"status"`
	Error                string    `json:"error,omitempty"`
	Matches              int       `json:"coincidencias"`
	ConsultedAt          time.Time `json:"fecha_consulta"`
}

// NewRecord returns a record for radicado with every field set to the placeholder.
func NewRecord(radicado string, at time.Time) Record {
	return Record{
		Radicado:             radicado,
		Demandante:           Placeholder,
		Demandado:            Placeholder,
		Juzgado:              Placeholder,
		Departamento:         Placeholder,
		TipoProceso:          Placeholder,
		ClaseProceso:         Placeholder,
		SubclaseProceso:      Placeholder,
		FechaUltimaActuacion: Placeholder,
		UltimaActuacion:      Placeholder,
		Anotaciones:          Placeholder,
		Status:               StatusFailed,
		ConsultedAt:          at,
	}
}

// Has reports whether v carries real data rather than the placeholder.
func Has(v string) bool {
	return v != "" && v != Placeholder
}
