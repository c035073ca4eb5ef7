// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package report

import (
	"encoding/json"
	"io"
	"math"
	"time"

	"github.com/ManuGH/consultaprocesos/internal/consulta"
)

type jsonDocument struct {
	Metadata     jsonMetadata      `json:"metadata"`
	Estadisticas jsonStats         `json:"estadisticas"`
	Resumen      jsonResumen       `json:"resumen"`
	Procesos     []consulta.Record `json:"procesos"`
	Privados     []string          `json:"privados"`
}

type jsonMetadata struct {
	FechaConsulta  time.Time `json:"fecha_consulta"`
	RunID          string    `json:"run_id,omitempty"`
	TotalProcesos  int       `json:"total_procesos"`
	Version        string    `json:"version"`
	ArchivoEntrada string    `json:"archivo_entrada,omitempty"`
	Interrumpida   bool      `json:"interrumpida"`
}

type jsonStats struct {
	consulta.Stats
	TasaExito float64 `json:"tasa_exito"`
}

type jsonResumen struct {
	PorDepartamento []consulta.Group `json:"por_departamento"`
	PorTipo         []consulta.Group `json:"por_tipo"`
}

// RenderJSON writes the machine-readable report, indented, UTF-8 unescaped.
func RenderJSON(w io.Writer, rep *Report) error {
	doc := jsonDocument{
		Metadata: jsonMetadata{
			FechaConsulta:  rep.GeneratedAt,
			RunID:          rep.RunID,
			TotalProcesos:  len(rep.Records),
			Version:        rep.Version,
			ArchivoEntrada: rep.InputFile,
			Interrumpida:   rep.Interrupted,
		},
		Estadisticas: jsonStats{
			Stats:     rep.Stats,
			TasaExito: math.Round(rep.Stats.SuccessRate()*100) / 100,
		},
		Resumen: jsonResumen{
			PorDepartamento: nonNil(consulta.ByDepartamento(rep.Records)),
			PorTipo:         nonNil(consulta.ByTipo(rep.Records)),
		},
		Procesos: rep.Records,
		Privados: []string{},
	}
	if doc.Procesos == nil {
		doc.Procesos = []consulta.Record{}
	}
	for _, r := range rep.Records {
		if r.EsPrivado {
			doc.Privados = append(doc.Privados, r.Radicado)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

func nonNil(g []consulta.Group) []consulta.Group {
	if g == nil {
		return []consulta.Group{}
	}
	return g
}
