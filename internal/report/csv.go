// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ManuGH/consultaprocesos/internal/consulta"
)

// Columns is the tabular layout shared by CSV and XLSX.
var Columns = []string{
	"radicado", "demandante", "demandado", "juzgado", "departamento",
	"tipo_proceso", "clase_proceso", "subclase_proceso",
	"fecha_ultima_actuacion", "ultima_actuacion", "anotaciones",
	"es_privado", "status", "error",
}

// Row flattens a record in Columns order.
func Row(r consulta.Record) []string {
	return []string{
		r.Radicado, r.Demandante, r.Demandado, r.Juzgado, r.Departamento,
		r.TipoProceso, r.ClaseProceso, r.SubclaseProceso,
		r.FechaUltimaActuacion, r.UltimaActuacion, r.Anotaciones,
		strconv.FormatBool(r.EsPrivado), string(r.Status), r.Error,
	}
}

// RenderCSV writes a header line and one row per record.
func RenderCSV(w io.Writer, rep *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rep.Records {
		if err := cw.Write(Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
