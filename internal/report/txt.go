// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ManuGH/consultaprocesos/internal/consulta"
)

// PrivateMarker heads the block of a private case.
const PrivateMarker = "*** PROCESO PRIVADO ***"

var (
	sepMajor  = strings.Repeat("=", 60)
	sepMinor  = strings.Repeat("-", 40)
	sepRecord = strings.Repeat("-", 20)
)

// RenderText writes the human-readable report.
func RenderText(w io.Writer, rep *Report) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(bw, format, args...) }

	p("CONSULTA DE PROCESOS JUDICIALES\n")
	p("Fecha y hora: %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	if rep.RunID != "" {
		p("Ejecución: %s\n", rep.RunID)
	}
	if rep.Interrupted {
		p("ATENCIÓN: la ejecución fue interrumpida, el reporte está incompleto\n")
	}
	p("%s\n\n", sepMajor)

	s := rep.Stats
	p("RESUMEN EJECUTIVO:\n")
	p("Total de procesos consultados: %d\n", s.Total)
	p("Procesos exitosos: %d\n", s.Success)
	p("Procesos privados encontrados: %d\n", s.Private)
	p("Procesos no encontrados: %d\n", s.NotFound)
	p("Procesos fallidos: %d\n", s.Failed)
	p("Tasa de éxito: %.1f%%\n\n", s.SuccessRate())
	p("%s\n\n", sepMajor)

	for _, r := range rep.Records {
		p("%s\n\n", FormatRecord(r))
	}

	p("\n%s\n", sepMajor)
	p("ANÁLISIS DETALLADO\n")
	p("%s\n", sepMajor)
	p("%s", DetailedAnalysis(rep.Records, s))

	return bw.Flush()
}

// FormatRecord renders one case block.
func FormatRecord(r consulta.Record) string {
	var b strings.Builder
	line := func(format string, args ...any) { fmt.Fprintf(&b, format+"\n", args...) }

	line("%s", sepRecord)
	line("Radicado del proceso: %s", r.Radicado)
	if r.EsPrivado {
		line("%s", PrivateMarker)
		line("Información disponible:")
		line("  Juzgado: %s", r.Juzgado)
		line("  Departamento: %s", r.Departamento)
		line("  Última fecha de actuación: %s", r.FechaUltimaActuacion)
		line("  Estado: %s", consulta.PrivateNotice)
		b.WriteString(sepRecord)
		return b.String()
	}

	line("Información del proceso:")
	line("  Demandante: %s", r.Demandante)
	line("  Demandado: %s", r.Demandado)
	line("  Juzgado: %s", r.Juzgado)
	line("  Departamento: %s", r.Departamento)
	line("  Tipo del proceso: %s", r.TipoProceso)
	line("  Clase del proceso: %s", r.ClaseProceso)
	line("  Subclase del proceso: %s", r.SubclaseProceso)
	line("  Última fecha de actuación: %s", r.FechaUltimaActuacion)
	if consulta.Has(r.UltimaActuacion) {
		line("  Última actuación: %s", r.UltimaActuacion)
	}
	if consulta.Has(r.Anotaciones) {
		line("  Anotaciones: %s", r.Anotaciones)
	}
	if r.Status != consulta.StatusSuccess {
		line("  Estado: %s", statusLabel(r.Status))
	}
	if r.Error != "" {
		line("  Error: %s", r.Error)
	}
	b.WriteString(sepRecord)
	return b.String()
}

func statusLabel(s consulta.Status) string {
	switch s {
	case consulta.StatusNotFound:
		return "NO ENCONTRADO"
	case consulta.StatusFailed:
		return "CONSULTA FALLIDA"
	case consulta.StatusPrivate:
		return "PROCESO PRIVADO"
	default:
		return string(s)
	}
}

// DetailedAnalysis renders the per-departamento and per-tipo breakdown
// followed by the general statistics.
func DetailedAnalysis(records []consulta.Record, s consulta.Stats) string {
	if len(records) == 0 {
		return "No hay procesos para generar reporte\n"
	}
	var b strings.Builder
	line := func(format string, args ...any) { fmt.Fprintf(&b, format+"\n", args...) }

	line("")
	line("ANÁLISIS POR DEPARTAMENTO:")
	for _, g := range consulta.ByDepartamento(records) {
		line("  %s: %d procesos (%.1f%%)", g.Name, g.Count, g.Percent)
	}
	line("")
	line("%s", sepMinor)
	line("ANÁLISIS POR TIPO DE PROCESO:")
	for _, g := range consulta.ByTipo(records) {
		line("  %s: %d procesos (%.1f%%)", g.Name, g.Count, g.Percent)
	}
	line("")
	line("%s", sepMinor)
	line("ESTADÍSTICAS GENERALES:")
	b.WriteString(StatsSummary(s))
	return b.String()
}

// StatsSummary is the processing summary block, also printed by the CLI.
func StatsSummary(s consulta.Stats) string {
	var b strings.Builder
	line := func(format string, args ...any) { fmt.Fprintf(&b, format+"\n", args...) }

	line("%s", sepMajor)
	line("RESUMEN DE PROCESAMIENTO")
	line("%s", sepMajor)
	line("Total de radicados procesados: %d", s.Total)
	line("Consultas exitosas: %d", s.Success)
	line("Procesos privados: %d", s.Private)
	line("Procesos no encontrados: %d", s.NotFound)
	line("Consultas fallidas: %d", s.Failed)
	line("Tasa de éxito: %.1f%%", s.SuccessRate())
	if s.Failed > 0 || s.NotFound > 0 {
		line("")
		line("%s", sepMinor)
		line("DETALLES:")
		line("- Procesos exitosos incluyen información completa")
		line("- Procesos privados tienen información limitada pero son válidos")
		line("- Procesos no encontrados pueden ser radicados incorrectos")
		line("- Consultas fallidas incluyen errores de red y otros problemas técnicos")
	}
	return b.String()
}
