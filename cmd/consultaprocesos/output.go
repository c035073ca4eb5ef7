// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ManuGH/consultaprocesos/internal/app"
	"github.com/ManuGH/consultaprocesos/internal/consulta"
	"github.com/ManuGH/consultaprocesos/internal/workbook"
)

const (
	iconCheck   = "✅"
	iconError   = "❌"
	iconWarning = "⚠️"
	iconSuccess = "✓"
	iconLoading = "⏳"
	iconPrivate = "🔒"

	previewRadicados = 5
	topDepartamentos = 5
)

var (
	separatorMajor = strings.Repeat("=", 60)
	separatorMinor = strings.Repeat("-", 40)
)

func printBanner(out io.Writer) {
	fmt.Fprintln(out, separatorMajor)
	fmt.Fprintln(out, "CONSULTA DE PROCESOS JUDICIALES")
	fmt.Fprintln(out, "Rama Judicial de Colombia")
	fmt.Fprintln(out, separatorMajor)
}

func printHeading(out io.Writer, title string) {
	fmt.Fprintf(out, "\n%s\n%s\n%s\n", separatorMajor, title, separatorMajor)
}

// printRead lists what the reader found: count, the first radicados and
// every skipped row.
func printRead(out io.Writer, read *workbook.Result) {
	if read == nil {
		return
	}
	fmt.Fprintf(out, "%s %d radicados encontrados (hoja %q)\n", iconSuccess, len(read.Radicados), read.Sheet)
	if n := len(read.Radicados); n > 0 {
		fmt.Fprintln(out, "\nPrimeros radicados:")
		for i, r := range read.Radicados {
			if i == previewRadicados {
				fmt.Fprintf(out, "  ... y %d más\n", n-previewRadicados)
				break
			}
			fmt.Fprintf(out, "  %d. %s\n", i+1, r)
		}
	}
	if len(read.Skipped) > 0 {
		fmt.Fprintf(out, "\n%s %d valores omitidos:\n", iconWarning, len(read.Skipped))
		for _, s := range read.Skipped {
			fmt.Fprintf(out, "  fila %d: %q (%s)\n", s.Row, s.Value, s.Reason)
		}
	}
}

// progressPrinter renders one line per completed case. The runner calls it
// serially.
func progressPrinter(out io.Writer) func(consulta.Progress) {
	first := true
	return func(p consulta.Progress) {
		if first {
			printHeading(out, "INICIANDO CONSULTA DE PROCESOS")
			first = false
		}
		rec := p.Record
		prefix := fmt.Sprintf("[%d/%d] %s", p.Done, p.Total, rec.Radicado)
		switch rec.Status {
		case consulta.StatusSuccess:
			fmt.Fprintf(out, "%s %s COMPLETADO  %s\n", prefix, iconSuccess, rec.Juzgado)
		case consulta.StatusPrivate:
			fmt.Fprintf(out, "%s %s PRIVADO\n", prefix, iconPrivate)
		case consulta.StatusNotFound:
			fmt.Fprintf(out, "%s %s NO ENCONTRADO\n", prefix, iconWarning)
		default:
			fmt.Fprintf(out, "%s %s FALLIDO: %s\n", prefix, iconError, rec.Error)
		}
	}
}

func printFiles(out io.Writer, files map[string]string) {
	if len(files) == 0 {
		return
	}
	printHeading(out, "GENERANDO REPORTES")
	formats := make([]string, 0, len(files))
	for f := range files {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	fmt.Fprintf(out, "%s Archivos generados:\n", iconSuccess)
	for _, f := range formats {
		fmt.Fprintf(out, "  - %s: %s\n", strings.ToUpper(f), files[f])
	}
}

func printSummary(out io.Writer, o *app.Outcome) {
	printHeading(out, "RESUMEN FINAL")
	s := o.Stats
	fmt.Fprintf(out, "Total de radicados procesados: %d\n", s.Total)
	fmt.Fprintf(out, "Consultas exitosas: %d\n", s.Success)
	fmt.Fprintf(out, "Procesos privados: %d\n", s.Private)
	fmt.Fprintf(out, "Procesos no encontrados: %d\n", s.NotFound)
	fmt.Fprintf(out, "Consultas fallidas: %d\n", s.Failed)
	fmt.Fprintf(out, "Tasa de éxito: %.1f%%\n", s.SuccessRate())
	fmt.Fprintf(out, "Duración: %s\n", o.Duration().Round(time.Second))
	fmt.Fprintf(out, "ID de ejecución: %s\n", o.RunID)

	groups := consulta.ByDepartamento(o.Records)
	if len(groups) == 0 {
		return
	}
	fmt.Fprintln(out, "\nProcesos por departamento:")
	for i, g := range groups {
		if i == topDepartamentos {
			fmt.Fprintf(out, "  ... y %d departamentos más\n", len(groups)-topDepartamentos)
			break
		}
		fmt.Fprintf(out, "  %s: %d\n", g.Name, g.Count)
	}
}
