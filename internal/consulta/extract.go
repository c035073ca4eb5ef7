// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package consulta

import (
	"strings"
	"time"
	"unicode"

	"github.com/ManuGH/consultaprocesos/internal/ramajudicial"
	"github.com/araddon/dateparse"
)

const maxAnotaciones = 3

// Clean removes control characters and collapses runs of whitespace. An
// empty result becomes the placeholder.
func Clean(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return Placeholder
	}
	return s
}

// SplitSujetos extracts demandante and demandado from the API's
// "Demandante: X | Demandado: Y" text.
func SplitSujetos(text string) (demandante, demandado string) {
	demandante, demandado = Placeholder, Placeholder
	for _, part := range strings.Split(text, "|") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "Demandante:"):
			demandante = Clean(strings.TrimPrefix(part, "Demandante:"))
		case strings.HasPrefix(part, "Demandado:"):
			demandado = Clean(strings.TrimPrefix(part, "Demandado:"))
		}
	}
	return demandante, demandado
}

// UltimaActuacion returns the newest actuación, which the API lists first.
func UltimaActuacion(acts []ramajudicial.Actuacion) string {
	if len(acts) == 0 {
		return Placeholder
	}
	return Clean(acts[0].Actuacion)
}

// JoinAnotaciones joins the non-empty anotaciones of the three newest actuaciones.
func JoinAnotaciones(acts []ramajudicial.Actuacion) string {
	if len(acts) > maxAnotaciones {
		acts = acts[:maxAnotaciones]
	}
	var notes []string
	for _, a := range acts {
		if n := Clean(a.Anotacion); Has(n) {
			notes = append(notes, n)
		}
	}
	if len(notes) == 0 {
		return Placeholder
	}
	return strings.Join(notes, " | ")
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006/01/02"}

// FormatDate normalises an API date to YYYY-MM-DD. Values that cannot be
// parsed are returned unchanged; empty ones become the placeholder.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Placeholder
	}

	day := s
	if i := strings.IndexByte(day, 'T'); i > 0 {
		day = day[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, day); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t.Format("2006-01-02")
	}
	return s
}
