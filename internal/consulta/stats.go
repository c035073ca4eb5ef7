// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package consulta

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Stats counts records by status.
type Stats struct {
	Total    int `json:"total_procesados"`
	Success  int `json:"exitosos"`
	Private  int `json:"privados"`
	NotFound int `json:"no_encontrados"`
	Failed   int `json:"fallidos"`
}

// Add counts one record outcome.
func (s *Stats) Add(status Status) {
	s.Total++
	switch status {
	case StatusSuccess:
		s.Success++
	case StatusPrivate:
		s.Private++
	case StatusNotFound:
		s.NotFound++
	default:
		s.Failed++
	}
}

// SuccessRate is the share of cases answered by the API, private ones
// included, as a percentage.
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success+s.Private) / float64(s.Total) * 100
}

// ByStatus returns the counts keyed by status name.
func (s Stats) ByStatus() map[string]int {
	return map[string]int{
		string(StatusSuccess):  s.Success,
		string(StatusPrivate):  s.Private,
		string(StatusNotFound): s.NotFound,
		string(StatusFailed):   s.Failed,
	}
}

// ComputeStats tallies records.
func ComputeStats(records []Record) Stats {
	var s Stats
	for _, r := range records {
		s.Add(r.Status)
	}
	return s
}

// Group labels used by the summaries.
const (
	GroupPrivate        = "PROCESO PRIVADO"
	GroupNoDepartamento = "Sin departamento"
	GroupNoTipo         = "Sin tipo definido"
)

// Group is one row of a summary.
type Group struct {
	Name    string  `json:"nombre"`
	Count   int     `json:"cantidad"`
	Percent float64 `json:"porcentaje"`
}

// ByDepartamento groups records by departamento.
func ByDepartamento(records []Record) []Group {
	return summarize(records, func(r Record) string {
		if !Has(r.Departamento) {
			return GroupNoDepartamento
		}
		return r.Departamento
	})
}

// ByTipo groups records by tipo de proceso. Private cases form their own group.
func ByTipo(records []Record) []Group {
	return summarize(records, func(r Record) string {
		switch {
		case r.EsPrivado:
			return GroupPrivate
		case !Has(r.TipoProceso):
			return GroupNoTipo
		default:
			return r.TipoProceso
		}
	})
}

// summarize groups case- and accent-insensitively, keeping the first
// spelling seen, and sorts by count descending then name.
func summarize(records []Record, label func(Record) string) []Group {
	idx := make(map[string]int)
	var groups []Group
	for _, r := range records {
		name := label(r)
		key := foldKey(name)
		if i, ok := idx[key]; ok {
			groups[i].Count++
			continue
		}
		idx[key] = len(groups)
		groups = append(groups, Group{Name: name, Count: 1})
	}

	for i := range groups {
		groups[i].Percent = float64(groups[i].Count) / float64(len(records)) * 100
	}
	slices.SortStableFunc(groups, func(a, b Group) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return groups
}

// foldKey builds a fresh transformer per call: transform chains are stateful.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.Join(strings.Fields(out), " "))
}
