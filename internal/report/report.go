// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package report writes batch results as TXT, CSV, JSON and XLSX files.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ManuGH/consultaprocesos/internal/consulta"
	"github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/metrics"
)

// Formats.
const (
	FormatTXT  = "txt"
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// DefaultPrefix starts every report file name.
const DefaultPrefix = "resultados_consulta_procesos"

// timestampLayout is embedded in file names.
const timestampLayout = "20060102_150405"

var ErrUnknownFormat = errors.New("report: unknown format")

// Report is everything a writer needs to render one run.
type Report struct {
	RunID       string
	Version     string
	InputFile   string
	GeneratedAt time.Time
	Records     []consulta.Record
	Stats       consulta.Stats
	Interrupted bool
}

// Writer renders reports into Dir.
type Writer struct {
	Dir     string
	Prefix  string
	Formats []string
}

type renderFunc func(io.Writer, *Report) error

var renderers = map[string]renderFunc{
	FormatTXT:  RenderText,
	FormatCSV:  RenderCSV,
	FormatJSON: RenderJSON,
	FormatXLSX: RenderXLSX,
}

// Supported lists the formats Write accepts.
func Supported() []string {
	out := make([]string, 0, len(renderers))
	for f := range renderers {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// runIDChars is how much of the run ID goes into file names.
const runIDChars = 8

// FileName builds "<prefix>_<YYYYMMDD_HHMMSS>_<run>.<ext>", where <run> is
// the start of runID. Runs finishing in the same second get distinct files.
// An empty runID leaves the suffix out.
func FileName(prefix string, at time.Time, runID, ext string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	name := prefix + "_" + at.Format(timestampLayout)
	if tag := runTag(runID); tag != "" {
		name += "_" + tag
	}
	return name + "." + ext
}

func runTag(runID string) string {
	tag := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return -1
	}, runID)
	if len(tag) > runIDChars {
		tag = tag[:runIDChars]
	}
	return tag
}

// Write renders rep in one format and returns the file path.
func (w *Writer) Write(ctx context.Context, format string, rep *Report) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	render, ok := renderers[format]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := os.MkdirAll(w.Dir, 0o750); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", w.Dir, err)
	}

	path := filepath.Join(w.Dir, FileName(w.Prefix, rep.GeneratedAt, rep.RunID, format))
	err := writeAtomic(path, func(out io.Writer) error { return render(out, rep) })
	metrics.RecordReportWrite(format, err)
	if err != nil {
		return "", fmt.Errorf("write %s report: %w", format, err)
	}

	logger := log.WithComponentFromContext(ctx, "report")
	logger.Info().
		Str(log.FieldFormat, format).
		Str(log.FieldPath, path).
		Msg("report written")
	return path, nil
}

// WriteAll writes every configured format. All formats are attempted; the
// first error is returned along with the files that did get written.
func (w *Writer) WriteAll(ctx context.Context, rep *Report) (map[string]string, error) {
	files := make(map[string]string, len(w.Formats))
	var firstErr error
	logger := log.WithComponentFromContext(ctx, "report")
	for _, f := range w.Formats {
		path, err := w.Write(ctx, f, rep)
		if err != nil {
			logger.Error().Err(err).Str(log.FieldFormat, f).Msg("report failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		files[f] = path
	}
	return files, firstErr
}
