// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package workbook reads radicados from the input spreadsheet.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/metrics"
	"github.com/ManuGH/consultaprocesos/internal/radicado"
	"github.com/xuri/excelize/v2"
)

var (
	ErrFileNotFound  = errors.New("workbook: file not found")
	ErrSheetNotFound = errors.New("workbook: sheet not found")
	ErrInvalidFormat = errors.New("workbook: not a readable spreadsheet")
)

// Reader reads one column of a sheet, top to bottom.
type Reader struct {
	Path     string
	Sheet    string // empty selects the first sheet
	Column   string // column letter, default "A"
	StartRow int    // 1-based, default 2 (row 1 is the header)
	Rules    radicado.Rules
}

// Skipped is a non-empty cell that did not hold a valid radicado.
type Skipped struct {
	Row    int    `json:"row"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Result is the outcome of Read.
type Result struct {
	Sheet     string
	Radicados []radicado.Radicado
	Skipped   []Skipped
	// LastRow is the last row inspected, i.e. the first blank one.
	LastRow int
}

// Info describes the workbook without reading the data column.
type Info struct {
	Path       string    `json:"ruta"`
	Size       int64     `json:"tamano_bytes"`
	ModTime    time.Time `json:"modificado"`
	Sheet      string    `json:"hoja"`
	Sheets     []string  `json:"hojas"`
	TotalRows  int       `json:"filas_totales"`
	HeaderCell string    `json:"primera_celda"`
}

func (r Reader) column() string {
	if c := strings.ToUpper(strings.TrimSpace(r.Column)); c != "" {
		return c
	}
	return "A"
}

func (r Reader) startRow() int {
	if r.StartRow < 1 {
		return 2
	}
	return r.StartRow
}

func (r Reader) rules() radicado.Rules {
	if r.Rules.MinLength == 0 && r.Rules.MaxLength == 0 {
		return radicado.DefaultRules()
	}
	return r.Rules
}

// open validates the path and returns the workbook plus the resolved sheet.
func (r Reader) open() (*excelize.File, string, os.FileInfo, error) {
	st, err := os.Stat(r.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", nil, fmt.Errorf("%w: %s", ErrFileNotFound, r.Path)
		}
		return nil, "", nil, fmt.Errorf("stat %s: %w", r.Path, err)
	}
	if st.IsDir() {
		return nil, "", nil, fmt.Errorf("%w: %s is a directory", ErrInvalidFormat, r.Path)
	}

	f, err := excelize.OpenFile(r.Path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, r.Path, err)
	}

	sheet := r.Sheet
	sheets := f.GetSheetList()
	if sheet == "" {
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, "", nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
		}
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		_ = f.Close()
		return nil, "", nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheet, strings.Join(sheets, ", "))
	}
	return f, sheet, st, nil
}

// Read walks the column from StartRow down and stops at the first blank
// cell. Invalid values are skipped and reported, never fatal.
func (r Reader) Read(ctx context.Context) (*Result, error) {
	logger := log.WithComponentFromContext(ctx, "workbook")

	f, sheet, _, err := r.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	col := r.column()
	rules := r.rules()
	res := &Result{Sheet: sheet}

	logger.Info().
		Str(log.FieldPath, r.Path).
		Str("sheet", sheet).
		Str("column", col).
		Msg("reading radicados")

	for row := r.startRow(); ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cell := fmt.Sprintf("%s%d", col, row)
		raw, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return nil, fmt.Errorf("read %s!%s: %w", sheet, cell, err)
		}
		res.LastRow = row

		value := strings.TrimSpace(raw)
		if value == "" {
			logger.Debug().Int("row", row).Msg("blank cell, stopping")
			break
		}

		rad, err := radicado.Parse(value, rules)
		if err != nil {
			metrics.IncInvalidRadicado()
			logger.Warn().Int("row", row).Str("value", value).Err(err).Msg("skipping invalid radicado")
			res.Skipped = append(res.Skipped, Skipped{Row: row, Value: value, Reason: err.Error()})
			continue
		}
		res.Radicados = append(res.Radicados, rad)
	}

	logger.Info().
		Int("valid", len(res.Radicados)).
		Int("skipped", len(res.Skipped)).
		Msg("radicados read")
	return res, nil
}

// Info reports metadata about the workbook and its selected sheet.
func (r Reader) Info() (*Info, error) {
	f, sheet, st, err := r.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", sheet, err)
	}
	header, err := f.GetCellValue(sheet, r.column()+"1")
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", sheet, err)
	}
	if header == "" {
		header = "Vacío"
	}

	return &Info{
		Path:       r.Path,
		Size:       st.Size(),
		ModTime:    st.ModTime(),
		Sheet:      sheet,
		Sheets:     f.GetSheetList(),
		TotalRows:  len(rows),
		HeaderCell: header,
	}, nil
}
