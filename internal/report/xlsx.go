// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX report.
const (
	SheetResults = "Resultados"
	SheetSummary = "Resumen"
)

// RenderXLSX writes a workbook with the results table and a summary sheet.
func RenderXLSX(w io.Writer, rep *Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := setRow(f, SheetResults, 1, toAny(Columns)); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	if err := f.SetCellStyle(SheetResults, "A1", last, bold); err != nil {
		return err
	}
	for i, r := range rep.Records {
		// Radicados stay text so spreadsheet apps never render them in scientific notation.
		if err := setRow(f, SheetResults, i+2, toAny(Row(r))); err != nil {
			return err
		}
	}
	if err := f.SetPanes(SheetResults, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	s := rep.Stats
	rows := [][]any{
		{"Indicador", "Valor"},
		{"Fecha de consulta", rep.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Ejecución", rep.RunID},
		{"Total procesados", s.Total},
		{"Exitosos", s.Success},
		{"Privados", s.Private},
		{"No encontrados", s.NotFound},
		{"Fallidos", s.Failed},
		{"Tasa de éxito (%)", fmt.Sprintf("%.2f", s.SuccessRate())},
	}
	for i, row := range rows {
		if err := setRow(f, SheetSummary, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "B1", bold); err != nil {
		return err
	}

	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
