// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ManuGH/consultaprocesos/internal/consulta"
	"github.com/ManuGH/consultaprocesos/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// newTable returns a bordered table with a bold header row.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// openHistory opens the run store named by the configuration.
func openHistory(cmd *cobra.Command, opts *rootOptions) (*store.Store, error) {
	cfg, _, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Path == "" {
		return nil, failure(errors.New("run history is disabled (store.path is empty)"))
	}
	st, err := store.Open(cmd.Context(), cfg.Store.Path)
	if err != nil {
		return nil, failure(err)
	}
	return st, nil
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return usageError(fmt.Errorf("--limit must be positive, got %d", limit))
			}
			st, err := openHistory(cmd, opts)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return failure(err)
			}
			if asJSON {
				return encode(cmd.OutOrStdout(), "json", runs)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list, newest first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.AddCommand(newHistoryShowCmd(opts), newHistoryVerifyCmd(opts))
	return cmd
}

func printRuns(out io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No hay ejecuciones registradas")
		return
	}
	t := newTable("ID", "INICIO", "ORIGEN", "ESTADO", "TOTAL", "PRIVADOS", "FALLIDOS", "ÉXITO", "DURACIÓN")
	for _, r := range runs {
		t.Row(
			r.ID,
			r.StartedAt.Local().Format(timeLayout),
			r.Trigger,
			r.Status,
			strconv.Itoa(r.Stats.Total),
			strconv.Itoa(r.Stats.Private),
			strconv.Itoa(r.Stats.Failed),
			fmt.Sprintf("%.1f%%", r.SuccessRate),
			formatDuration(r.Duration()),
		)
	}
	fmt.Fprintln(out, t.String())
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func newHistoryShowCmd(opts *rootOptions) *cobra.Command {
	var (
		records bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openHistory(cmd, opts)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			run, err := st.GetRun(ctx, args[0])
			if errors.Is(err, store.ErrRunNotFound) {
				return failure(fmt.Errorf("run %q not found", args[0]))
			}
			if err != nil {
				return failure(err)
			}
			var recs []consulta.Record
			if records {
				if recs, err = st.RunRecords(ctx, run.ID); err != nil {
					return failure(err)
				}
			}

			if asJSON {
				return encode(cmd.OutOrStdout(), "json", struct {
					store.Run
					Records []consulta.Record `json:"records,omitempty"`
				}{run, recs})
			}
			printRun(cmd.OutOrStdout(), run, recs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&records, "records", true, "include the per-radicado records")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printRun(out io.Writer, r store.Run, recs []consulta.Record) {
	fmt.Fprintf(out, "Ejecución: %s\n", r.ID)
	fmt.Fprintf(out, "  Estado: %s\n", r.Status)
	fmt.Fprintf(out, "  Origen: %s\n", r.Trigger)
	fmt.Fprintf(out, "  Archivo: %s\n", r.InputFile)
	fmt.Fprintf(out, "  Inicio: %s\n", r.StartedAt.Local().Format(timeLayout))
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(out, "  Fin: %s (%s)\n", r.FinishedAt.Local().Format(timeLayout), formatDuration(r.Duration()))
	}
	s := r.Stats
	fmt.Fprintf(out, "  Total: %d  Exitosos: %d  Privados: %d  No encontrados: %d  Fallidos: %d  Tasa de éxito: %.1f%%\n",
		s.Total, s.Success, s.Private, s.NotFound, s.Failed, r.SuccessRate)
	if r.Error != "" {
		fmt.Fprintf(out, "  Error: %s\n", r.Error)
	}
	if len(r.Files) > 0 {
		formats := make([]string, 0, len(r.Files))
		for f := range r.Files {
			formats = append(formats, f)
		}
		sort.Strings(formats)
		fmt.Fprintln(out, "  Archivos:")
		for _, f := range formats {
			fmt.Fprintf(out, "    %s: %s\n", f, r.Files[f])
		}
	}
	if len(recs) == 0 {
		return
	}
	t := newTable("RADICADO", "ESTADO", "JUZGADO", "DEPARTAMENTO", "ÚLTIMA ACTUACIÓN")
	for _, rec := range recs {
		status := string(rec.Status)
		if rec.EsPrivado {
			status = iconPrivate + " " + status
		}
		t.Row(rec.Radicado, status, rec.Juzgado, rec.Departamento, rec.FechaUltimaActuacion)
	}
	fmt.Fprintln(out, t.String())
}

func newHistoryVerifyCmd(opts *rootOptions) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the integrity of the run history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openHistory(cmd, opts)
			if err != nil {
				return err
			}
			defer st.Close()

			issues, err := st.Verify(cmd.Context(), full)
			if err != nil {
				return failure(err)
			}
			out := cmd.OutOrStdout()
			if len(issues) > 0 {
				fmt.Fprintf(out, "%s %s: %d problemas de integridad\n", iconError, st.Path(), len(issues))
				for _, is := range issues {
					fmt.Fprintf(out, "  - %s\n", is)
				}
				return silentFailure
			}
			fmt.Fprintf(out, "%s %s: integridad correcta\n", iconSuccess, st.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "run a full integrity_check instead of quick_check")
	return cmd
}
