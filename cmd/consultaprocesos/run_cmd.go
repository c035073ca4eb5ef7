// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/consultaprocesos/internal/app"
	"github.com/ManuGH/consultaprocesos/internal/app/bootstrap"
	"github.com/ManuGH/consultaprocesos/internal/config"
	applog "github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/workbook"
)

const closeTimeout = 10 * time.Second

type runOptions struct {
	input       string
	outputDir   string
	formats     []string
	noRateLimit bool
	workers     int
	yes         bool
	dryRun      bool
}

func (r *runOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&r.input, "input", "i", "", "input workbook (overrides input.path)")
	f.StringVarP(&r.outputDir, "output-dir", "o", "", "report directory (overrides output.dir)")
	f.StringSliceVar(&r.formats, "formats", nil, "report formats: txt,csv,json,xlsx")
	f.BoolVar(&r.noRateLimit, "no-rate-limit", false, "disable client-side rate limiting")
	f.IntVarP(&r.workers, "workers", "w", 0, "cases queried concurrently")
	f.BoolVarP(&r.yes, "yes", "y", false, "skip the confirmation prompt")
	f.BoolVar(&r.dryRun, "dry-run", false, "read and validate the input without querying")
}

// apply copies the flags the operator actually set onto cfg.
func (r *runOptions) apply(cmd *cobra.Command) func(*config.AppConfig) {
	f := cmd.Flags()
	return func(cfg *config.AppConfig) {
		if f.Changed("input") {
			cfg.Input.Path = r.input
		}
		if f.Changed("output-dir") {
			cfg.Output.Dir = r.outputDir
		}
		if f.Changed("formats") {
			cfg.Output.Formats = normalizeFormats(r.formats)
		}
		if r.noRateLimit {
			cfg.RateLimit.Enabled = false
		}
		if f.Changed("workers") {
			cfg.Workers = r.workers
		}
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	run := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Query every radicado in the input workbook and write the reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, opts, run)
		},
	}
	run.bind(cmd)
	return cmd
}

func runBatch(cmd *cobra.Command, opts *rootOptions, run *runOptions) error {
	cfg, _, err := opts.loadConfig(run.apply(cmd))
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	closer := bootstrap.ConfigureLogging(cfg, cmd.ErrOrStderr())
	defer closer.Close()

	printBanner(out)
	fmt.Fprintf(out, "%s Validando configuración...\n", iconCheck)
	if err := config.ValidateRuntime(cfg); err != nil {
		return failure(err)
	}
	fmt.Fprintf(out, "%s Configuración validada\n", iconCheck)

	c, err := bootstrap.Wire(ctx, cfg)
	if err != nil {
		return failure(err)
	}
	defer closeContainer(c)

	if cfg.RateLimit.Enabled {
		fmt.Fprintf(out, "%s Cliente API con rate limiting inicializado (%d req/min)\n", iconCheck, cfg.RateLimit.RequestsPerMinute)
	} else {
		fmt.Fprintf(out, "%s Cliente API sin rate limiting inicializado\n", iconCheck)
	}
	fmt.Fprintf(out, "%s Leyendo radicados desde Excel...\n   Archivo: %s\n", iconLoading, cfg.Input.Path)

	c.Runner.Progress = progressPrinter(out)

	execOpts := app.Options{Trigger: "cli", DryRun: run.dryRun}
	if !run.yes && !run.dryRun {
		execOpts.Confirm = confirmer(cmd.InOrStdin(), out)
	}

	outcome, err := c.Pipeline.Execute(ctx, execOpts)
	switch {
	case errors.Is(err, app.ErrAborted):
		fmt.Fprintln(out, "Operación cancelada por el usuario")
		return silentFailure
	case errors.Is(err, app.ErrNoRadicados):
		printRead(out, outcome.Read)
		fmt.Fprintf(out, "%s No hay radicados para procesar\n", iconError)
		return silentFailure
	case errors.Is(err, workbook.ErrFileNotFound):
		return failure(fmt.Errorf("archivo Excel no encontrado: %s", cfg.Input.Path))
	case err != nil && outcome == nil:
		return failure(err)
	}

	if outcome.BackupPath != "" {
		fmt.Fprintf(out, "%s Backup creado: %s\n", iconSuccess, outcome.BackupPath)
	}
	if run.dryRun {
		printRead(out, outcome.Read)
		fmt.Fprintf(out, "\n%s Validación completada, no se realizaron consultas (--dry-run)\n", iconCheck)
		return nil
	}

	printFiles(out, outcome.Files)
	printSummary(out, outcome)

	switch {
	case err != nil:
		fmt.Fprintf(out, "\n%s Error al generar reportes: %v\n", iconError, err)
		return silentFailure
	case outcome.Interrupted:
		fmt.Fprintf(out, "\n%s Consulta interrumpida por el usuario, reportes parciales guardados\n", iconWarning)
		return silentFailure
	}
	fmt.Fprintf(out, "\n%s Consulta completada exitosamente\n", iconSuccess)
	return nil
}

// confirmer asks the operator before any request is sent. EOF declines.
func confirmer(in io.Reader, out io.Writer) func(*workbook.Result) bool {
	return func(read *workbook.Result) bool {
		printRead(out, read)
		fmt.Fprintf(out, "\n%s Se procesarán %d radicados\n", iconWarning, len(read.Radicados))
		fmt.Fprintln(out, "Esto puede tomar varios minutos...")
		fmt.Fprint(out, "¿Continuar? (s/N): ")

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "si", "sí", "y", "yes":
			return true
		}
		return false
	}
}

func closeContainer(c *bootstrap.Container) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		logger := applog.WithComponent("cli")
		logger.Warn().Err(err).Msg("shutdown incomplete")
	}
}
