// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command consultaprocesos queries the Rama Judicial API for every radicado
// listed in a workbook and writes the results as TXT, CSV, JSON and XLSX.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManuGH/consultaprocesos/internal/version"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error { return &exitError{code: exitUsage, err: err} }

func failure(err error) error { return &exitError{code: exitFailure, err: err} }

// silentFailure exits 1 without printing anything more; the command has
// already told the operator what went wrong.
var silentFailure = &exitError{code: exitFailure}

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and maps its error to an exit code.
func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	// Anything cobra rejects before RunE (unknown command, bad args) is a usage error.
	fmt.Fprintf(errOut, "Error: %v\n", err)
	fmt.Fprintf(errOut, "Run '%s --help' for usage.\n", root.CommandPath())
	return exitUsage
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	run := &runOptions{}

	cmd := &cobra.Command{
		Use:   "consultaprocesos",
		Short: "Consulta masiva de procesos judiciales de la Rama Judicial de Colombia",
		Long: `Lee radicados desde la columna A de un libro Excel (desde la fila 2 hasta
la primera celda vacía), consulta cada uno en la API pública de la Rama Judicial
con limitación de velocidad y guarda los resultados en TXT, CSV, JSON y XLSX.

Sin subcomando se ejecuta "run".`,
		Version:       version.String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, opts, run)
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (default $CONSULTA_CONFIG or ./config.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	run.bind(cmd)

	cmd.AddCommand(
		newRunCmd(opts),
		newConfigCmd(opts),
		newHistoryCmd(opts),
		newBackupsCmd(opts),
		newServeCmd(opts),
		newHealthcheckCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
