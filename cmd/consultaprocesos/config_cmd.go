// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/consultaprocesos/internal/config"
	"github.com/ManuGH/consultaprocesos/internal/workbook"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the configuration",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(
		newConfigValidateCmd(opts),
		newConfigShowCmd(opts),
		newConfigDumpCmd(opts),
	)
	return cmd
}

func newConfigValidateCmd(opts *rootOptions) *cobra.Command {
	var static bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and the files it points to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Validando configuración...")

			cfg, path, err := opts.loadConfig()
			if err == nil && !static {
				err = config.ValidateRuntime(cfg)
			}
			if err != nil {
				fmt.Fprintf(out, "%s Errores en configuración:\n  %v\n", iconError, err)
				return silentFailure
			}
			if path == "" {
				path = "defaults + environment"
			}
			fmt.Fprintf(out, "%s Configuración válida (%s)\n", iconSuccess, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&static, "static", false, "skip filesystem checks (input file, output directories)")
	return cmd
}

// configReport is the machine-readable form of "config show".
type configReport struct {
	Config config.Summary `json:"configuracion" yaml:"configuracion"`
	Input  inputReport    `json:"archivo_excel" yaml:"archivo_excel"`
	Output outputReport   `json:"directorio_salida" yaml:"directorio_salida"`
}

type inputReport struct {
	Path   string         `json:"ruta" yaml:"ruta"`
	Exists bool           `json:"existe" yaml:"existe"`
	Info   *workbook.Info `json:"info,omitempty" yaml:"info,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
}

type outputReport struct {
	Path   string `json:"ruta" yaml:"ruta"`
	Exists bool   `json:"existe" yaml:"existe"`
	Files  int    `json:"archivos_existentes" yaml:"archivos_existentes"`
}

func buildConfigReport(fsys afero.Fs, cfg config.AppConfig) configReport {
	rep := configReport{
		Config: config.Summarize(cfg),
		Input:  inputReport{Path: cfg.Input.Path},
		Output: outputReport{Path: cfg.Output.Dir},
	}

	info, err := workbook.Reader{Path: cfg.Input.Path, Sheet: cfg.Input.Sheet}.Info()
	if err != nil {
		rep.Input.Error = err.Error()
	} else {
		rep.Input.Exists = true
		rep.Input.Info = info
	}

	if entries, err := afero.ReadDir(fsys, cfg.Output.Dir); err == nil {
		rep.Output.Exists = true
		for _, e := range entries {
			if !e.IsDir() {
				rep.Output.Files++
			}
		}
	}
	return rep
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration, the input workbook and the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			rep := buildConfigReport(afero.NewOsFs(), cfg)
			switch format {
			case "text":
				printConfigReport(cmd.OutOrStdout(), rep)
				return nil
			case "json", "yaml":
				return encode(cmd.OutOrStdout(), format, rep)
			default:
				return usageError(fmt.Errorf("unsupported format %q (want text, json or yaml)", format))
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")
	return cmd
}

func printConfigReport(out io.Writer, rep configReport) {
	fmt.Fprintln(out, "CONFIGURACIÓN ACTUAL:")
	fmt.Fprintln(out, separatorMajor[:50])

	fmt.Fprintln(out, "\nArchivo Excel:")
	fmt.Fprintf(out, "  Ruta: %s\n", rep.Input.Path)
	fmt.Fprintf(out, "  Existe: %t\n", rep.Input.Exists)
	if rep.Input.Error != "" {
		fmt.Fprintf(out, "  Error: %s\n", rep.Input.Error)
	} else if info := rep.Input.Info; info != nil {
		fmt.Fprintf(out, "  Hoja: %s\n", info.Sheet)
		fmt.Fprintf(out, "  Filas: %d\n", info.TotalRows)
		fmt.Fprintf(out, "  Tamaño: %d bytes\n", info.Size)
	}

	fmt.Fprintln(out, "\nDirectorio de salida:")
	fmt.Fprintf(out, "  Ruta: %s\n", rep.Output.Path)
	fmt.Fprintf(out, "  Existe: %t\n", rep.Output.Exists)
	fmt.Fprintf(out, "  Archivos existentes: %d\n", rep.Output.Files)

	c := rep.Config
	fmt.Fprintln(out, "\nAPI:")
	fmt.Fprintf(out, "  URL base: %s\n", c.API.BaseURL)
	fmt.Fprintf(out, "  Timeout: %s\n", c.API.Timeout)
	fmt.Fprintf(out, "  Rate limiting: %t (%d req/min)\n", c.API.RateLimitEnabled, c.API.RequestsPerMinute)
	fmt.Fprintf(out, "  Reintentos: %d\n", c.API.Retries)
	fmt.Fprintf(out, "  Cache: %s\n", c.API.Cache)

	fmt.Fprintln(out, "\nConfiguración:")
	fmt.Fprintf(out, "  Columna Excel: %s\n", c.Files.Column)
	fmt.Fprintf(out, "  Fila inicio: %d\n", c.Files.StartRow)
	fmt.Fprintf(out, "  Formatos: %v\n", c.Files.Formats)
	fmt.Fprintf(out, "  Longitud radicado: %d-%d\n", c.Processing.MinRadicadoLength, c.Processing.MaxRadicadoLength)
	fmt.Fprintf(out, "  Pausa entre procesos: %s\n", c.Processing.DelayBetweenProcesses)
	fmt.Fprintf(out, "  Workers: %d\n", c.Processing.Workers)
	if c.Files.BackupDir != "" {
		fmt.Fprintf(out, "  Backups: %s\n", c.Files.BackupDir)
	}
	if c.Files.LogDir != "" {
		fmt.Fprintf(out, "  Logs: %s\n", c.Files.LogDir)
	}
	if c.Files.Store != "" {
		fmt.Fprintf(out, "  Historial: %s\n", c.Files.Store)
	}
}

func newConfigDumpCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration (defaults + file + env)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			switch format {
			case "yaml":
				b, err := config.Marshal(cfg)
				if err != nil {
					return failure(err)
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			case "json":
				return encode(cmd.OutOrStdout(), format, cfg)
			default:
				return usageError(fmt.Errorf("unsupported format %q (want yaml or json)", format))
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	return cmd
}

// encode writes v as indented JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return failure(err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return failure(err)
	}
	return nil
}
