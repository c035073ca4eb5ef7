// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ManuGH/consultaprocesos/internal/backup"
	"github.com/ManuGH/consultaprocesos/internal/config"
)

const day = 24 * time.Hour

func newBackupsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "Manage copies of the input workbook",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newBackupsListCmd(opts), newBackupsPruneCmd(opts))
	return cmd
}

func backupManager(opts *rootOptions) (*backup.Manager, config.AppConfig, error) {
	cfg, _, err := opts.loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	return backup.New(afero.NewOsFs(), cfg.Backup.Dir), cfg, nil
}

func newBackupsListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, _, err := backupManager(opts)
			if err != nil {
				return err
			}
			entries, err := m.List()
			if err != nil {
				return failure(err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return encode(out, "json", entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(out, "No hay backups en %s\n", m.Dir())
				return nil
			}
			t := newTable("ARCHIVO", "TAMAÑO", "FECHA")
			for _, e := range entries {
				t.Row(e.Name, humanize.Bytes(uint64(e.Size)), e.ModTime.Local().Format(timeLayout))
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newBackupsPruneCmd(opts *rootOptions) *cobra.Command {
	var (
		days int
		logs bool
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete backups (and optionally logs) past their retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, cfg, err := backupManager(opts)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("older-than") {
				days = cfg.Backup.RetentionDays
			}
			if days < 1 {
				return usageError(fmt.Errorf("--older-than must be at least 1 day, got %d", days))
			}

			out := cmd.OutOrStdout()
			n, err := m.Prune(time.Duration(days) * day)
			if err != nil {
				return failure(err)
			}
			fmt.Fprintf(out, "%s %d backups con más de %d días eliminados\n", iconCheck, n, days)

			if logs {
				n, err := backup.PruneLogs(afero.NewOsFs(), cfg.Logging.Dir, time.Now(),
					time.Duration(cfg.Logging.RetentionDays)*day)
				if err != nil {
					return failure(err)
				}
				fmt.Fprintf(out, "%s %d logs con más de %d días eliminados\n", iconCheck, n, cfg.Logging.RetentionDays)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "older-than", 0, "retention in days (default backup.retentionDays)")
	cmd.Flags().BoolVar(&logs, "logs", false, "also prune log files older than logging.retentionDays")
	return cmd
}
