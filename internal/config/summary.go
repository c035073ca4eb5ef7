// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Summary is the operator-facing digest printed by "config show".
type Summary struct {
	API        APISummary        `json:"api" yaml:"api"`
	Files      FilesSummary      `json:"archivos" yaml:"archivos"`
	Processing ProcessingSummary `json:"procesamiento" yaml:"procesamiento"`
}

// APISummary describes the remote endpoint and its throttling.
type APISummary struct {
	BaseURL           string        `json:"base_url" yaml:"base_url"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout"`
	RateLimitEnabled  bool          `json:"rate_limit_enabled" yaml:"rate_limit_enabled"`
	RequestsPerMinute int           `json:"rate_limit" yaml:"rate_limit"`
	Retries           int           `json:"retries" yaml:"retries"`
	Cache             string        `json:"cache" yaml:"cache"`
}

// FilesSummary describes inputs and outputs.
type FilesSummary struct {
	ExcelInput string   `json:"excel_input" yaml:"excel_input"`
	Sheet      string   `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Column     string   `json:"column" yaml:"column"`
	StartRow   int      `json:"start_row" yaml:"start_row"`
	OutputDir  string   `json:"output_dir" yaml:"output_dir"`
	Formats    []string `json:"formats" yaml:"formats"`
	BackupDir  string   `json:"backup_dir,omitempty" yaml:"backup_dir,omitempty"`
	LogDir     string   `json:"log_dir,omitempty" yaml:"log_dir,omitempty"`
	Store      string   `json:"store,omitempty" yaml:"store,omitempty"`
}

// ProcessingSummary describes per-case processing.
type ProcessingSummary struct {
	MinRadicadoLength     int           `json:"min_radicado_length" yaml:"min_radicado_length"`
	MaxRadicadoLength     int           `json:"max_radicado_length" yaml:"max_radicado_length"`
	DelayBetweenRequests  time.Duration `json:"delay_between_requests" yaml:"delay_between_requests"`
	DelayBetweenProcesses time.Duration `json:"delay_between_processes" yaml:"delay_between_processes"`
	Workers               int           `json:"workers" yaml:"workers"`
}

// Summarize builds the Summary of cfg.
func Summarize(cfg AppConfig) Summary {
	s := Summary{
		API: APISummary{
			BaseURL:           cfg.API.BaseURL,
			Timeout:           cfg.API.Timeout,
			RateLimitEnabled:  cfg.RateLimit.Enabled,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Retries:           cfg.API.Retries,
			Cache:             cfg.Cache.Backend,
		},
		Files: FilesSummary{
			ExcelInput: cfg.Input.Path,
			Sheet:      cfg.Input.Sheet,
			Column:     cfg.Input.Column,
			StartRow:   cfg.Input.StartRow,
			OutputDir:  cfg.Output.Dir,
			Formats:    cfg.Output.Formats,
			Store:      cfg.Store.Path,
		},
		Processing: ProcessingSummary{
			MinRadicadoLength:     cfg.Radicado.MinLength,
			MaxRadicadoLength:     cfg.Radicado.MaxLength,
			DelayBetweenRequests:  cfg.RateLimit.RequestDelay,
			DelayBetweenProcesses: cfg.RateLimit.CaseDelay,
			Workers:               cfg.Workers,
		},
	}
	if cfg.Backup.Enabled {
		s.Files.BackupDir = cfg.Backup.Dir
	}
	if cfg.Logging.File {
		s.Files.LogDir = cfg.Logging.Dir
	}
	return s
}
