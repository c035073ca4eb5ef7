// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/consultaprocesos/internal/radicado"
)

// DefaultBaseURL is the public v2 endpoint of the Rama Judicial process search.
const DefaultBaseURL = "https://consultaprocesos.ramajudicial.gov.co:448/api/v2"

// DefaultUserAgent mimics a desktop browser; the API rejects obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		API: APIConfig{
			BaseURL:          DefaultBaseURL,
			Timeout:          30 * time.Second,
			UserAgent:        DefaultUserAgent,
			Retries:          3,
			Backoff:          2 * time.Second,
			MaxBackoff:       30 * time.Second,
			BreakerThreshold: 5,
			BreakerReset:     time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 15,
			Burst:             3,
			RequestDelay:      time.Second,
			CaseDelay:         3 * time.Second,
		},
		Input: InputConfig{
			Path:     "data/PROCESOS.xlsx",
			Column:   "A",
			StartRow: 2,
		},
		Radicado: RadicadoConfig{
			MinLength: radicado.DefaultMinLength,
			MaxLength: radicado.DefaultMaxLength,
		},
		Output: OutputConfig{
			Dir:     "output",
			Formats: []string{FormatTXT, FormatCSV, FormatJSON},
			Prefix:  "resultados_consulta_procesos",
		},
		Backup: BackupConfig{
			Enabled:       true,
			Dir:           "backups",
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level:         "info",
			Dir:           "logs",
			File:          true,
			RetentionDays: 7,
			Console:       true,
		},
		Cache: CacheConfig{
			Backend:   CacheMemory,
			TTL:       6 * time.Hour,
			RedisAddr: "localhost:6379",
			BadgerDir: "cache",
		},
		Store: StoreConfig{
			Path: "data/consultas.db",
		},
		Serve: ServeConfig{
			Listen:     ":8080",
			Interval:   24 * time.Hour,
			WatchInput: true,
			Debounce:   2 * time.Second,
			TriggerRPM: 6,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
		Workers: 1,
	}
}

// RadicadoRules converts the configured bounds into validation rules.
func (c AppConfig) RadicadoRules() radicado.Rules {
	return radicado.Rules{MinLength: c.Radicado.MinLength, MaxLength: c.Radicado.MaxLength}
}
