// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// envDuration accepts Go duration syntax ("45s") or a bare number of seconds ("45").
type envDuration time.Duration

func (d *envDuration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if n, err := strconv.Atoi(s); err == nil {
		*d = envDuration(time.Duration(n) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = envDuration(parsed)
	return nil
}

// envOverlay lists every environment variable the loader honours. Unset
// variables stay nil and leave the file/default value untouched. The
// unprefixed names are kept for compatibility with existing deployments.
type envOverlay struct {
	APIBaseURL   *string      `env:"RAMA_JUDICIAL_API_URL"`
	APITimeout   *envDuration `env:"API_TIMEOUT"`
	APIRetries   *int         `env:"CONSULTA_API_RETRIES"`
	APIUserAgent *string      `env:"CONSULTA_API_USER_AGENT"`

	RateLimitEnabled *bool        `env:"CONSULTA_RATE_LIMIT_ENABLED"`
	RateLimitRPM     *int         `env:"CONSULTA_RATE_LIMIT_RPM"`
	CaseDelay        *envDuration `env:"CONSULTA_CASE_DELAY"`

	InputPath  *string `env:"EXCEL_INPUT_PATH"`
	InputSheet *string `env:"CONSULTA_INPUT_SHEET"`

	OutputDir     *string  `env:"OUTPUT_DIR"`
	OutputFormats []string `env:"CONSULTA_OUTPUT_FORMATS" envSeparator:","`

	BackupDir *string `env:"CONSULTA_BACKUP_DIR"`

	LogLevel *string `env:"LOG_LEVEL"`
	LogDir   *string `env:"CONSULTA_LOG_DIR"`

	CacheBackend *string `env:"CONSULTA_CACHE_BACKEND"`
	RedisAddr    *string `env:"CONSULTA_REDIS_ADDR"`

	StorePath *string `env:"CONSULTA_STORE_PATH"`
	Workers   *int    `env:"CONSULTA_WORKERS"`

	ServeListen   *string      `env:"CONSULTA_SERVE_LISTEN"`
	ServeInterval *envDuration `env:"CONSULTA_SERVE_INTERVAL"`
	ServeProxies  []string     `env:"CONSULTA_SERVE_TRUSTED_PROXIES" envSeparator:","`

	TelemetryEnabled  *bool   `env:"CONSULTA_OTEL_ENABLED"`
	TelemetryEndpoint *string `env:"CONSULTA_OTEL_ENDPOINT"`
}

func setString(logger zerolog.Logger, key string, dst *string, v *string) {
	if v == nil || *v == "" {
		return
	}
	logger.Debug().Str("key", key).Str("source", "environment").Msg("using environment variable")
	*dst = *v
}

func setInt(logger zerolog.Logger, key string, dst *int, v *int) {
	if v == nil {
		return
	}
	logger.Debug().Str("key", key).Int("value", *v).Str("source", "environment").Msg("using environment variable")
	*dst = *v
}

func setBool(logger zerolog.Logger, key string, dst *bool, v *bool) {
	if v == nil {
		return
	}
	logger.Debug().Str("key", key).Bool("value", *v).Str("source", "environment").Msg("using environment variable")
	*dst = *v
}

func setDuration(logger zerolog.Logger, key string, dst *time.Duration, v *envDuration) {
	if v == nil {
		return
	}
	logger.Debug().Str("key", key).Dur("value", time.Duration(*v)).Str("source", "environment").Msg("using environment variable")
	*dst = time.Duration(*v)
}

// mergeEnv overlays environment variables onto cfg. environ overrides the
// process environment when non-nil (used by tests).
func mergeEnv(cfg *AppConfig, environ map[string]string, logger zerolog.Logger) error {
	var e envOverlay
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&e, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString(logger, "RAMA_JUDICIAL_API_URL", &cfg.API.BaseURL, e.APIBaseURL)
	setDuration(logger, "API_TIMEOUT", &cfg.API.Timeout, e.APITimeout)
	setInt(logger, "CONSULTA_API_RETRIES", &cfg.API.Retries, e.APIRetries)
	setString(logger, "CONSULTA_API_USER_AGENT", &cfg.API.UserAgent, e.APIUserAgent)

	setBool(logger, "CONSULTA_RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled, e.RateLimitEnabled)
	setInt(logger, "CONSULTA_RATE_LIMIT_RPM", &cfg.RateLimit.RequestsPerMinute, e.RateLimitRPM)
	setDuration(logger, "CONSULTA_CASE_DELAY", &cfg.RateLimit.CaseDelay, e.CaseDelay)

	setString(logger, "EXCEL_INPUT_PATH", &cfg.Input.Path, e.InputPath)
	setString(logger, "CONSULTA_INPUT_SHEET", &cfg.Input.Sheet, e.InputSheet)

	setString(logger, "OUTPUT_DIR", &cfg.Output.Dir, e.OutputDir)
	if len(e.OutputFormats) > 0 {
		formats := make([]string, 0, len(e.OutputFormats))
		for _, f := range e.OutputFormats {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				formats = append(formats, f)
			}
		}
		logger.Debug().Str("key", "CONSULTA_OUTPUT_FORMATS").Strs("value", formats).Str("source", "environment").Msg("using environment variable")
		cfg.Output.Formats = formats
	}

	setString(logger, "CONSULTA_BACKUP_DIR", &cfg.Backup.Dir, e.BackupDir)

	if e.LogLevel != nil && *e.LogLevel != "" {
		lvl := strings.ToLower(*e.LogLevel)
		if lvl == "warning" {
			lvl = "warn"
		}
		setString(logger, "LOG_LEVEL", &cfg.Logging.Level, &lvl)
	}
	setString(logger, "CONSULTA_LOG_DIR", &cfg.Logging.Dir, e.LogDir)

	setString(logger, "CONSULTA_CACHE_BACKEND", &cfg.Cache.Backend, e.CacheBackend)
	setString(logger, "CONSULTA_REDIS_ADDR", &cfg.Cache.RedisAddr, e.RedisAddr)

	setString(logger, "CONSULTA_STORE_PATH", &cfg.Store.Path, e.StorePath)
	setInt(logger, "CONSULTA_WORKERS", &cfg.Workers, e.Workers)

	setString(logger, "CONSULTA_SERVE_LISTEN", &cfg.Serve.Listen, e.ServeListen)
	setDuration(logger, "CONSULTA_SERVE_INTERVAL", &cfg.Serve.Interval, e.ServeInterval)
	if len(e.ServeProxies) > 0 {
		logger.Debug().Str("key", "CONSULTA_SERVE_TRUSTED_PROXIES").Str("source", "environment").Msg("using environment variable")
		cfg.Serve.TrustedProxies = e.ServeProxies
	}

	setBool(logger, "CONSULTA_OTEL_ENABLED", &cfg.Telemetry.Enabled, e.TelemetryEnabled)
	setString(logger, "CONSULTA_OTEL_ENDPOINT", &cfg.Telemetry.Endpoint, e.TelemetryEndpoint)
	return nil
}
