// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/consultaprocesos/internal/ratelimit"
	"github.com/ManuGH/consultaprocesos/internal/validate"
	"github.com/xuri/excelize/v2"
)

// SupportedFormats lists the report formats accepted in output.formats.
var SupportedFormats = []string{FormatTXT, FormatCSV, FormatJSON, FormatXLSX}

// MaxWorkers caps concurrent case lookups; the API throttles per client anyway.
const MaxWorkers = 8

// Validate checks the static consistency of cfg. It does not touch the filesystem.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.URL("api.baseUrl", cfg.API.BaseURL, []string{"http", "https"})
	v.MinDuration("api.timeout", cfg.API.Timeout, time.Second)
	v.Range("api.retries", cfg.API.Retries, 0, 10)
	v.MinDuration("api.backoff", cfg.API.Backoff, 0)
	if cfg.API.MaxBackoff < cfg.API.Backoff {
		v.AddError("api.maxBackoff", "must not be lower than api.backoff", cfg.API.MaxBackoff)
	}
	v.NonNegative("api.breakerThreshold", cfg.API.BreakerThreshold)
	v.MinDuration("api.breakerReset", cfg.API.BreakerReset, 0)

	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.requestsPerMinute", cfg.RateLimit.RequestsPerMinute)
		v.Positive("rateLimit.burst", cfg.RateLimit.Burst)
	}
	v.MinDuration("rateLimit.requestDelay", cfg.RateLimit.RequestDelay, 0)
	v.MinDuration("rateLimit.caseDelay", cfg.RateLimit.CaseDelay, 0)

	v.NotEmpty("input.path", cfg.Input.Path)
	if _, err := excelize.ColumnNameToNumber(cfg.Input.Column); err != nil {
		v.AddError("input.column", err.Error(), cfg.Input.Column)
	}
	v.Positive("input.startRow", cfg.Input.StartRow)

	v.Positive("radicado.minLength", cfg.Radicado.MinLength)
	if cfg.Radicado.MaxLength < cfg.Radicado.MinLength {
		v.AddError("radicado.maxLength", "must not be lower than radicado.minLength", cfg.Radicado.MaxLength)
	}

	v.NotEmpty("output.dir", cfg.Output.Dir)
	v.EachOneOf("output.formats", cfg.Output.Formats, SupportedFormats)
	v.NotEmpty("output.prefix", cfg.Output.Prefix)

	if cfg.Backup.Enabled {
		v.NotEmpty("backup.dir", cfg.Backup.Dir)
		v.NonNegative("backup.retentionDays", cfg.Backup.RetentionDays)
	}

	if _, err := validate.ParseLogLevel(cfg.Logging.Level); err != nil {
		v.AddError("logging.level", "invalid log level (must be: debug, info, warn, error)", cfg.Logging.Level)
	}
	if cfg.Logging.File {
		v.NotEmpty("logging.dir", cfg.Logging.Dir)
	}
	v.NonNegative("logging.retentionDays", cfg.Logging.RetentionDays)

	v.OneOf("cache.backend", cfg.Cache.Backend, []string{CacheNone, CacheMemory, CacheRedis, CacheBadger})
	switch cfg.Cache.Backend {
	case CacheRedis:
		v.NotEmpty("cache.redisAddr", cfg.Cache.RedisAddr)
	case CacheBadger:
		v.NotEmpty("cache.badgerDir", cfg.Cache.BadgerDir)
	}
	if cfg.Cache.Backend != CacheNone {
		v.MinDuration("cache.ttl", cfg.Cache.TTL, time.Second)
	}

	v.Range("workers", cfg.Workers, 1, MaxWorkers)

	v.ListenAddr("serve.listen", cfg.Serve.Listen)
	v.MinDuration("serve.interval", cfg.Serve.Interval, time.Minute)
	v.MinDuration("serve.debounce", cfg.Serve.Debounce, 0)
	v.Positive("serve.triggerRpm", cfg.Serve.TriggerRPM)
	if _, err := ratelimit.ParseTrustedProxies(cfg.Serve.TrustedProxies); err != nil {
		v.AddError("serve.trustedProxies", err.Error(), cfg.Serve.TrustedProxies)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}

// ValidateRuntime checks the filesystem prerequisites of a batch run: the
// input workbook must exist and the output directories must be creatable.
func ValidateRuntime(cfg AppConfig) error {
	v := validate.New()
	v.File("input.path", cfg.Input.Path, []string{".xlsx", ".xlsm", ".xltx", ".xltm"})
	v.Directory("output.dir", cfg.Output.Dir, false)
	if cfg.Backup.Enabled {
		v.Directory("backup.dir", cfg.Backup.Dir, false)
	}
	if cfg.Logging.File {
		v.Directory("logging.dir", cfg.Logging.Dir, false)
	}
	return v.Err()
}
