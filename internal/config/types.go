// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Output formats understood by the report writer.
const (
	FormatTXT  = "txt"
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheBadger = "badger"
)

// AppConfig is the effective runtime configuration.
type AppConfig struct {
	Version string `yaml:"-" json:"-"`

	API       APIConfig       `yaml:"api" json:"api"`
	RateLimit RateLimitConfig `yaml:"rateLimit" json:"rateLimit"`
	Input     InputConfig     `yaml:"input" json:"input"`
	Radicado  RadicadoConfig  `yaml:"radicado" json:"radicado"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Backup    BackupConfig    `yaml:"backup" json:"backup"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Serve     ServeConfig     `yaml:"serve" json:"serve"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`

	// Workers is the number of cases queried concurrently. All workers share
	// one rate limiter.
	Workers int `yaml:"workers" json:"workers"`
}

// APIConfig configures the Rama Judicial API client.
type APIConfig struct {
	BaseURL          string        `yaml:"baseUrl" json:"baseUrl"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent        string        `yaml:"userAgent" json:"userAgent"`
	Retries          int           `yaml:"retries" json:"retries"`
	Backoff          time.Duration `yaml:"backoff" json:"backoff"`
	MaxBackoff       time.Duration `yaml:"maxBackoff" json:"maxBackoff"`
	BreakerThreshold int           `yaml:"breakerThreshold" json:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset" json:"breakerReset"`
}

// RateLimitConfig configures client-side throttling.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int           `yaml:"requestsPerMinute" json:"requestsPerMinute"`
	Burst             int           `yaml:"burst" json:"burst"`
	RequestDelay      time.Duration `yaml:"requestDelay" json:"requestDelay"`
	CaseDelay         time.Duration `yaml:"caseDelay" json:"caseDelay"`
}

// InputConfig locates the radicados in the input workbook.
type InputConfig struct {
	Path     string `yaml:"path" json:"path"`
	Sheet    string `yaml:"sheet" json:"sheet"`
	Column   string `yaml:"column" json:"column"`
	StartRow int    `yaml:"startRow" json:"startRow"`
}

// RadicadoConfig bounds accepted case numbers.
type RadicadoConfig struct {
	MinLength int `yaml:"minLength" json:"minLength"`
	MaxLength int `yaml:"maxLength" json:"maxLength"`
}

// OutputConfig controls report files.
type OutputConfig struct {
	Dir     string   `yaml:"dir" json:"dir"`
	Formats []string `yaml:"formats" json:"formats"`
	Prefix  string   `yaml:"prefix" json:"prefix"`
}

// BackupConfig controls copies of the input workbook.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	Dir           string `yaml:"dir" json:"dir"`
	RetentionDays int    `yaml:"retentionDays" json:"retentionDays"`
}

// LoggingConfig controls log level and the daily log file.
type LoggingConfig struct {
	Level         string `yaml:"level" json:"level"`
	Dir           string `yaml:"dir" json:"dir"`
	File          bool   `yaml:"file" json:"file"`
	RetentionDays int    `yaml:"retentionDays" json:"retentionDays"`
	Console       bool   `yaml:"console" json:"console"`
}

// CacheConfig selects the API response cache.
type CacheConfig struct {
	Backend   string        `yaml:"backend" json:"backend"`
	TTL       time.Duration `yaml:"ttl" json:"ttl"`
	RedisAddr string        `yaml:"redisAddr" json:"redisAddr"`
	RedisDB   int           `yaml:"redisDb" json:"redisDb"`
	BadgerDir string        `yaml:"badgerDir" json:"badgerDir"`
}

// StoreConfig locates the run history database. An empty path disables it.
type StoreConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ServeConfig configures the scheduled mode.
type ServeConfig struct {
	Listen     string        `yaml:"listen" json:"listen"`
	Interval   time.Duration `yaml:"interval" json:"interval"`
	WatchInput bool          `yaml:"watchInput" json:"watchInput"`
	Debounce   time.Duration `yaml:"debounce" json:"debounce"`
	TriggerRPM int           `yaml:"triggerRpm" json:"triggerRpm"`

	// TrustedProxies lists CIDRs or IPs whose X-Forwarded-For is believed.
	TrustedProxies []string `yaml:"trustedProxies,omitempty" json:"trustedProxies,omitempty"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	Endpoint     string  `yaml:"endpoint" json:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
	Environment  string  `yaml:"environment" json:"environment"`
}
