// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/consultaprocesos/internal/config"
	"github.com/ManuGH/consultaprocesos/internal/version"
)

const (
	envConfigPath     = "CONSULTA_CONFIG"
	defaultConfigFile = "config.yaml"
)

// resolveConfigPath picks the config file: the flag, then $CONSULTA_CONFIG,
// then ./config.yaml when it exists. An empty result means defaults and env only.
func resolveConfigPath(flag string) string {
	if p := strings.TrimSpace(flag); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// loadConfig loads the effective configuration and applies flag overrides.
// A config that only becomes invalid through overrides is a usage error.
func (o *rootOptions) loadConfig(overrides ...func(*config.AppConfig)) (config.AppConfig, string, error) {
	path := resolveConfigPath(o.configPath)
	cfg, err := config.NewLoader(path, version.Resolve()).Load()
	if err != nil {
		if path == "" {
			return cfg, path, failure(err)
		}
		return cfg, path, failure(fmt.Errorf("%s: %w", path, err))
	}

	if o.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(o.logLevel))
	}
	for _, apply := range overrides {
		apply(&cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, path, usageError(fmt.Errorf("invalid flag value: %w", err))
	}
	return cfg, path, nil
}

// normalizeFormats lower-cases and de-duplicates a --formats list.
func normalizeFormats(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, f := range in {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
