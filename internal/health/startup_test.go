// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/consultaprocesos/internal/config"
)

func startupConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Output.Dir = filepath.Join(dir, "output")
	cfg.Backup.Dir = filepath.Join(dir, "backups")
	cfg.Input.Path = filepath.Join(dir, "PROCESOS.xlsx")
	cfg.Serve.Listen = "127.0.0.1:8088"
	return cfg
}

func TestPerformStartupChecks(t *testing.T) {
	cfg := startupConfig(t)
	// a missing workbook only warns
	require.NoError(t, PerformStartupChecks(context.Background(), cfg))
	assert.DirExists(t, cfg.Output.Dir)
}

func TestPerformStartupChecksRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AppConfig)
		want   string
	}{
		{"bad listen", func(c *config.AppConfig) { c.Serve.Listen = "8088" }, "invalid listen address"},
		{"bad port", func(c *config.AppConfig) { c.Serve.Listen = ":http2" }, "invalid listen port"},
		{"bad scheme", func(c *config.AppConfig) { c.API.BaseURL = "ftp://example.org" }, "scheme must be http or https"},
		{"no output", func(c *config.AppConfig) { c.Output.Dir = "" }, "output directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := startupConfig(t)
			tt.mutate(&cfg)
			err := PerformStartupChecks(context.Background(), cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
