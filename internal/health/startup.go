// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ManuGH/consultaprocesos/internal/config"
	"github.com/ManuGH/consultaprocesos/internal/log"
	"github.com/ManuGH/consultaprocesos/internal/platform/httpx"
)

// PerformStartupChecks validates the environment before serve mode starts
// its scheduler and HTTP listener.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkWritableDir(logger, "output", cfg.Output.Dir); err != nil {
		return fmt.Errorf("output directory check failed: %w", err)
	}
	if cfg.Backup.Enabled {
		if err := checkWritableDir(logger, "backup", cfg.Backup.Dir); err != nil {
			return fmt.Errorf("backup directory check failed: %w", err)
		}
	}
	if err := checkListenAddr(logger, cfg.Serve.Listen); err != nil {
		return err
	}
	if err := checkBaseURL(logger, cfg.API.BaseURL); err != nil {
		return err
	}
	if err := checkFileReadable(cfg.Input.Path); err != nil {
		// the workbook may be dropped in later; the watcher picks it up
		logger.Warn().Err(err).Str(log.FieldPath, cfg.Input.Path).Msg("input workbook not readable yet")
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkWritableDir(logger zerolog.Logger, name, path string) error {
	if path == "" {
		return fmt.Errorf("%s directory not configured", name)
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	marker := filepath.Join(path, ".write_test")
	if err := os.WriteFile(marker, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(marker)

	logger.Info().Str(log.FieldPath, path).Str("dir", name).Msg("directory is writable")
	return nil
}

func checkListenAddr(logger zerolog.Logger, addr string) error {
	if addr == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid listen port %q in %q", port, addr)
	}
	logger.Info().Str("addr", addr).Msg("listen address is valid")
	return nil
}

func checkBaseURL(logger zerolog.Logger, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid api.baseUrl: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.baseUrl scheme must be http or https, got: %q", u.Scheme)
	}
	logger.Info().Str(log.FieldURL, httpx.RedactURL(raw)).Msg("API base URL is valid")
	return nil
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return err
	}
	return f.Close()
}
