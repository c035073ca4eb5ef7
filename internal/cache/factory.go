// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config selects and configures a backend.
type Config struct {
	Backend   string // none | memory | redis | badger
	RedisAddr string
	RedisDB   int
	BadgerDir string
}

// New builds the configured backend. An unreachable Redis degrades to the
// memory backend with a warning so a batch run never fails on its cache.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Cache, error) {
	switch cfg.Backend {
	case "", "none":
		return NewNoOpCache(), nil
	case "memory":
		return NewMemoryCache(5 * time.Minute), nil
	case "redis":
		c, err := NewRedisCache(ctx, RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB}, logger)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis cache unavailable, falling back to memory")
			return NewMemoryCache(5 * time.Minute), nil
		}
		return c, nil
	case "badger":
		return OpenBadgerCache(cfg.BadgerDir, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
