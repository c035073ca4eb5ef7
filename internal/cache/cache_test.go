// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Now()}
	c := newMemoryCache(0, clock.Now)
	defer func() { _ = c.Close() }()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	clock.Advance(2 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)

	assert.Equal(t, 1, c.deleteExpired())
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, 0, stats.CurrentSize)
}

func TestMemoryCache_CopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	defer func() { _ = c.Close() }()

	buf := []byte("original")
	c.Set(ctx, "k", buf, time.Minute)
	buf[0] = 'X'

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "original", string(got))
}

func TestMemoryCache_DeleteClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour)
	defer func() { _ = c.Close() }()

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), time.Minute)
	c.Delete(ctx, "a")
	assert.Equal(t, 1, c.Stats().CurrentSize)
	c.Clear(ctx)
	assert.Equal(t, 0, c.Stats().CurrentSize)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "close is idempotent")
}

func TestNoOpCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoOpCache()
	c.Set(ctx, "k", []byte("v"), time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, "none", c.Stats().Backend)
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	for backend, want := range map[string]string{"": "none", "none": "none", "memory": "memory", "badger": "badger"} {
		c, err := New(ctx, Config{Backend: backend}, logger)
		require.NoError(t, err, backend)
		assert.Equal(t, want, c.Stats().Backend, backend)
		require.NoError(t, c.Close())
	}

	_, err := New(ctx, Config{Backend: "memcached"}, logger)
	assert.Error(t, err)
}

func TestNew_RedisUnavailableFallsBack(t *testing.T) {
	c, err := New(context.Background(), Config{Backend: "redis", RedisAddr: "127.0.0.1:1"}, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.Equal(t, "memory", c.Stats().Backend)
}

func TestBadgerCache_InMemory(t *testing.T) {
	ctx := context.Background()
	c, err := OpenBadgerCache("", zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	c.Set(ctx, "search:1", []byte(`{"procesos":[]}`), time.Hour)
	got, ok := c.Get(ctx, "search:1")
	require.True(t, ok)
	assert.JSONEq(t, `{"procesos":[]}`, string(got))

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Delete(ctx, "search:1")
	_, ok = c.Get(ctx, "search:1")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestBadgerCache_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := OpenBadgerCache(dir, zerolog.Nop())
	require.NoError(t, err)
	c.Set(ctx, "detail:42", []byte("payload"), time.Hour)
	require.NoError(t, c.Close())

	c, err = OpenBadgerCache(dir, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	got, ok := c.Get(ctx, "detail:42")
	require.True(t, ok)
	assert.Equal(t, "payload", string(got))
}
