package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-app-server/internal/config"
	"hospital-app-server/internal/models"
)

func newCache(t *testing.T, ttl time.Duration) (*SlotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSlotCache(rdb, ttl, zerolog.New(io.Discard)), mr
}

func date(t *testing.T, s string) models.Date {
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestSetGetAndExpire(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	ctx := context.Background()
	day := date(t, "2026-10-19")

	_, ok := c.Get(ctx, 4, day)
	assert.False(t, ok)

	c.Set(ctx, 4, day, []string{"09:00", "09:30"}, 0)
	slots, ok := c.Get(ctx, 4, day)
	require.True(t, ok)
	assert.Equal(t, []string{"09:00", "09:30"}, slots)
	assert.True(t, mr.Exists("slots:4:2026-10-19"))

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, 4, day)
	assert.False(t, ok)
}

func TestEmptyListIsCached(t *testing.T) {
	c, _ := newCache(t, time.Minute)
	ctx := context.Background()
	day := date(t, "2026-10-19")

	c.Set(ctx, 4, day, []string{}, 0)
	slots, ok := c.Get(ctx, 4, day)
	require.True(t, ok)
	assert.Empty(t, slots)
}

func TestInvalidateDayAndDoctor(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	ctx := context.Background()
	mon, tue := date(t, "2026-10-19"), date(t, "2026-10-20")

	c.Set(ctx, 4, mon, []string{"09:00"}, 0)
	c.Set(ctx, 4, tue, []string{"09:00"}, 0)
	c.Set(ctx, 5, mon, []string{"09:00"}, 0)

	c.InvalidateDay(ctx, 4, mon)
	assert.False(t, mr.Exists("slots:4:2026-10-19"))
	assert.True(t, mr.Exists("slots:4:2026-10-20"))

	c.InvalidateDoctor(ctx, 4)
	assert.False(t, mr.Exists("slots:4:2026-10-20"))
	assert.True(t, mr.Exists("slots:5:2026-10-19"))
}

func TestSetSkipsListComputedBeforeInvalidation(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	ctx := context.Background()
	day := date(t, "2026-10-19")

	gen, ok := c.Generation(ctx, 4)
	require.True(t, ok)
	assert.Equal(t, int64(0), gen)

	// A booking lands while the list is being computed.
	c.InvalidateDay(ctx, 4, day)
	c.Set(ctx, 4, day, []string{"09:00", "09:30"}, gen)
	assert.False(t, mr.Exists("slots:4:2026-10-19"))

	gen, ok = c.Generation(ctx, 4)
	require.True(t, ok)
	assert.Equal(t, int64(1), gen)
	c.Set(ctx, 4, day, []string{"09:30"}, gen)
	slots, ok := c.Get(ctx, 4, day)
	require.True(t, ok)
	assert.Equal(t, []string{"09:30"}, slots)

	c.InvalidateDoctor(ctx, 4)
	c.Set(ctx, 4, day, []string{"09:30"}, gen)
	assert.False(t, mr.Exists("slots:4:2026-10-19"))

	other, ok := c.Generation(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, int64(0), other)
}

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	day := date(t, "2026-10-19")

	var nilCache *SlotCache
	nilCache.Set(ctx, 1, day, []string{"09:00"}, 0)
	_, ok := nilCache.Get(ctx, 1, day)
	assert.False(t, ok)

	noClient := NewSlotCache(nil, time.Minute, zerolog.New(io.Discard))
	noClient.InvalidateDoctor(ctx, 1)
	_, ok = noClient.Get(ctx, 1, day)
	assert.False(t, ok)
	_, ok = noClient.Generation(ctx, 1)
	assert.False(t, ok)

	c, mr := newCache(t, 0)
	c.Set(ctx, 1, day, []string{"09:00"}, 0)
	assert.False(t, mr.Exists("slots:1:2026-10-19"))
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	rdb, err := NewClient(ctx, config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, rdb)

	mr := miniredis.RunT(t)
	rdb, err = NewClient(ctx, config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, rdb)
	_ = rdb.Close()

	mr.Close()
	_, err = NewClient(ctx, config.RedisConfig{Addr: mr.Addr()})
	assert.Error(t, err)
}
