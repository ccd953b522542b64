// Package cache keeps computed availability in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hospital-app-server/internal/config"
	"hospital-app-server/internal/metrics"
	"hospital-app-server/internal/models"
)

// NewClient connects to Redis, or returns nil when no address is configured.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// SlotCache stores slot lists under "slots:<doctor>:<date>" next to a
// per-doctor generation counter under "slots:gen:<doctor>". A nil client or
// a non-positive TTL turns every method into a no-op. Redis failures are
// logged and treated as misses.
type SlotCache struct {
	redis *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewSlotCache creates a SlotCache on rdb.
func NewSlotCache(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *SlotCache {
	return &SlotCache{redis: rdb, ttl: ttl, log: log.With().Str("component", "slot_cache").Logger()}
}

func (c *SlotCache) enabled() bool {
	return c != nil && c.redis != nil && c.ttl > 0
}

func dayKey(doctorID uint, date models.Date) string {
	return fmt.Sprintf("slots:%d:%s", doctorID, models.FormatDate(date))
}

func doctorPattern(doctorID uint) string {
	return fmt.Sprintf("slots:%d:*", doctorID)
}

func generationKey(doctorID uint) string {
	return fmt.Sprintf("slots:gen:%d", doctorID)
}

var errOutdated = errors.New("slot list outdated")

func (c *SlotCache) Get(ctx context.Context, doctorID uint, date models.Date) ([]string, bool) {
	if !c.enabled() {
		return nil, false
	}
	val, err := c.redis.Get(ctx, dayKey(doctorID, date)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("slot cache read failed")
		}
		metrics.IncSlotCache(false)
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal([]byte(val), &slots); err != nil {
		metrics.IncSlotCache(false)
		return nil, false
	}
	metrics.IncSlotCache(true)
	return slots, true
}

// Generation returns the doctor's invalidation counter. It must be read
// before computing a slot list and handed back to Set.
func (c *SlotCache) Generation(ctx context.Context, doctorID uint) (int64, bool) {
	if !c.enabled() {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, generationKey(doctorID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.log.Warn().Err(err).Uint("doctor_id", doctorID).Msg("slot cache generation read failed")
		return 0, false
	}
	return gen, true
}

// Set stores slots only while the doctor's generation still equals gen, so
// a list computed before an invalidation is never written after it.
func (c *SlotCache) Set(ctx context.Context, doctorID uint, date models.Date, slots []string, gen int64) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}

	key := generationKey(doctorID)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errOutdated
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dayKey(doctorID, date), data, c.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
	case errors.Is(err, errOutdated), errors.Is(err, redis.TxFailedErr):
		c.log.Debug().Uint("doctor_id", doctorID).Str("date", models.FormatDate(date)).Msg("slot list outdated, not cached")
	default:
		c.log.Warn().Err(err).Msg("slot cache write failed")
	}
}

// invalidate bumps the doctor's generation before deleting keys.
func (c *SlotCache) invalidate(ctx context.Context, doctorID uint, keys ...string) error {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(doctorID))
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		return nil
	})
	return err
}

func (c *SlotCache) InvalidateDay(ctx context.Context, doctorID uint, date models.Date) {
	if !c.enabled() {
		return
	}
	if err := c.invalidate(ctx, doctorID, dayKey(doctorID, date)); err != nil {
		c.log.Warn().Err(err).Uint("doctor_id", doctorID).Msg("slot cache invalidation failed")
	}
}

func (c *SlotCache) InvalidateDoctor(ctx context.Context, doctorID uint) {
	if !c.enabled() {
		return
	}
	if err := c.invalidate(ctx, doctorID); err != nil {
		c.log.Warn().Err(err).Uint("doctor_id", doctorID).Msg("slot cache invalidation failed")
		return
	}

	iter := c.redis.Scan(ctx, 0, doctorPattern(doctorID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Uint("doctor_id", doctorID).Msg("slot cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Uint("doctor_id", doctorID).Msg("slot cache invalidation failed")
	}
}
