// Package cache provides an optional redis-backed cache for availability
// queries. The bot works without it; every method is a no-op on a nil
// receiver.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SlotCache caches per-date slot availability with a short TTL. Booking
// mutations invalidate the date key, so stale entries live at most one
// TTL even if an invalidation is missed.
type SlotCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New creates a slot cache over the given redis client.
func New(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *SlotCache {
	return &SlotCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func slotKey(date time.Time) string {
	return "slots:" + date.Format("2006-01-02")
}

// GetSlots returns cached slots for a date and whether the key was found.
func (c *SlotCache) GetSlots(ctx context.Context, date time.Time) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, slotKey(date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug().Err(err).Msg("cache get failed")
		}
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

// SetSlots stores the slots for a date.
func (c *SlotCache) SetSlots(ctx context.Context, date time.Time, slots []string) {
	if c == nil {
		return
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, slotKey(date), data, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("cache set failed")
	}
}

// Invalidate drops the cached slots for a date.
func (c *SlotCache) Invalidate(ctx context.Context, date time.Time) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, slotKey(date)).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("cache invalidate failed")
	}
}
