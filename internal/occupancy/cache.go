package occupancy

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through Redis layer in front of another Source. Redis
// failures are treated as misses so a flaky cache never blocks the engine.
type Cache struct {
	inner Source
	redis *redis.Client
	ttl   time.Duration
}

// NewCache wraps inner with Redis caching. A nil client or non-positive TTL
// disables caching and every call falls through.
func NewCache(inner Source, client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{inner: inner, redis: client, ttl: ttl}
}

// Remaining serves from Redis when possible, otherwise queries the inner
// source and stores the answer.
func (c *Cache) Remaining(ctx context.Context, lotID, floor, zone string, tr TimeRange) (int, error) {
	key := cacheKey(lotID, floor, zone, tr)
	if c.enabled() {
		if val, err := c.redis.Get(ctx, key).Result(); err == nil {
			if n, err := strconv.Atoi(val); err == nil {
				return n, nil
			}
		}
	}

	n, err := c.inner.Remaining(ctx, lotID, floor, zone, tr)
	if err != nil {
		return 0, err
	}
	if c.enabled() {
		_ = c.redis.Set(ctx, key, strconv.Itoa(n), c.ttl).Err()
	}
	return n, nil
}

func (c *Cache) enabled() bool {
	return c.redis != nil && c.ttl > 0
}

func cacheKey(lotID, floor, zone string, tr TimeRange) string {
	return fmt.Sprintf("occupancy:%s:%s:%s:%s", lotID, floor, zone, tr.Start.UTC().Format("2006-01-02T15:04"))
}
