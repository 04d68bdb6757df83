// Package cache provides the Redis response cache fronting read-heavy
// endpoints. All operations are fail-open: a missing or unreachable cache
// degrades to a miss, never an error surfaced to the caller.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/rs/zerolog"

	"github.com/voyago/trip-planner/internal/model"
)

const (
	detailKeyFmt = "trips:detail:%s"
	listKeyFmt   = "trips:list:p%d:s%d:f%s"
	listPattern  = "trips:list:*"
)

// Cache is a cache-aside wrapper over a Redis client. A nil client (no
// TRIP_PLANNER_REDIS_ADDR configured) behaves as an always-miss cache.
type Cache struct {
	cli *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// New connects to Redis at addr. Connection failure is logged and degraded
// to a no-op cache rather than returned: the service runs without caching.
func New(addr string, ttl time.Duration, log zerolog.Logger) *Cache {
	if addr == "" {
		return &Cache{ttl: ttl, log: log}
	}
	cli := redis.NewClient(&redis.Options{Addr: addr})
	if err := cli.Ping().Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unreachable, caching disabled")
		return &Cache{ttl: ttl, log: log}
	}
	return &Cache{cli: cli, ttl: ttl, log: log}
}

// Nop returns a cache that never hits, used by tests and cacheless setups.
func Nop() *Cache { return &Cache{} }

// DetailKey returns the cache key for a trip detail response.
func DetailKey(tripID string) string { return fmt.Sprintf(detailKeyFmt, tripID) }

// ListKey returns the cache key for one page of the trip list.
func ListKey(page, pageSize int, status *model.TripStatus) string {
	f := ""
	if status != nil {
		f = string(*status)
	}
	return fmt.Sprintf(listKeyFmt, page, pageSize, f)
}

// Get returns the cached body for key, reporting whether it was present.
func (c *Cache) Get(key string) ([]byte, bool) {
	if c.cli == nil {
		return nil, false
	}
	val, err := c.cli.Get(key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return nil, false
	}
	return val, true
}

// Set stores body under key with the configured TTL.
func (c *Cache) Set(key string, body []byte) {
	if c.cli == nil {
		return
	}
	if err := c.cli.Set(key, body, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// InvalidateTrip drops the detail entry for the trip and every cached list
// page. A failed invalidation degrades to a stale read until TTL expiry.
func (c *Cache) InvalidateTrip(tripID string) {
	if c.cli == nil {
		return
	}
	if err := c.cli.Del(DetailKey(tripID)).Err(); err != nil {
		c.log.Warn().Err(err).Str("trip_id", tripID).Msg("cache detail invalidation failed")
	}
	var cursor uint64
	for {
		keys, next, err := c.cli.Scan(cursor, listPattern, 100).Result()
		if err != nil {
			c.log.Warn().Err(err).Msg("cache list scan failed")
			return
		}
		if len(keys) > 0 {
			if err := c.cli.Del(keys...).Err(); err != nil {
				c.log.Warn().Err(err).Msg("cache list invalidation failed")
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// HealthPing implements health.HealthPinger. A cacheless setup is healthy.
func (c *Cache) HealthPing(ctx context.Context) error {
	if c.cli == nil {
		return nil
	}
	return c.cli.Ping().Err()
}
