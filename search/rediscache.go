package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deepresearch/core/telemetry"
)

// RedisCache is an optional, distributed alternative to Cache for
// deployments that run more than one orchestrator process sharing a
// provider quota. It fronts go-redis the same way the Pulse event-bus
// mirror fronts Redis for the event bus: a thin, swappable backing store
// behind the same Get/Set shape as the in-memory cache.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    telemetry.Logger
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithRedisCacheTTL overrides the default 6-hour entry TTL.
func WithRedisCacheTTL(ttl time.Duration) RedisCacheOption {
	return func(c *RedisCache) { c.ttl = ttl }
}

// WithRedisCacheLogger attaches a logger for cache get, set, encode and
// decode failures; a plain miss is not logged.
func WithRedisCacheLogger(l telemetry.Logger) RedisCacheOption {
	return func(c *RedisCache) { c.log = l }
}

// NewRedisCache wraps an existing redis client. prefix namespaces keys so
// the cache can share a Redis instance with the event bus's Pulse mirror.
func NewRedisCache(client *redis.Client, prefix string, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{client: client, prefix: prefix, ttl: 6 * time.Hour, log: telemetry.NewNoop().Logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) redisKey(key CacheKey) string {
	return c.prefix + ":" + key.String()
}

// Get returns the cached results for key, or (nil, false) on a miss or
// decode failure.
func (c *RedisCache) Get(ctx context.Context, key CacheKey) ([]Result, bool) {
	raw, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn(ctx, "search cache get failed", "error", err.Error())
		}
		return nil, false
	}
	var results []Result
	if err := json.Unmarshal(raw, &results); err != nil {
		c.log.Warn(ctx, "search cache decode failed", "error", err.Error())
		return nil, false
	}
	return results, true
}

// Set stores results under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key CacheKey, results []Result) {
	raw, err := json.Marshal(results)
	if err != nil {
		c.log.Warn(ctx, "search cache encode failed", "error", err.Error())
		return
	}
	if err := c.client.Set(ctx, c.redisKey(key), raw, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "search cache set failed", "error", err.Error())
	}
}
