package scoremaps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/kickscore/internal/domain/scoremap"
	"github.com/okian/kickscore/pkg/logger"
	"github.com/okian/kickscore/pkg/metrics"
)

const (
	keyPrefix    = "kickscore:scoremap:"
	absentMarker = "\x00absent"
	defaultTTL   = time.Hour
)

// KV is the subset of the Redis client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache serves tables from Redis and fills it from the wrapped source.
// Absent tables are remembered too. Redis failures bypass the cache.
type RedisCache struct {
	kv     KV
	next   scoremap.Source
	ttl    time.Duration
	logger logger.Logger
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithTTL sets how long entries live. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(c *RedisCache) {
		if ttl >= 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger for Redis failures.
func WithCacheLogger(l logger.Logger) RedisOption {
	return func(c *RedisCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewRedisCache wraps next with a cache stored in kv.
func NewRedisCache(kv KV, next scoremap.Source, opts ...RedisOption) *RedisCache {
	c := &RedisCache{
		kv:     kv,
		next:   next,
		ttl:    defaultTTL,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRedisClient parses url, e.g. redis://localhost:6379/0, and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Fetch implements scoremap.Source.
func (c *RedisCache) Fetch(ctx context.Context, key scoremap.Key) ([]byte, error) {
	rkey := keyPrefix + key.Name()

	cached, err := c.kv.Get(ctx, rkey).Bytes()
	switch {
	case err == nil:
		metrics.RecordScoreMapLoad(key.Station, "cache_hit")
		if string(cached) == absentMarker {
			return nil, fmt.Errorf("%s: %w", key.Name(), scoremap.ErrNoResource)
		}
		return cached, nil
	case !errors.Is(err, redis.Nil):
		metrics.RecordErrorByComponent("scoremap_cache", "get")
		c.logger.Warn(ctx, "score table cache read failed", logger.String("key", rkey), logger.Error(err))
		return c.next.Fetch(ctx, key)
	}

	raw, err := c.next.Fetch(ctx, key)
	switch {
	case errors.Is(err, scoremap.ErrNoResource):
		c.store(ctx, rkey, []byte(absentMarker))
		return nil, err
	case err != nil:
		return nil, err
	}
	c.store(ctx, rkey, raw)
	return raw, nil
}

func (c *RedisCache) store(ctx context.Context, rkey string, value []byte) {
	if err := c.kv.Set(ctx, rkey, value, c.ttl).Err(); err != nil {
		metrics.RecordErrorByComponent("scoremap_cache", "set")
		c.logger.Warn(ctx, "score table cache write failed", logger.String("key", rkey), logger.Error(err))
	}
}
