package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"InvestorHelper/internal/model"
)

const keyPrefix = "series:"

// RedisCache shares fetched series between service instances.
// Backend errors are logged and reported as misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithRedisClock overrides the time source used for FetchedAt and freshness.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(c *RedisCache) { c.now = now }
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration, log zerolog.Logger, opts ...RedisOption) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisCacheWithClient(client, ttl, log, opts...), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration, log zerolog.Logger, opts ...RedisOption) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &RedisCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
		log:    log.With().Str("component", "redis_cache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func encodeEntry(entry model.CacheEntry) ([]byte, error) {
	return msgpack.Marshal(entry)
}

func decodeEntry(data []byte) (model.CacheEntry, error) {
	var entry model.CacheEntry
	err := msgpack.Unmarshal(data, &entry)
	return entry, err
}

func (c *RedisCache) Get(ctx context.Context, symbol string) (model.CacheEntry, bool) {
	data, err := c.client.Get(ctx, keyPrefix+symbol).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("cache read failed")
		}
		return model.CacheEntry{}, false
	}
	entry, err := decodeEntry(data)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("cache entry undecodable")
		return model.CacheEntry{}, false
	}
	if !fresh(entry, c.now(), c.ttl) {
		return model.CacheEntry{}, false
	}
	return entry, true
}

func (c *RedisCache) Put(ctx context.Context, symbol string, series []model.PricePoint) error {
	data, err := encodeEntry(model.CacheEntry{
		Symbol:    symbol,
		Series:    series,
		FetchedAt: c.now(),
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", symbol, err)
	}
	if err := c.client.Set(ctx, keyPrefix+symbol, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", symbol, err)
	}
	return nil
}

// Close releases the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
