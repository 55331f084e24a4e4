// Package cache is a best-effort read-through cache over Redis.
//
// A nil *Cache, or one built without a client, is a valid disabled cache:
// every read is a miss and every write or delete is a no-op. Redis failures
// are logged and swallowed so the store of record always answers.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/photostream/photostream-api/internal/pkg/database"
)

const scanBatch = 200

type Cache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// New wraps client. A nil client yields a disabled cache.
func New(client *redis.Client, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Cache{client: client, defaultTTL: defaultTTL}
}

// NewFromURL connects to redisURL and returns a cache that is disabled when
// enabled is false or the server does not answer a ping.
func NewFromURL(redisURL string, enabled bool, defaultTTL time.Duration) *Cache {
	if !enabled {
		log.Info().Msg("Cache disabled by configuration")
		return New(nil, defaultTTL)
	}
	return New(database.NewOptionalRedis(redisURL), defaultTTL)
}

// Enabled reports whether a Redis client backs the cache.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Client exposes the underlying client, nil when disabled.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

func (c *Cache) DefaultTTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.defaultTTL
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return errors.New("cache disabled")
	}
	return c.client.Ping(ctx).Err()
}

// Get decodes the value stored under key into dest. Any failure is a miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Cache get failed")
		}
		log.Debug().Str("key", key).Str("cache", "miss").Msg("Cache lookup")
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache entry undecodable, dropping")
		c.Delete(ctx, key)
		return false
	}

	log.Debug().Str("key", key).Str("cache", "hit").Msg("Cache lookup")
	return true
}

// Set stores value under key. ttl <= 0 uses the default.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache value not serializable")
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache set failed")
	}
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("Cache delete failed")
	}
}

// DeletePrefix removes every key starting with prefix and returns how many
// were removed. Keys are collected over the whole SCAN before any DEL runs;
// deleting mid-scan can move the cursor past keys not yet returned.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) int {
	if !c.Enabled() || prefix == "" {
		return 0
	}

	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			log.Warn().Err(err).Str("prefix", prefix).Msg("Cache scan failed")
			return 0
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	removed := 0
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		n, err := c.client.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			log.Warn().Err(err).Str("prefix", prefix).Msg("Cache prefix delete failed")
			return removed
		}
		removed += int(n)
	}

	if removed > 0 {
		log.Debug().Str("prefix", prefix).Int("removed", removed).Msg("Cache prefix invalidated")
	}
	return removed
}

// Load is the read-through helper: a hit returns the cached value, a miss
// runs loader and caches its result. Loader errors are returned and nothing
// is stored.
func Load[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, loader func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}

	value, err := loader(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.Set(ctx, key, value, ttl)
	return value, nil
}
