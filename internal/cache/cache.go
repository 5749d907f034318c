// Package cache provides a small JSON cache backed by Redis. A nil cache
// is valid and disables caching.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"focustask/internal/config"
)

// Cache stores JSON-encoded values under prefixed keys.
type Cache struct {
	client *redis.Client
	prefix string
}

// New builds a cache from the Redis config. Returns nil when no address is
// configured.
func New(cfg config.RedisConfig) *Cache {
	if cfg.Addr == "" {
		return nil
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "focustask"
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: prefix,
	}
}

// Get unmarshals the cached value into dest, reporting whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	raw, errGet := c.client.Get(ctx, c.prefix+":"+key).Result()
	if errGet != nil {
		if errors.Is(errGet, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache: get %s: %w", key, errGet)
	}
	if errUnmarshal := json.Unmarshal([]byte(raw), dest); errUnmarshal != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, errUnmarshal)
	}
	return true, nil
}

// Set stores the value under the key with a TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	raw, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("cache: encode %s: %w", key, errMarshal)
	}
	if errSet := c.client.Set(ctx, c.prefix+":"+key, raw, ttl).Err(); errSet != nil {
		return fmt.Errorf("cache: set %s: %w", key, errSet)
	}
	return nil
}

// Invalidate removes a key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}
	if errDel := c.client.Del(ctx, c.prefix+":"+key).Err(); errDel != nil {
		return fmt.Errorf("cache: invalidate %s: %w", key, errDel)
	}
	return nil
}
