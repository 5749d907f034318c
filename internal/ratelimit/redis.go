package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// counterTTLSeconds keeps a window counter alive one second past its window
// so in-flight checks still see it before Redis expires the key.
const counterTTLSeconds = 2

// incrWithExpiry bumps the window counter and arms its TTL on first use.
var incrWithExpiry = redis.NewScript(`
local used = redis.call("INCR", KEYS[1])
if used == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return used
`)

// RedisLimiter is the shared fixed-window backend. Each key gets a
// per-second counter in Redis, so every instance of the service draws from
// the same budget.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter builds a limiter on an established client. The prefix
// namespaces counters when the Redis database is shared.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: strings.TrimSpace(prefix)}
}

// Allow consumes one unit of the key's budget for the window containing now.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" || l == nil || l.client == nil {
		return Result{Allowed: true}, nil
	}
	window := now.Unix()
	reset := time.Unix(window+1, 0).UTC()

	counterKey := l.counterKey(key, window)
	used, errRun := incrWithExpiry.Run(ctx, l.client, []string{counterKey}, counterTTLSeconds).Int64()
	if errRun != nil {
		return Result{}, fmt.Errorf("ratelimit: redis incr %s: %w", counterKey, errRun)
	}
	if used > int64(limit) {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	return Result{Allowed: true, Remaining: limit - int(used), Reset: reset}, nil
}

// counterKey names the Redis counter for a key's current window.
func (l *RedisLimiter) counterKey(key string, window int64) string {
	if l.prefix == "" {
		return fmt.Sprintf("%s:%d", key, window)
	}
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, window)
}
