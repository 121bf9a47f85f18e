package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// RateLimiter implements domain.RateLimiter with a fixed window counter:
// INCR on a per-key counter whose TTL is set on first increment. Counts can
// briefly double across a window boundary, which is acceptable for API
// throttling.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window.
func NewRateLimiter(c *Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: c.Underlying(), limit: int64(limit), window: window}
}

func rateKey(key string) string {
	return "ratelimit:" + key
}

// Allow increments the caller's counter and reports whether it is still
// within the limit for the current window.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	rk := rateKey(key)

	count, err := rl.rdb.Incr(ctx, rk).Result()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit incr %s: %w", key, err)
	}
	if count == 1 {
		if err := rl.rdb.Expire(ctx, rk, rl.window).Err(); err != nil {
			return false, fmt.Errorf("redis: rate limit expire %s: %w", key, err)
		}
	}

	return count <= rl.limit, nil
}

// Compile-time interface check.
var _ domain.RateLimiter = (*RateLimiter)(nil)
