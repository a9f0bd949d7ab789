// Package ratelimitredis implements the login limiter as a Redis fixed
// window: INCR per key, EXPIRE on first hit.
package ratelimitredis

import (
	"context"
	"time"

	"github.com/libromesh/identity/pkg/errx"
	"github.com/redis/go-redis/v9"
)

var redisErrors = errx.NewRegistry("RATELIMIT_REDIS")

var (
	ErrBackend = redisErrors.Register("BACKEND", errx.TypeExternal, 500, "Rate limit backend unavailable")
)

const keyPrefix = "identity:ratelimit:"

// FixedWindow counts attempts per key inside a rolling-reset window.
type FixedWindow struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewFixedWindow(client *redis.Client, limit int, window time.Duration) *FixedWindow {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindow{
		client: client,
		limit:  int64(limit),
		window: window,
	}
}

// Allow increments the key's counter and reports whether it is still within
// the limit. The window starts on the first attempt for the key.
func (l *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	k := keyPrefix + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, redisErrors.NewWithCause(ErrBackend, err).WithDetail("key", key)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, redisErrors.NewWithCause(ErrBackend, err).WithDetail("key", key)
		}
	}
	return n <= l.limit, nil
}
