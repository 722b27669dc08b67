// Package ratelimit throttles public booking creation per client key.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

const keyPrefix = "agenda:ratelimit:"

type Limiter interface {
	// Allow counts one request for key and reports whether it may proceed.
	Allow(ctx context.Context, key string) (bool, error)
}

// ======================================================
// Redis fixed window
// ======================================================

// RedisLimiter shares a fixed-window counter across every API instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := keyPrefix + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("increment rate limit: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("expire rate limit: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}

// ======================================================
// In-process token bucket
// ======================================================

// LocalLimiter keeps one token bucket per key in memory.
type LocalLimiter struct {
	limiters sync.Map
	every    rate.Limit
	burst    int
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &LocalLimiter{
		every: rate.Every(window / time.Duration(limit)),
		burst: limit,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.get(key).Allow(), nil
}

func (l *LocalLimiter) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.every, l.burst))
	return actual.(*rate.Limiter)
}
