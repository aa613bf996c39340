// Package ratelimit implements fixed-window request counters. The first hit
// for a key opens a window; every hit inside it increments the count; once the
// window elapses the count restarts at 1.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result describes the state of a key after a hit.
type Result struct {
	Allowed   bool
	Count     int64
	Limit     int
	ResetIn   time.Duration
	Remaining int
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func newResult(count int64, limit int, resetIn time.Duration) Result {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(limit),
		Count:     count,
		Limit:     limit,
		ResetIn:   resetIn,
		Remaining: remaining,
	}
}

// RedisLimiter keeps the counters in redis so every instance shares them.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := fmt.Sprintf("rate_limit:%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit incr: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire: %w", err)
		}
		return newResult(count, l.limit, l.window), nil
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	// A key without expiry means the EXPIRE after the first INCR was lost.
	if ttl < 0 {
		_ = l.client.Expire(ctx, redisKey, l.window).Err()
		ttl = l.window
	}

	return newResult(count, l.limit, ttl), nil
}
