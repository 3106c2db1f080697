// Package ratelimit implements fixed-window rate limiting on Redis counters.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openclave/walletauth/core"
	"github.com/openclave/walletauth/internal/metrics"
	"github.com/openclave/walletauth/ports"
)

const rateLimitKeyPrefix = "ratelimit:"

// counterClient is the slice of redis.Client the limiter uses. Tests stand in
// a fake built from redis.NewIntResult and friends.
type counterClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter counts requests per (identity, operation) in fixed windows.
// When Redis is unavailable it fails open: authentication availability is
// prioritized over rate-limit strictness.
type RedisLimiter struct {
	client      counterClient
	maxRequests int
	window      time.Duration
	log         *zap.Logger
}

// NewRedisLimiter creates a limiter allowing maxRequests per window.
func NewRedisLimiter(client *redis.Client, maxRequests int, window time.Duration, log *zap.Logger) *RedisLimiter {
	return newLimiter(client, maxRequests, window, log)
}

func newLimiter(client counterClient, maxRequests int, window time.Duration, log *zap.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
		log:         log,
	}
}

var _ ports.RateLimiter = (*RedisLimiter)(nil)

// Check increments the window counter and reports whether the request fits.
func (l *RedisLimiter) Check(ctx context.Context, identity, operation string) (core.RateLimitResult, error) {
	key := fmt.Sprintf("%s%s:%s", rateLimitKeyPrefix, identity, operation)
	now := time.Now()

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return l.failOpen(operation, err)
	}

	if count == 1 {
		// First request in the window owns setting its expiry.
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return l.failOpen(operation, err)
		}
		return core.RateLimitResult{
			Allowed:   true,
			Remaining: l.maxRequests - 1,
			ResetAt:   now.Add(l.window),
		}, nil
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		// A counter without expiry (the count==1 Expire failed, or the key
		// survived a crash) would lock the identity out forever. Re-arm it and
		// treat this as a fresh window.
		if ttl < 0 {
			if expireErr := l.client.Expire(ctx, key, l.window).Err(); expireErr != nil {
				l.log.Warn("failed to re-arm rate limit window",
					zap.String("operation", operation), zap.Error(expireErr))
			}
		}
		ttl = l.window
	}
	resetAt := now.Add(ttl)

	if count > int64(l.maxRequests) {
		metrics.RateLimited.WithLabelValues(operation).Inc()
		return core.RateLimitResult{Allowed: false, Remaining: 0, ResetAt: resetAt},
			&core.RateLimitError{Operation: operation, ResetAt: resetAt}
	}

	return core.RateLimitResult{
		Allowed:   true,
		Remaining: l.maxRequests - int(count),
		ResetAt:   resetAt,
	}, nil
}

func (l *RedisLimiter) failOpen(operation string, err error) (core.RateLimitResult, error) {
	metrics.RateLimiterErrors.Inc()
	l.log.Warn("rate limiter store unavailable, failing open",
		zap.String("operation", operation), zap.Error(err))
	return core.RateLimitResult{Allowed: true, Remaining: 0, ResetAt: time.Now().Add(l.window)}, nil
}
