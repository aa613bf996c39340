package ratelimit

import (
	"context"

	"quddle-backend/pkg/logger"
)

// FallbackLimiter consults primary and, when it errors, counts locally in
// secondary so a redis outage degrades to per-instance limiting.
type FallbackLimiter struct {
	primary   Limiter
	secondary Limiter
	log       *logger.Logger
}

func NewFallbackLimiter(primary, secondary Limiter, log *logger.Logger) *FallbackLimiter {
	return &FallbackLimiter{primary: primary, secondary: secondary, log: log}
}

func (l *FallbackLimiter) Allow(ctx context.Context, key string) (Result, error) {
	res, err := l.primary.Allow(ctx, key)
	if err == nil {
		return res, nil
	}
	l.log.Warn("Shared rate limit store failed, counting locally: %v", err)
	return l.secondary.Allow(ctx, key)
}
