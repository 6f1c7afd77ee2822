package ratelimit

import (
	"context"
	"time"
)

// noopRateLimitService allows everything. Used when rate limiting is disabled.
type noopRateLimitService struct{}

func NewNoopRateLimitService() RateLimitService {
	return noopRateLimitService{}
}

func (noopRateLimitService) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	return 0, nil
}

func (noopRateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	return nil
}

func (noopRateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	return false, nil
}
