package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/portinscan/portinscan/infrastructure/service/logger"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// RateLimitService counts attempts per key inside a window and keeps keys blocked
// for a fixed duration once their limit is reached.
type RateLimitService interface {
	// Increment counts one attempt and returns the count including it. Callers
	// decide on the returned value so concurrent attempts cannot share a slot.
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
	Block(ctx context.Context, key string, duration time.Duration, reason string) error
	IsBlocked(ctx context.Context, key string) (bool, error)
}

type RateLimitConfig struct {
	Enabled       bool
	Backend       string
	RedisURL      string
	LoginAttempts int
	LoginWindow   time.Duration
	BlockDuration time.Duration
}

// NewRateLimitService picks the backend named in config. A disabled limiter is a no-op.
func NewRateLimitService(config RateLimitConfig, log logger.Logger) (RateLimitService, error) {
	ctx := context.Background()

	if !config.Enabled {
		log.Info(ctx, "Rate limiting disabled", nil)
		return NewNoopRateLimitService(), nil
	}

	fields := map[string]interface{}{
		"backend":        config.Backend,
		"login_attempts": config.LoginAttempts,
		"login_window":   config.LoginWindow.String(),
		"block_duration": config.BlockDuration.String(),
	}

	switch config.Backend {
	case BackendMemory:
		log.Info(ctx, "Rate limiting service initialized", fields)
		return NewMemoryRateLimitService(config.LoginWindow, log), nil
	case BackendRedis:
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		client := redis.NewClient(opt)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}

		log.Info(ctx, "Rate limiting service initialized", fields)
		return NewRedisRateLimitService(client, log), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", config.Backend)
	}
}

func blockKey(key string) string {
	return "blocked:" + key
}
