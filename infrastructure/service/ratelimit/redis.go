package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/portinscan/portinscan/infrastructure/service/logger"
)

type redisRateLimitService struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisRateLimitService(client *redis.Client, log logger.Logger) RateLimitService {
	return &redisRateLimitService{
		client: client,
		logger: log,
	}
}

func (s *redisRateLimitService) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Error(ctx, "Failed to increment rate limit counter", err, map[string]interface{}{"key": key})
		return 0, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	// the window is anchored at the first attempt
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			s.logger.Error(ctx, "Failed to set rate limit window", err, map[string]interface{}{"key": key})
			return 0, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	s.logger.Debug(ctx, "Rate limit incremented", map[string]interface{}{
		"key":    key,
		"count":  count,
		"window": window.String(),
	})
	return int(count), nil
}

func (s *redisRateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	data := map[string]interface{}{
		"reason":         reason,
		"blocked_at":     time.Now().Unix(),
		"duration":       duration.Seconds(),
		"correlation_id": logger.CorrelationID(ctx),
	}

	pipeline := s.client.TxPipeline()
	pipeline.HSet(ctx, blockKey(key), data)
	pipeline.Expire(ctx, blockKey(key), duration)

	if _, err := pipeline.Exec(ctx); err != nil {
		s.logger.Error(ctx, "Failed to block key", err, map[string]interface{}{"key": key})
		return fmt.Errorf("failed to block key: %w", err)
	}

	s.logger.Warn(ctx, "Key blocked due to rate limit exceeded", map[string]interface{}{
		"key":      key,
		"duration": duration.String(),
		"reason":   reason,
	})
	return nil
}

func (s *redisRateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	exists, err := s.client.Exists(ctx, blockKey(key)).Result()
	if err != nil {
		s.logger.Error(ctx, "Failed to check block status", err, map[string]interface{}{"key": key})
		return false, fmt.Errorf("failed to check block status: %w", err)
	}
	return exists > 0, nil
}
