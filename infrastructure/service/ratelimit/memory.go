package ratelimit

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/portinscan/portinscan/infrastructure/service/logger"
)

// memoryRateLimitService keeps counters in process. Suitable for a single instance.
type memoryRateLimitService struct {
	mu     sync.Mutex
	cache  *gocache.Cache
	logger logger.Logger
}

func NewMemoryRateLimitService(defaultWindow time.Duration, log logger.Logger) RateLimitService {
	return &memoryRateLimitService{
		cache:  gocache.New(defaultWindow, time.Minute),
		logger: log,
	}
}

func (s *memoryRateLimitService) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Add fails when the key is live, which keeps its original expiry
	if err := s.cache.Add(key, 1, window); err == nil {
		return 1, nil
	}
	count, err := s.cache.IncrementInt(key, 1)
	if err != nil {
		// expired between Add and IncrementInt
		s.cache.Set(key, 1, window)
		return 1, nil
	}
	return count, nil
}

func (s *memoryRateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	s.cache.Set(blockKey(key), reason, duration)
	s.logger.Warn(ctx, "Key blocked due to rate limit exceeded", map[string]interface{}{
		"key":      key,
		"duration": duration.String(),
		"reason":   reason,
	})
	return nil
}

func (s *memoryRateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	_, found := s.cache.Get(blockKey(key))
	return found, nil
}
