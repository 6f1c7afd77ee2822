package memory

import (
	"context"
	"sync"
	"time"

	"github.com/portinscan/portinscan/application/port/outbound"
	"github.com/portinscan/portinscan/domain/entity"
)

// UserRepository keeps users in process memory. Used for local runs and tests;
// every refresh-token write happens under one lock, so swaps are atomic.
type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*entity.User
}

var _ outbound.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byEmail: make(map[string]*entity.User),
	}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, outbound.ErrUserNotFound
	}
	return clone(user), nil
}

func (r *UserRepository) FindByRefreshToken(ctx context.Context, refreshToken string) (*entity.User, error) {
	if refreshToken == "" {
		return nil, outbound.ErrUserNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.byEmail {
		if user.RefreshToken == refreshToken {
			return clone(user), nil
		}
	}
	return nil, outbound.ErrUserNotFound
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return outbound.ErrUserAlreadyExists
	}
	r.byEmail[user.Email] = clone(user)
	return nil
}

func (r *UserRepository) SaveRefreshToken(ctx context.Context, email, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byEmail[email]
	if !ok {
		return outbound.ErrUserNotFound
	}
	user.RefreshToken = refreshToken
	user.UpdatedAt = time.Now()
	return nil
}

func (r *UserRepository) SwapRefreshToken(ctx context.Context, email, previous, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byEmail[email]
	if !ok {
		return false, outbound.ErrUserNotFound
	}
	if previous == "" || user.RefreshToken != previous {
		return false, nil
	}
	user.RefreshToken = next
	user.UpdatedAt = time.Now()
	return true, nil
}

func clone(user *entity.User) *entity.User {
	copied := *user
	return &copied
}
