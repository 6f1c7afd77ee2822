package outbound

import (
	"context"
	"errors"

	"github.com/portinscan/portinscan/domain/entity"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepository is the credential store. Lookups return ErrUserNotFound when
// nothing matches; any other error means the store itself failed.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// FindByRefreshToken matches the stored refresh token exactly.
	FindByRefreshToken(ctx context.Context, refreshToken string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	// SaveRefreshToken overwrites the user's refresh token unconditionally.
	// An empty token clears the slot.
	SaveRefreshToken(ctx context.Context, email, refreshToken string) error
	// SwapRefreshToken replaces previous with next only if previous is still the
	// stored value, as one atomic per-row operation. It reports whether the swap happened.
	SwapRefreshToken(ctx context.Context, email, previous, next string) (bool, error)
}
