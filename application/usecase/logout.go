package usecase

import (
	"context"
	"errors"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/application/port/outbound"
	"github.com/portinscan/portinscan/domain/apperror"
	"github.com/portinscan/portinscan/domain/valueobject"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
)

// LogoutUseCaseImpl ends a session. Tokens are stateless, so unless revocation is
// switched on the stored refresh token survives logout.
type LogoutUseCaseImpl struct {
	userRepository outbound.UserRepository
	logger         logger.Logger
	revokeRefresh  bool
}

var _ inbound.LogoutUseCase = (*LogoutUseCaseImpl)(nil)

func NewLogoutUseCase(userRepo outbound.UserRepository, log logger.Logger, revokeRefresh bool) *LogoutUseCaseImpl {
	return &LogoutUseCaseImpl{
		userRepository: userRepo,
		logger:         log,
		revokeRefresh:  revokeRefresh,
	}
}

func (uc *LogoutUseCaseImpl) Logout(ctx context.Context, principal *valueobject.Principal) error {
	if principal == nil {
		uc.logger.Debug(ctx, "Logout without an authenticated principal", nil)
		return nil
	}

	if uc.revokeRefresh {
		err := uc.userRepository.SaveRefreshToken(ctx, principal.Email, "")
		if err != nil && !errors.Is(err, outbound.ErrUserNotFound) {
			uc.logger.Error(ctx, "Failed to revoke refresh token", err, map[string]interface{}{"email": principal.Email})
			return apperror.ErrDatabaseError("clear_refresh_token", err)
		}
	}

	logger.LogAuthEvent(ctx, uc.logger, "logout", principal.Email, true, map[string]interface{}{
		"refresh_revoked": uc.revokeRefresh,
	})
	return nil
}
