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

type TokenIssuerUseCase struct {
	userRepository outbound.UserRepository
	tokenService   outbound.TokenService
	logger         logger.Logger
}

var _ inbound.TokenIssuer = (*TokenIssuerUseCase)(nil)

func NewTokenIssuer(userRepo outbound.UserRepository, tokenService outbound.TokenService, log logger.Logger) *TokenIssuerUseCase {
	return &TokenIssuerUseCase{
		userRepository: userRepo,
		tokenService:   tokenService,
		logger:         log,
	}
}

func (uc *TokenIssuerUseCase) Issue(ctx context.Context, principal valueobject.Principal, w inbound.TokenWriter) error {
	accessToken, err := uc.tokenService.IssueAccessToken(principal.Email, principal.Role)
	if err != nil {
		return apperror.ErrInternalServerError("failed to issue access token", err)
	}
	refreshToken, err := uc.tokenService.IssueRefreshToken()
	if err != nil {
		return apperror.ErrInternalServerError("failed to issue refresh token", err)
	}

	w.WriteTokens(valueobject.NewTokenPair(accessToken, refreshToken))

	// overwrites whatever the previous login or rotation left in the slot
	if err := uc.userRepository.SaveRefreshToken(ctx, principal.Email, refreshToken); err != nil {
		uc.logger.Error(ctx, "Failed to persist refresh token", err, map[string]interface{}{"email": principal.Email})
		if errors.Is(err, outbound.ErrUserNotFound) {
			return apperror.ErrInternalServerError("user disappeared during login", err)
		}
		return apperror.ErrDatabaseError("save_refresh_token", err)
	}

	logger.LogAuthEvent(ctx, uc.logger, "tokens_issued", principal.Email, true, map[string]interface{}{
		"role":          principal.Role.String(),
		"access_token":  "[REDACTED]",
		"refresh_token": "[REDACTED]",
	})
	return nil
}
