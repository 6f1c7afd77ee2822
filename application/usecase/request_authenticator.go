package usecase

import (
	"context"
	"errors"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/application/port/outbound"
	"github.com/portinscan/portinscan/domain/apperror"
	"github.com/portinscan/portinscan/domain/valueobject"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
	"github.com/portinscan/portinscan/infrastructure/service/metrics"
)

// RequestAuthenticatorUseCase backs the per-request filter: the refresh branch and
// the access branch. Token problems are never errors here; only store failures are.
type RequestAuthenticatorUseCase struct {
	userRepository outbound.UserRepository
	tokenService   outbound.TokenService
	logger         logger.Logger
	metrics        metrics.Recorder
	rotate         bool
}

var _ inbound.RequestAuthenticator = (*RequestAuthenticatorUseCase)(nil)

// NewRequestAuthenticator builds the use case. With rotate set, every successful
// refresh also replaces the stored refresh token through a compare-and-swap.
func NewRequestAuthenticator(
	userRepo outbound.UserRepository,
	tokenService outbound.TokenService,
	log logger.Logger,
	recorder metrics.Recorder,
	rotate bool,
) *RequestAuthenticatorUseCase {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RequestAuthenticatorUseCase{
		userRepository: userRepo,
		tokenService:   tokenService,
		logger:         log,
		metrics:        recorder,
		rotate:         rotate,
	}
}

func (uc *RequestAuthenticatorUseCase) Refresh(ctx context.Context, refreshToken string, w inbound.TokenWriter) (bool, error) {
	if refreshToken == "" {
		return false, nil
	}
	if !uc.tokenService.IsTokenValid(refreshToken) {
		uc.metrics.RefreshAttempt(metrics.OutcomeInvalid)
		return false, nil
	}

	user, err := uc.userRepository.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			uc.stale(ctx, "")
			return false, nil
		}
		uc.metrics.RefreshAttempt(metrics.OutcomeError)
		uc.logger.Error(ctx, "Failed to look up refresh token", err, nil)
		return false, apperror.ErrDatabaseError("find_user_by_refresh_token", err)
	}

	accessToken, err := uc.tokenService.IssueAccessToken(user.Email, user.Role)
	if err != nil {
		uc.metrics.RefreshAttempt(metrics.OutcomeError)
		return false, apperror.ErrInternalServerError("failed to issue access token", err)
	}
	pair := valueobject.NewTokenPair(accessToken, "")

	if uc.rotate {
		next, err := uc.tokenService.IssueRefreshToken()
		if err != nil {
			uc.metrics.RefreshAttempt(metrics.OutcomeError)
			return false, apperror.ErrInternalServerError("failed to issue refresh token", err)
		}

		swapped, err := uc.userRepository.SwapRefreshToken(ctx, user.Email, refreshToken, next)
		if err != nil && !errors.Is(err, outbound.ErrUserNotFound) {
			uc.metrics.RefreshAttempt(metrics.OutcomeError)
			uc.logger.Error(ctx, "Failed to rotate refresh token", err, map[string]interface{}{"email": user.Email})
			return false, apperror.ErrDatabaseError("swap_refresh_token", err)
		}
		if !swapped {
			// a concurrent login or refresh replaced the token after our lookup
			uc.stale(ctx, user.Email)
			return false, nil
		}
		pair = valueobject.NewTokenPair(accessToken, next)
	}

	w.WriteTokens(pair)

	uc.metrics.RefreshAttempt(metrics.OutcomeIssued)
	logger.LogAuthEvent(ctx, uc.logger, "refresh_issued", user.Email, true, map[string]interface{}{
		"rotated": pair.HasRefreshToken(),
	})
	return true, nil
}

func (uc *RequestAuthenticatorUseCase) Resolve(ctx context.Context, accessToken string) (*valueobject.Principal, error) {
	if accessToken == "" {
		return nil, nil
	}
	if !uc.tokenService.IsTokenValid(accessToken) {
		uc.metrics.AccessResolution(metrics.OutcomeInvalid)
		return nil, nil
	}
	subject, ok := uc.tokenService.ExtractSubject(accessToken)
	if !ok {
		uc.metrics.AccessResolution(metrics.OutcomeInvalid)
		return nil, nil
	}

	user, err := uc.userRepository.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			uc.metrics.AccessResolution(metrics.OutcomeUnknownUser)
			uc.logger.Debug(ctx, "Access token subject no longer exists", map[string]interface{}{"email": subject})
			return nil, nil
		}
		uc.metrics.AccessResolution(metrics.OutcomeError)
		uc.logger.Error(ctx, "Failed to resolve access token subject", err, map[string]interface{}{"email": subject})
		return nil, apperror.ErrDatabaseError("find_user_by_email", err)
	}

	uc.metrics.AccessResolution(metrics.OutcomeAuthenticated)
	principal := user.Principal()
	return &principal, nil
}

func (uc *RequestAuthenticatorUseCase) stale(ctx context.Context, email string) {
	uc.metrics.RefreshAttempt(metrics.OutcomeStale)
	logger.LogAuthEvent(ctx, uc.logger, "refresh_stale", email, false, nil)
}
