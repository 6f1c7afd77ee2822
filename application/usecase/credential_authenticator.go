package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/application/port/outbound"
	"github.com/portinscan/portinscan/domain/apperror"
	"github.com/portinscan/portinscan/domain/valueobject"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
)

// CredentialAuthenticatorUseCase checks an email/password pair. It never writes.
type CredentialAuthenticatorUseCase struct {
	userRepository  outbound.UserRepository
	passwordService outbound.PasswordService
	logger          logger.Logger

	// verified against on unknown emails so both failures cost one hash check
	dummyHash string
}

var _ inbound.CredentialAuthenticator = (*CredentialAuthenticatorUseCase)(nil)

func NewCredentialAuthenticator(
	userRepo outbound.UserRepository,
	passwordService outbound.PasswordService,
	log logger.Logger,
) *CredentialAuthenticatorUseCase {
	dummyHash, err := passwordService.HashPassword(uuid.NewString())
	if err != nil {
		log.Warn(context.Background(), "Failed to prepare dummy password hash", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return &CredentialAuthenticatorUseCase{
		userRepository:  userRepo,
		passwordService: passwordService,
		logger:          log,
		dummyHash:       dummyHash,
	}
}

func (uc *CredentialAuthenticatorUseCase) Authenticate(ctx context.Context, credentials valueobject.Credentials) (*valueobject.Principal, error) {
	email := credentials.Email()

	user, err := uc.userRepository.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			_, _ = uc.passwordService.VerifyPassword(credentials.Password(), uc.dummyHash)
			logger.LogAuthEvent(ctx, uc.logger, "login_unknown_user", email, false, nil)
			return nil, apperror.ErrUserNotFound(email)
		}
		uc.logger.Error(ctx, "Failed to look up user", err, map[string]interface{}{"email": email})
		return nil, apperror.ErrDatabaseError("find_user_by_email", err)
	}

	matched, err := uc.passwordService.VerifyPassword(credentials.Password(), user.PasswordHash)
	if err != nil {
		uc.logger.Error(ctx, "Stored password hash is unusable", err, map[string]interface{}{"user_id": user.ID})
		return nil, apperror.ErrInternalServerError("password verification failed", err)
	}
	if !matched {
		logger.LogAuthEvent(ctx, uc.logger, "login_bad_password", email, false, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, apperror.ErrInvalidCredentials("password mismatch")
	}

	principal := user.Principal()
	return &principal, nil
}
