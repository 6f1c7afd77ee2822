package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/application/port/outbound"
	"github.com/portinscan/portinscan/domain/apperror"
	"github.com/portinscan/portinscan/domain/entity"
	"github.com/portinscan/portinscan/domain/valueobject"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
	"github.com/portinscan/portinscan/infrastructure/validator"
)

// UserProvisionerUseCase creates accounts out of band (operator CLI, test fixtures).
type UserProvisionerUseCase struct {
	userRepository  outbound.UserRepository
	passwordService outbound.PasswordService
	logger          logger.Logger
}

var _ inbound.UserProvisioner = (*UserProvisionerUseCase)(nil)

func NewUserProvisioner(userRepo outbound.UserRepository, passwordService outbound.PasswordService, log logger.Logger) *UserProvisionerUseCase {
	return &UserProvisionerUseCase{
		userRepository:  userRepo,
		passwordService: passwordService,
		logger:          log,
	}
}

func (uc *UserProvisionerUseCase) Create(ctx context.Context, req inbound.CreateUserRequest) (string, error) {
	email := strings.TrimSpace(req.Email)
	if !validator.ValidateEmail(email) {
		return "", apperror.ErrInvalidRequest("a valid email is required", nil)
	}
	if !validator.ValidateRequired(req.Password) {
		return "", apperror.ErrInvalidRequest("password is required", nil)
	}

	role := req.Role
	if role == "" {
		role = valueobject.RoleUser
	}
	if !role.Valid() {
		return "", apperror.ErrInvalidRequest(fmt.Sprintf("unknown role %q", role), nil)
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = email[:strings.Index(email, "@")]
	}

	_, err := uc.userRepository.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return "", fmt.Errorf("%s: %w", email, outbound.ErrUserAlreadyExists)
	case !errors.Is(err, outbound.ErrUserNotFound):
		return "", apperror.ErrDatabaseError("find_user_by_email", err)
	}

	hash, err := uc.passwordService.HashPassword(req.Password)
	if err != nil {
		return "", apperror.ErrInternalServerError("failed to hash password", err)
	}

	user := entity.NewUser(uuid.NewString(), email, username, hash, role)
	if err := uc.userRepository.Create(ctx, user); err != nil {
		if errors.Is(err, outbound.ErrUserAlreadyExists) {
			return "", fmt.Errorf("%s: %w", email, err)
		}
		return "", apperror.ErrDatabaseError("create_user", err)
	}

	uc.logger.Info(ctx, "User created", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role.String(),
	})
	return user.ID, nil
}
