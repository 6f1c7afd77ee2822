package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/domain/valueobject"
	"github.com/portinscan/portinscan/infrastructure/adapter/memory"
	"github.com/portinscan/portinscan/infrastructure/config"
	"github.com/portinscan/portinscan/infrastructure/service/jwt"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
	"github.com/portinscan/portinscan/infrastructure/service/password"
)

type stack struct {
	repo      *memory.UserRepository
	tokens    *jwt.JWTService
	passwords *password.BcryptPasswordService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	tokens, err := jwt.NewJWTService(&config.Config{
		JWTSecret:       "usecase-test-secret",
		JWTIssuer:       "test",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	return &stack{
		repo:      memory.NewUserRepository(),
		tokens:    tokens,
		passwords: password.NewBcryptPasswordService(bcrypt.MinCost),
	}
}

func (s *stack) createUser(t *testing.T, email, pw string, role valueobject.Role) {
	t.Helper()
	_, err := NewUserProvisioner(s.repo, s.passwords, logger.NewNop()).Create(context.Background(), inbound.CreateUserRequest{
		Email:    email,
		Password: pw,
		Role:     role,
	})
	require.NoError(t, err)
}

func (s *stack) storedRefreshToken(t *testing.T, email string) string {
	t.Helper()
	user, err := s.repo.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return user.RefreshToken
}

// login runs authenticate + issue the way the login filter does.
func (s *stack) login(t *testing.T, email, pw string) (valueobject.TokenPair, error) {
	t.Helper()
	ctx := context.Background()
	principal, err := NewCredentialAuthenticator(s.repo, s.passwords, logger.NewNop()).
		Authenticate(ctx, valueobject.NewCredentials(email, pw))
	if err != nil {
		return valueobject.TokenPair{}, err
	}

	var out capturedTokens
	if err := NewTokenIssuer(s.repo, s.tokens, logger.NewNop()).Issue(ctx, *principal, &out); err != nil {
		return valueobject.TokenPair{}, err
	}
	return out.pair, nil
}
