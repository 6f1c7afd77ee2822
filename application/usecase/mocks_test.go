package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/portinscan/portinscan/domain/entity"
	"github.com/portinscan/portinscan/domain/valueobject"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByRefreshToken(ctx context.Context, refreshToken string) (*entity.User, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SaveRefreshToken(ctx context.Context, email, refreshToken string) error {
	args := m.Called(ctx, email, refreshToken)
	return args.Error(0)
}

func (m *MockUserRepository) SwapRefreshToken(ctx context.Context, email, previous, next string) (bool, error) {
	args := m.Called(ctx, email, previous, next)
	return args.Bool(0), args.Error(1)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) IssueAccessToken(subject string, role valueobject.Role) (string, error) {
	args := m.Called(subject, role)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) IssueRefreshToken() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) IsTokenValid(token string) bool {
	args := m.Called(token)
	return args.Bool(0)
}

func (m *MockTokenService) ExtractSubject(token string) (string, bool) {
	args := m.Called(token)
	return args.String(0), args.Bool(1)
}

type MockPasswordService struct {
	mock.Mock
}

func (m *MockPasswordService) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordService) VerifyPassword(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

const dummyPasswordHash = "dummy-hash"

// newAuthenticatorPasswords expects the dummy hash built by NewCredentialAuthenticator.
func newAuthenticatorPasswords() *MockPasswordService {
	passwords := new(MockPasswordService)
	passwords.On("HashPassword", mock.Anything).Return(dummyPasswordHash, nil).Once()
	return passwords
}

// capturedTokens records what a use case wrote to the client.
type capturedTokens struct {
	calls int
	pair  valueobject.TokenPair
}

func (c *capturedTokens) WriteTokens(pair valueobject.TokenPair) {
	c.calls++
	c.pair = pair
}
