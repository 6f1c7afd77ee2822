package middleware

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/domain/valueobject"
)

var testHeaders = TokenHeaders{Access: "Authorization", Refresh: "Authorization-refresh"}

type MockCredentialAuthenticator struct {
	mock.Mock
}

func (m *MockCredentialAuthenticator) Authenticate(ctx context.Context, credentials valueobject.Credentials) (*valueobject.Principal, error) {
	args := m.Called(credentials.Email(), credentials.Password())
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*valueobject.Principal), args.Error(1)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(ctx context.Context, principal valueobject.Principal, w inbound.TokenWriter) error {
	args := m.Called(principal)
	if pair, ok := args.Get(0).(valueobject.TokenPair); ok {
		w.WriteTokens(pair)
	}
	return args.Error(1)
}

type MockRequestAuthenticator struct {
	mock.Mock
}

func (m *MockRequestAuthenticator) Refresh(ctx context.Context, refreshToken string, w inbound.TokenWriter) (bool, error) {
	args := m.Called(refreshToken)
	if pair, ok := args.Get(0).(valueobject.TokenPair); ok {
		w.WriteTokens(pair)
	}
	return args.Bool(1), args.Error(2)
}

func (m *MockRequestAuthenticator) Resolve(ctx context.Context, accessToken string) (*valueobject.Principal, error) {
	args := m.Called(accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*valueobject.Principal), args.Error(1)
}

// recordingHandler notes whether it ran and which principal it saw.
type recordingHandler struct {
	called    bool
	principal *valueobject.Principal
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.principal, _ = PrincipalFrom(r.Context())
	w.WriteHeader(http.StatusTeapot)
}
