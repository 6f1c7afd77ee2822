package inbound

import (
	"context"

	"github.com/portinscan/portinscan/domain/valueobject"
)

// TokenWriter publishes tokens to the client, one channel per token type.
type TokenWriter interface {
	WriteTokens(pair valueobject.TokenPair)
}

// TokenWriterFunc adapts a function to TokenWriter.
type TokenWriterFunc func(pair valueobject.TokenPair)

func (f TokenWriterFunc) WriteTokens(pair valueobject.TokenPair) {
	f(pair)
}

type CredentialAuthenticator interface {
	Authenticate(ctx context.Context, credentials valueobject.Credentials) (*valueobject.Principal, error)
}

type TokenIssuer interface {
	// Issue mints an access and a refresh token for principal, writes both and then
	// records the refresh token on the user, replacing any earlier one.
	Issue(ctx context.Context, principal valueobject.Principal, w TokenWriter) error
}

type RequestAuthenticator interface {
	// Refresh reissues an access token for the owner of refreshToken. It returns
	// true when tokens were written and the request must not go any further; false
	// means the token was invalid or superseded and processing continues.
	Refresh(ctx context.Context, refreshToken string, w TokenWriter) (bool, error)
	// Resolve returns the principal for a valid access token whose subject still
	// exists, or nil. Errors are reserved for store failures.
	Resolve(ctx context.Context, accessToken string) (*valueobject.Principal, error)
}

type LogoutUseCase interface {
	// Logout ends the session for principal, which may be nil.
	Logout(ctx context.Context, principal *valueobject.Principal) error
}

type CreateUserRequest struct {
	Email    string
	Username string
	Password string
	Role     valueobject.Role
}

type UserProvisioner interface {
	Create(ctx context.Context, req CreateUserRequest) (string, error)
}
