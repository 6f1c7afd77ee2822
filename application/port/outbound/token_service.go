package outbound

import "github.com/portinscan/portinscan/domain/valueobject"

// TokenService mints and verifies tokens. It performs no I/O. Malformed, expired or
// tampered input is reported as invalid or absent, never as an error.
type TokenService interface {
	IssueAccessToken(subject string, role valueobject.Role) (string, error)
	IssueRefreshToken() (string, error)
	IsTokenValid(token string) bool
	// ExtractSubject returns the subject of a valid access token.
	ExtractSubject(token string) (string, bool)
}
