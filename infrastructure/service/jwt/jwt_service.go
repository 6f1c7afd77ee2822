package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/portinscan/portinscan/application/port/outbound"
	"github.com/portinscan/portinscan/domain/valueobject"
	"github.com/portinscan/portinscan/infrastructure/config"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrMissingSecret  = errors.New("jwt secret cannot be empty")
	ErrMissingSubject = errors.New("access token subject cannot be empty")
)

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// JWTService signs access and refresh tokens with HS256. Access tokens carry the
// subject and role; refresh tokens carry only a random id and their expiry.
type JWTService struct {
	secret          []byte
	issuer          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
	parser          *jwt.Parser
}

var _ outbound.TokenService = (*JWTService)(nil)

func NewJWTService(cfg *config.Config) (*JWTService, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive: access=%s refresh=%s", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}

	s := &JWTService{
		secret:          []byte(cfg.JWTSecret),
		issuer:          cfg.JWTIssuer,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		now:             time.Now,
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	s.parser = jwt.NewParser(opts...)

	return s, nil
}

func (s *JWTService) IssueAccessToken(subject string, role valueobject.Role) (string, error) {
	if subject == "" {
		return "", ErrMissingSubject
	}

	now := s.now()
	claims := tokenClaims{
		Role: role.String(),
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}
	return s.sign(claims, "access")
}

func (s *JWTService) IssueRefreshToken() (string, error) {
	now := s.now()
	claims := tokenClaims{
		Type: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTokenTTL)),
		},
	}
	return s.sign(claims, "refresh")
}

func (s *JWTService) IsTokenValid(token string) bool {
	_, ok := s.parse(token)
	return ok
}

func (s *JWTService) ExtractSubject(token string) (string, bool) {
	claims, ok := s.parse(token)
	if !ok || claims.Type != tokenTypeAccess || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func (s *JWTService) sign(claims tokenClaims, kind string) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// parse never returns an error: anything that fails verification is simply not valid.
func (s *JWTService) parse(token string) (*tokenClaims, bool) {
	if token == "" {
		return nil, false
	}

	claims := &tokenClaims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, false
	}
	return claims, true
}
