package middleware

import (
	"net/http"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/infrastructure/http/response"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
)

// AuthenticationFilter runs on every request except login. A valid, still stored
// refresh token ends the request with fresh tokens. Otherwise a valid access token
// installs the principal. The filter itself never rejects; the authorization gate does.
type AuthenticationFilter struct {
	authenticator inbound.RequestAuthenticator
	headers       TokenHeaders
	logger        logger.Logger
}

func NewAuthenticationFilter(authenticator inbound.RequestAuthenticator, headers TokenHeaders, log logger.Logger) *AuthenticationFilter {
	return &AuthenticationFilter{
		authenticator: authenticator,
		headers:       headers,
		logger:        log,
	}
}

func (f *AuthenticationFilter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == LoginPath {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()

		refreshToken := BearerToken(r.Header.Get(f.headers.Refresh))
		if refreshToken != "" {
			tokens := headerTokenWriter{w: w, headers: f.headers}
			refreshed, err := f.authenticator.Refresh(ctx, refreshToken, tokens)
			if err != nil {
				tokens.clear()
				response.AppError(w, err, logger.CorrelationID(ctx))
				return
			}
			if refreshed {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		accessToken := BearerToken(r.Header.Get(f.headers.Access))
		if accessToken != "" {
			principal, err := f.authenticator.Resolve(ctx, accessToken)
			if err != nil {
				response.AppError(w, err, logger.CorrelationID(ctx))
				return
			}
			if principal != nil {
				r = r.WithContext(WithPrincipal(ctx, *principal))
			}
		}

		next.ServeHTTP(w, r)
	})
}
