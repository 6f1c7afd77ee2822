package middleware

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/domain/apperror"
	"github.com/portinscan/portinscan/domain/valueobject"
	"github.com/portinscan/portinscan/infrastructure/http/response"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
	"github.com/portinscan/portinscan/infrastructure/service/metrics"
)

const (
	LoginPath = "/login"

	loginMediaType   = "application/json"
	emailField       = "email"
	passwordField    = "password"
	maxLoginBodySize = 1 << 20
)

type LoginResponse struct {
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// LoginFilter answers POST /login itself and passes every other request on.
type LoginFilter struct {
	authenticator  inbound.CredentialAuthenticator
	issuer         inbound.TokenIssuer
	headers        TokenHeaders
	accessTokenTTL time.Duration
	logger         logger.Logger
	metrics        metrics.Recorder
}

func NewLoginFilter(
	authenticator inbound.CredentialAuthenticator,
	issuer inbound.TokenIssuer,
	headers TokenHeaders,
	accessTokenTTL time.Duration,
	log logger.Logger,
	recorder metrics.Recorder,
) *LoginFilter {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &LoginFilter{
		authenticator:  authenticator,
		issuer:         issuer,
		headers:        headers,
		accessTokenTTL: accessTokenTTL,
		logger:         log,
		metrics:        recorder,
	}
}

func (f *LoginFilter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != LoginPath {
			next.ServeHTTP(w, r)
			return
		}
		f.login(w, r)
	})
}

func (f *LoginFilter) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := logger.CorrelationID(ctx)

	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != loginMediaType {
		f.metrics.LoginAttempt(metrics.OutcomeRejected)
		f.logger.Debug(ctx, "Login rejected: unsupported content type", map[string]interface{}{
			"content_type": contentType,
		})
		response.AppError(w, apperror.ErrUnsupportedContentType(contentType), traceID)
		return
	}

	var body map[string]string
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBodySize))
	if err := decoder.Decode(&body); err != nil {
		f.metrics.LoginAttempt(metrics.OutcomeRejected)
		response.AppError(w, apperror.ErrInvalidRequest("body must be a JSON object of strings", err), traceID)
		return
	}
	if err := decoder.Decode(&json.RawMessage{}); err != io.EOF {
		f.metrics.LoginAttempt(metrics.OutcomeRejected)
		response.AppError(w, apperror.ErrInvalidRequest("body must hold a single JSON object", err), traceID)
		return
	}

	// missing keys are empty credentials, which never match
	credentials := valueobject.NewCredentials(body[emailField], body[passwordField])

	principal, err := f.authenticator.Authenticate(ctx, credentials)
	if err != nil {
		f.fail(w, r, credentials.Email(), err)
		return
	}

	tokens := headerTokenWriter{w: w, headers: f.headers}
	if err := f.issuer.Issue(ctx, *principal, tokens); err != nil {
		tokens.clear()
		f.fail(w, r, credentials.Email(), err)
		return
	}

	f.metrics.LoginAttempt(metrics.OutcomeSuccess)
	logger.LogAuthEvent(ctx, f.logger, "login_successful", principal.Email, true, map[string]interface{}{
		"role": principal.Role.String(),
		"ip":   getClientIP(r, nil),
	})

	response.Success(w, http.StatusOK, "Login successful", LoginResponse{
		TokenType: "Bearer",
		ExpiresIn: int(f.accessTokenTTL.Seconds()),
	})
}

func (f *LoginFilter) fail(w http.ResponseWriter, r *http.Request, email string, err error) {
	ctx := r.Context()

	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		f.metrics.LoginAttempt(metrics.OutcomeError)
		f.logger.Error(ctx, "Login failed on the server side", err, map[string]interface{}{"email": email})
	} else {
		f.metrics.LoginAttempt(metrics.OutcomeFailure)
		logger.LogAuthEvent(ctx, f.logger, "login_failed", email, false, map[string]interface{}{
			"ip": getClientIP(r, nil),
		})
	}

	response.AppError(w, err, logger.CorrelationID(ctx))
}
