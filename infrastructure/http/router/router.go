package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/infrastructure/config"
	"github.com/portinscan/portinscan/infrastructure/http/handler"
	"github.com/portinscan/portinscan/infrastructure/http/middleware"
	"github.com/portinscan/portinscan/infrastructure/http/response"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
	"github.com/portinscan/portinscan/infrastructure/service/metrics"
	"github.com/portinscan/portinscan/infrastructure/service/ratelimit"
)

type Dependencies struct {
	Config *config.Config
	Logger logger.Logger

	CredentialAuthenticator inbound.CredentialAuthenticator
	TokenIssuer             inbound.TokenIssuer
	RequestAuthenticator    inbound.RequestAuthenticator
	LogoutUseCase           inbound.LogoutUseCase

	RateLimitService ratelimit.RateLimitService
	Metrics          metrics.Recorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	// AccessRules defaults to middleware.DefaultAccessRules.
	AccessRules []middleware.AccessRule
}

// New builds the HTTP handler. Requests pass, outermost first, through correlation
// id, CORS, metrics, login rate limiting, request authentication, the login filter
// and the authorization gate before reaching the routes.
func New(deps Dependencies) http.Handler {
	cfg := deps.Config
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	rules := deps.AccessRules
	if rules == nil {
		rules = middleware.DefaultAccessRules()
	}
	headers := middleware.TokenHeaders{
		Access:  cfg.AccessTokenHeader,
		Refresh: cfg.RefreshTokenHeader,
	}

	authHandler := handler.NewAuthHandler(deps.LogoutUseCase)

	r := mux.NewRouter()
	r.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler).Methods(http.MethodGet)
	}
	r.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	r.HandleFunc("/v1/me", authHandler.Me).Methods(http.MethodGet)
	r.HandleFunc("/v3/admin/ping", handler.Ping).Methods(http.MethodGet)
	r.HandleFunc("/test/ping", handler.Ping).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	gate := middleware.NewAuthorizationGate(rules, deps.Logger)
	login := middleware.NewLoginFilter(deps.CredentialAuthenticator, deps.TokenIssuer, headers, cfg.AccessTokenTTL, deps.Logger, recorder)
	authn := middleware.NewAuthenticationFilter(deps.RequestAuthenticator, headers, deps.Logger)

	var h http.Handler = r
	h = gate.Handler(h)
	h = login.Handler(h)
	h = authn.Handler(h)
	if deps.RateLimitService != nil {
		policy := middleware.RateLimitPolicy{
			Attempts:       cfg.RateLimitLoginAttempts,
			Window:         cfg.RateLimitLoginWindow,
			BlockDuration:  cfg.RateLimitBlockDuration,
			TrustedProxies: cfg.TrustedProxies,
		}
		h = middleware.NewRateLimitMiddleware(deps.RateLimitService, policy, deps.Logger).RateLimit(h)
	}
	h = middleware.MetricsMiddleware(recorder)(h)
	if cfg.CORSEnabled && len(cfg.CORSAllowedOrigins) > 0 {
		h = middleware.CORSMiddleware(h, cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials, headers)
	}
	return middleware.CorrelationIDMiddleware(h)
}
