package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/application/usecase"
	"github.com/portinscan/portinscan/domain/valueobject"
	"github.com/portinscan/portinscan/infrastructure/adapter/memory"
	"github.com/portinscan/portinscan/infrastructure/config"
	"github.com/portinscan/portinscan/infrastructure/http/middleware"
	"github.com/portinscan/portinscan/infrastructure/service/jwt"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
	"github.com/portinscan/portinscan/infrastructure/service/metrics"
	"github.com/portinscan/portinscan/infrastructure/service/password"
	"github.com/portinscan/portinscan/infrastructure/service/ratelimit"
)

type testServer struct {
	handler http.Handler
	repo    *memory.UserRepository
	tokens  *jwt.JWTService
}

func newTestServer(t *testing.T, configure func(*config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:              "router-test-secret",
		JWTIssuer:              "router-test",
		AccessTokenTTL:         time.Hour,
		RefreshTokenTTL:        24 * time.Hour,
		AccessTokenHeader:      "Authorization",
		RefreshTokenHeader:     "Authorization-refresh",
		RefreshTokenRotation:   false,
		RateLimitEnabled:       false,
		RateLimitLoginAttempts: 100,
		RateLimitLoginWindow:   time.Minute,
		RateLimitBlockDuration: time.Minute,
	}
	if configure != nil {
		configure(cfg)
	}

	log := logger.NewNop()
	repo := memory.NewUserRepository()
	tokens, err := jwt.NewJWTService(cfg)
	require.NoError(t, err)
	passwords := password.NewBcryptPasswordService(bcrypt.MinCost)
	recorder, err := metrics.NewPrometheusRecorder()
	require.NoError(t, err)

	limiter := ratelimit.NewNoopRateLimitService()
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewMemoryRateLimitService(cfg.RateLimitLoginWindow, log)
	}

	provisioner := usecase.NewUserProvisioner(repo, passwords, log)
	for _, u := range []inbound.CreateUserRequest{
		{Email: "a@x.com", Password: "pw1", Role: valueobject.RoleUser},
		{Email: "admin@x.com", Password: "root", Role: valueobject.RoleAdmin},
	} {
		_, err := provisioner.Create(context.Background(), u)
		require.NoError(t, err)
	}

	h := New(Dependencies{
		Config:                  cfg,
		Logger:                  log,
		CredentialAuthenticator: usecase.NewCredentialAuthenticator(repo, passwords, log),
		TokenIssuer:             usecase.NewTokenIssuer(repo, tokens, log),
		RequestAuthenticator:    usecase.NewRequestAuthenticator(repo, tokens, log, recorder, cfg.RefreshTokenRotation),
		LogoutUseCase:           usecase.NewLogoutUseCase(repo, log, cfg.LogoutRevokesRefresh),
		RateLimitService:        limiter,
		Metrics:                 recorder,
		MetricsHandler:          recorder.Handler(),
	})

	return &testServer{handler: h, repo: repo, tokens: tokens}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, pw string) (string, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`","password":"`+pw+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	access := middleware.BearerToken(rec.Header().Get("Authorization"))
	refresh := middleware.BearerToken(rec.Header().Get("Authorization-refresh"))
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}

func (s *testServer) get(path, accessToken, refreshToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if refreshToken != "" {
		req.Header.Set("Authorization-refresh", "Bearer "+refreshToken)
	}
	return s.do(req)
}

func (s *testServer) storedRefreshToken(t *testing.T, email string) string {
	t.Helper()
	user, err := s.repo.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return user.RefreshToken
}

func TestScenario_LoginRefreshAndSupersede(t *testing.T) {
	s := newTestServer(t, nil)

	at1, rt1 := s.login(t, "a@x.com", "pw1")
	assert.Equal(t, rt1, s.storedRefreshToken(t, "a@x.com"))

	// refresh short-circuits: new access token, no business body
	rec := s.get("/v1/me", "", rt1)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	at2 := middleware.BearerToken(rec.Header().Get("Authorization"))
	require.NotEmpty(t, at2)
	subject, ok := s.tokens.ExtractSubject(at2)
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", subject)

	// the access token authenticates business calls
	rec = s.get("/v1/me", at1, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"a@x.com"`)

	// a second login supersedes RT1
	_, rt2 := s.login(t, "a@x.com", "pw1")
	assert.NotEqual(t, rt1, rt2)
	assert.Equal(t, rt2, s.storedRefreshToken(t, "a@x.com"))

	rec = s.get("/v1/me", "", rt1)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Authorization"))

	// a stale refresh token falls through to the access token
	rec = s.get("/v1/me", at1, rt1)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"a@x.com"`)
}

func TestScenario_RefreshShortCircuitsEvenOnOpenPaths(t *testing.T) {
	s := newTestServer(t, nil)
	_, rt := s.login(t, "a@x.com", "pw1")

	rec := s.get("/test/ping", "", rt)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Authorization"))
}

func TestScenario_RotationReplacesRefreshToken(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.RefreshTokenRotation = true })
	_, rt1 := s.login(t, "a@x.com", "pw1")

	rec := s.get("/v1/me", "", rt1)
	require.Equal(t, http.StatusOK, rec.Code)
	rt2 := middleware.BearerToken(rec.Header().Get("Authorization-refresh"))
	require.NotEmpty(t, rt2)
	assert.NotEqual(t, rt1, rt2)
	assert.Equal(t, rt2, s.storedRefreshToken(t, "a@x.com"))

	rec = s.get("/v1/me", "", rt1)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestScenario_WrongPasswordKeepsStoredToken(t *testing.T) {
	s := newTestServer(t, nil)
	_, rt := s.login(t, "a@x.com", "pw1")

	for _, body := range []string{
		`{"email":"a@x.com","password":"wrong"}`,
		`{"email":"a@x.com"}`,
		`{"email":"ghost@x.com","password":"pw1"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := s.do(req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
		assert.Contains(t, rec.Body.String(), "AUTH_1001")
		assert.Empty(t, rec.Header().Get("Authorization"))
	}

	assert.Equal(t, rt, s.storedRefreshToken(t, "a@x.com"))
}

func TestScenario_LoginRejectsNonJSON(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=a@x.com&password=pw1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := s.do(req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, s.storedRefreshToken(t, "a@x.com"))
}

func TestScenario_AdminPathDeniesUserRole(t *testing.T) {
	s := newTestServer(t, nil)
	userAT, _ := s.login(t, "a@x.com", "pw1")
	adminAT, _ := s.login(t, "admin@x.com", "root")

	assert.Equal(t, http.StatusForbidden, s.get("/v3/admin/ping", userAT, "").Code)
	assert.Equal(t, http.StatusOK, s.get("/v3/admin/ping", adminAT, "").Code)
	assert.Equal(t, http.StatusOK, s.get("/v1/me", adminAT, "").Code)
}

func TestScenario_InvalidTokensDegradeToDenial(t *testing.T) {
	s := newTestServer(t, nil)
	at, rt := s.login(t, "a@x.com", "pw1")

	for name, token := range map[string]string{
		"garbage":  "garbage",
		"tampered": at[:len(at)-2] + "xx",
		"refresh":  rt,
	} {
		rec := s.get("/v1/me", token, "")
		assert.Equal(t, http.StatusForbidden, rec.Code, name)
		assert.Contains(t, rec.Body.String(), "SEC_7003", name)
	}

	// open paths do not care
	assert.Equal(t, http.StatusOK, s.get("/test/ping", "garbage", "").Code)
	assert.Equal(t, http.StatusOK, s.get("/health", "", "").Code)
}

func TestScenario_Logout(t *testing.T) {
	t.Run("keeps refresh token by default", func(t *testing.T) {
		s := newTestServer(t, nil)
		at, rt := s.login(t, "a@x.com", "pw1")

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Authorization", "Bearer "+at)
		assert.Equal(t, http.StatusOK, s.do(req).Code)

		assert.Equal(t, rt, s.storedRefreshToken(t, "a@x.com"))
		assert.Equal(t, http.StatusOK, s.get("/v1/me", "", rt).Code)
	})

	t.Run("revokes when configured", func(t *testing.T) {
		s := newTestServer(t, func(c *config.Config) { c.LogoutRevokesRefresh = true })
		at, rt := s.login(t, "a@x.com", "pw1")

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Authorization", "Bearer "+at)
		assert.Equal(t, http.StatusOK, s.do(req).Code)

		assert.Empty(t, s.storedRefreshToken(t, "a@x.com"))
		assert.Equal(t, http.StatusForbidden, s.get("/v1/me", "", rt).Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		s := newTestServer(t, nil)
		assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodPost, "/logout", nil)).Code)
	})
}

func TestScenario_LoginRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.RateLimitEnabled = true
		c.RateLimitLoginAttempts = 3
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@x.com","password":"bad"}`))
		req.Header.Set("Content-Type", "application/json")
		assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@x.com","password":"pw1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := s.do(req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Empty(t, s.storedRefreshToken(t, "a@x.com"))
}

func TestScenario_OperationalEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	s.login(t, "a@x.com", "pw1")

	rec := s.get("/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `auth_login_attempts_total{outcome="success"} 1`)

	rec = s.get("/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.CorrelationIDHeader))

	assert.Equal(t, http.StatusNotFound, s.get("/nowhere", "", "").Code)
}
