package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/portinscan/portinscan/domain/apperror"
	"github.com/portinscan/portinscan/domain/valueobject"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
)

func serveAuthn(authn *MockRequestAuthenticator, req *http.Request) (*httptest.ResponseRecorder, *recordingHandler) {
	next := &recordingHandler{}
	rec := httptest.NewRecorder()
	NewAuthenticationFilter(authn, testHeaders, logger.NewNop()).Handler(next).ServeHTTP(rec, req)
	return rec, next
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "", BearerToken("abc"))
	assert.Equal(t, "", BearerToken("bearer abc"))
	assert.Equal(t, "", BearerToken("Bearer "))
	assert.Equal(t, "", BearerToken(""))
}

func TestAuthenticationFilter_RefreshShortCircuits(t *testing.T) {
	authn := new(MockRequestAuthenticator)
	authn.On("Refresh", "RT1").Return(valueobject.NewTokenPair("AT2", "RT2"), true, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	req.Header.Set("Authorization-refresh", "Bearer RT1")
	req.Header.Set("Authorization", "Bearer AT1")

	rec, next := serveAuthn(authn, req)

	assert.False(t, next.called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "Bearer AT2", rec.Header().Get("Authorization"))
	assert.Equal(t, "Bearer RT2", rec.Header().Get("Authorization-refresh"))
	authn.AssertNotCalled(t, "Resolve", mock.Anything)
}

func TestAuthenticationFilter_StaleRefreshFallsThroughToAccess(t *testing.T) {
	authn := new(MockRequestAuthenticator)
	principal := valueobject.NewPrincipal("a@x.com", valueobject.RoleUser)
	authn.On("Refresh", "RT-old").Return(nil, false, nil)
	authn.On("Resolve", "AT1").Return(&principal, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	req.Header.Set("Authorization-refresh", "Bearer RT-old")
	req.Header.Set("Authorization", "Bearer AT1")

	rec, next := serveAuthn(authn, req)

	assert.True(t, next.called)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, next.principal)
	assert.Equal(t, "a@x.com", next.principal.Email)
}

func TestAuthenticationFilter_NoCredentials(t *testing.T) {
	authn := new(MockRequestAuthenticator)

	rec, next := serveAuthn(authn, httptest.NewRequest(http.MethodGet, "/v1/items", nil))

	assert.True(t, next.called)
	assert.Nil(t, next.principal)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	authn.AssertNotCalled(t, "Refresh", mock.Anything)
	authn.AssertNotCalled(t, "Resolve", mock.Anything)
}

func TestAuthenticationFilter_InvalidAccessTokenIsAnonymous(t *testing.T) {
	authn := new(MockRequestAuthenticator)
	authn.On("Resolve", "junk").Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	req.Header.Set("Authorization", "Bearer junk")

	_, next := serveAuthn(authn, req)

	assert.True(t, next.called)
	assert.Nil(t, next.principal)
}

func TestAuthenticationFilter_NonBearerHeaderIsIgnored(t *testing.T) {
	authn := new(MockRequestAuthenticator)

	req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	req.Header.Set("Authorization", "Basic YTpi")
	req.Header.Set("Authorization-refresh", "RT1")

	_, next := serveAuthn(authn, req)

	assert.True(t, next.called)
	authn.AssertNotCalled(t, "Refresh", mock.Anything)
	authn.AssertNotCalled(t, "Resolve", mock.Anything)
}

func TestAuthenticationFilter_SkipsLogin(t *testing.T) {
	authn := new(MockRequestAuthenticator)

	req := httptest.NewRequest(http.MethodPost, LoginPath, nil)
	req.Header.Set("Authorization-refresh", "Bearer RT1")

	_, next := serveAuthn(authn, req)

	assert.True(t, next.called)
	authn.AssertNotCalled(t, "Refresh", mock.Anything)
}

func TestAuthenticationFilter_StoreFailures(t *testing.T) {
	authn := new(MockRequestAuthenticator)
	authn.On("Refresh", "RT1").Return(nil, false, apperror.ErrDatabaseError("find_user_by_refresh_token", errors.New("down")))
	authn.On("Resolve", "AT1").Return(nil, apperror.ErrDatabaseError("find_user_by_email", errors.New("down")))

	refresh := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	refresh.Header.Set("Authorization-refresh", "Bearer RT1")
	rec, next := serveAuthn(authn, refresh)
	assert.False(t, next.called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	access := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	access.Header.Set("Authorization", "Bearer AT1")
	rec, next = serveAuthn(authn, access)
	assert.False(t, next.called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
