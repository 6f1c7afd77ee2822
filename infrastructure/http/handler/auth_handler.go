package handler

import (
	"net/http"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/infrastructure/http/middleware"
	"github.com/portinscan/portinscan/infrastructure/http/response"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
)

type AuthHandler struct {
	logoutUseCase inbound.LogoutUseCase
}

func NewAuthHandler(logoutUseCase inbound.LogoutUseCase) *AuthHandler {
	return &AuthHandler{
		logoutUseCase: logoutUseCase,
	}
}

// Logout always succeeds for callers without a principal.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	if err := h.logoutUseCase.Logout(r.Context(), principal); err != nil {
		response.AppError(w, err, logger.CorrelationID(r.Context()))
		return
	}

	response.Success(w, http.StatusOK, "Logged out", nil)
}

// Me returns the principal attached to the request.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	response.Success(w, http.StatusOK, "success", principal)
}
