package handler

import (
	"net/http"

	"github.com/portinscan/portinscan/infrastructure/http/response"
)

func Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "healthy", map[string]string{"status": "healthy"})
}

// Ping answers with the path it was reached on. It stands in for business
// endpoints behind the authorization rules.
func Ping(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "pong", map[string]string{"path": r.URL.Path})
}
