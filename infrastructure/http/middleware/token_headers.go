package middleware

import (
	"net/http"
	"strings"

	"github.com/portinscan/portinscan/domain/valueobject"
)

const bearerPrefix = "Bearer "

// TokenHeaders names the header used for each token type.
type TokenHeaders struct {
	Access  string
	Refresh string
}

// BearerToken strips the Bearer prefix. Anything else counts as no token.
func BearerToken(value string) string {
	if !strings.HasPrefix(value, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(value[len(bearerPrefix):])
}

// headerTokenWriter puts tokens on the response, one header per token type.
type headerTokenWriter struct {
	w       http.ResponseWriter
	headers TokenHeaders
}

func (h headerTokenWriter) WriteTokens(pair valueobject.TokenPair) {
	if pair.AccessToken != "" {
		h.w.Header().Set(h.headers.Access, bearerPrefix+pair.AccessToken)
	}
	if pair.RefreshToken != "" {
		h.w.Header().Set(h.headers.Refresh, bearerPrefix+pair.RefreshToken)
	}
}

func (h headerTokenWriter) clear() {
	h.w.Header().Del(h.headers.Access)
	h.w.Header().Del(h.headers.Refresh)
}
