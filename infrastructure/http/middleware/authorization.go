package middleware

import (
	"net/http"
	"sort"
	"strings"

	"github.com/portinscan/portinscan/domain/apperror"
	"github.com/portinscan/portinscan/domain/valueobject"
	"github.com/portinscan/portinscan/infrastructure/http/response"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
)

// AccessRule requires Role for paths under Prefix. An empty Role permits everyone.
type AccessRule struct {
	Prefix string
	Role   valueobject.Role
}

func (r AccessRule) matches(path string) bool {
	return strings.HasPrefix(path, r.Prefix) || path == strings.TrimSuffix(r.Prefix, "/")
}

func DefaultAccessRules() []AccessRule {
	return []AccessRule{
		{Prefix: "/test/"},
		{Prefix: "/v1/", Role: valueobject.RoleUser},
		{Prefix: "/v3/", Role: valueobject.RoleAdmin},
	}
}

type AuthorizationGate struct {
	rules  []AccessRule
	logger logger.Logger
}

// NewAuthorizationGate orders rules by prefix length so the longest match is tried first.
func NewAuthorizationGate(rules []AccessRule, log logger.Logger) *AuthorizationGate {
	sorted := make([]AccessRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})

	return &AuthorizationGate{
		rules:  sorted,
		logger: log,
	}
}

// RequiredRole returns the role path needs, or "" when anyone may pass.
func (g *AuthorizationGate) RequiredRole(path string) valueobject.Role {
	for _, rule := range g.rules {
		if rule.matches(path) {
			return rule.Role
		}
	}
	return ""
}

func (g *AuthorizationGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		required := g.RequiredRole(r.URL.Path)
		if required == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		principal, ok := PrincipalFrom(ctx)
		if ok && principal.HasRole(required) {
			next.ServeHTTP(w, r)
			return
		}

		fields := map[string]interface{}{
			"path":          r.URL.Path,
			"required_role": required.String(),
			"authenticated": ok,
		}
		if ok {
			fields["email"] = principal.Email
			fields["role"] = principal.Role.String()
		}
		logger.LogSecurityEvent(ctx, g.logger, "access_denied", "MEDIUM", fields)

		response.AppError(w, apperror.ErrAccessDenied(r.URL.Path), logger.CorrelationID(ctx))
	})
}
