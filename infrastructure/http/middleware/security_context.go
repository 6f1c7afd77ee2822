package middleware

import (
	"context"

	"github.com/portinscan/portinscan/domain/valueobject"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying the authenticated principal.
// The value lives only as long as the request context.
func WithPrincipal(ctx context.Context, principal valueobject.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFrom returns the principal installed for this request, if any.
func PrincipalFrom(ctx context.Context) (*valueobject.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(valueobject.Principal)
	if !ok {
		return nil, false
	}
	return &principal, true
}
