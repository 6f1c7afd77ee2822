package valueobject

// Principal is the identity attached to a single request once it is authenticated.
// It is never persisted.
type Principal struct {
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	Authorities []string `json:"authorities"`
}

func NewPrincipal(email string, role Role) Principal {
	return Principal{
		Email:       email,
		Role:        role,
		Authorities: role.Authorities(),
	}
}

// HasRole reports whether the principal satisfies the required role.
func (p Principal) HasRole(required Role) bool {
	return p.Role.Satisfies(required)
}
