package valueobject

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// roleHierarchy lists, for each role, every requirement it satisfies.
// ADMIN > USER.
var roleHierarchy = map[Role][]Role{
	RoleAdmin: {RoleAdmin, RoleUser},
	RoleUser:  {RoleUser},
}

// ParseRole accepts "user", "USER" or "ROLE_USER".
func ParseRole(value string) (Role, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(value)), "ROLE_")
	role := Role(name)
	if _, ok := roleHierarchy[role]; !ok {
		return "", fmt.Errorf("unknown role: %q", value)
	}
	return role, nil
}

func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is part of the hierarchy.
func (r Role) Valid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// Satisfies reports whether a holder of r meets the required role.
func (r Role) Satisfies(required Role) bool {
	for _, granted := range roleHierarchy[r] {
		if granted == required {
			return true
		}
	}
	return false
}

// Authorities returns ROLE_<name> for every role r satisfies.
func (r Role) Authorities() []string {
	granted := roleHierarchy[r]
	authorities := make([]string, 0, len(granted))
	for _, g := range granted {
		authorities = append(authorities, "ROLE_"+string(g))
	}
	return authorities
}
