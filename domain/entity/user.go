package entity

import (
	"time"

	"github.com/portinscan/portinscan/domain/valueobject"
)

// User is the stored account record. Email is the authentication subject.
// RefreshToken holds at most one live refresh token; empty means none.
type User struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	Username     string           `json:"username"`
	PasswordHash string           `json:"-"`
	Role         valueobject.Role `json:"role"`
	RefreshToken string           `json:"-"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func NewUser(id, email, username, passwordHash string, role valueobject.Role) *User {
	now := time.Now()
	return &User{
		ID:           id,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasRefreshToken reports whether a refresh token is currently recorded.
func (u *User) HasRefreshToken() bool {
	return u.RefreshToken != ""
}

// Principal builds the request-scoped identity for this user.
func (u *User) Principal() valueobject.Principal {
	return valueobject.NewPrincipal(u.Email, u.Role)
}
