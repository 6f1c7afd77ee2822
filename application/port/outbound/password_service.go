package outbound

type PasswordService interface {
	HashPassword(password string) (string, error)
	// VerifyPassword reports a mismatch as (false, nil).
	VerifyPassword(password, hash string) (bool, error)
}
