package valueobject

// Credentials is the email/password pair extracted from a login request.
// Missing fields stay empty; the authenticator rejects them as unmatched.
type Credentials struct {
	email    string
	password string
}

func NewCredentials(email, password string) Credentials {
	return Credentials{
		email:    email,
		password: password,
	}
}

func (c Credentials) Email() string {
	return c.email
}

func (c Credentials) Password() string {
	return c.password
}

// Empty reports whether either field is missing.
func (c Credentials) Empty() bool {
	return c.email == "" || c.password == ""
}
