package validator

import (
	"net/mail"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ValidateEmail accepts a bare address such as user@example.com. Display-name
// forms that net/mail would parse are rejected by the regex.
func ValidateEmail(email string) bool {
	if email == "" {
		return false
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return false
	}

	return emailRegex.MatchString(strings.ToLower(email))
}

func ValidateRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}
