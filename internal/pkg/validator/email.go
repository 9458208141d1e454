package validator

import (
	"errors"
	"strings"
)

// ValidateEmail checks shape only: one @, a non-empty local part and a
// dotted domain. Deliverability is not checked here; an MX lookup would put
// a DNS round trip on the registration path.
func ValidateEmail(email string) error {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return errors.New("invalid email format")
	}

	domain := strings.ToLower(parts[1])
	if domain == "" || strings.ContainsAny(domain, " \t") {
		return errors.New("invalid email format")
	}
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return errors.New("invalid email domain")
	}

	return nil
}
