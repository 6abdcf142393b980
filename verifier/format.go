package verifier

import (
	"strings"
	"unicode"

	"github.com/badoux/checkmail"
)

const (
	maxEmailLength  = 254
	maxLocalLength  = 64
	maxDomainLength = 253
)

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Every entry point applies it before Validate.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckFormat reports whether email has the structural shape of an address:
// RFC length limits, exactly one "@", a dotted domain and no whitespace.
func CheckFormat(email string) bool {
	if len(email) > maxEmailLength {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}
	if strings.IndexFunc(email, unicode.IsSpace) >= 0 {
		return false
	}

	local, domain, _ := strings.Cut(email, "@")
	if local == "" || len(local) > maxLocalLength {
		return false
	}
	if domain == "" || len(domain) > maxDomainLength {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return false
		}
	}

	return checkmail.ValidateFormat(email) == nil
}

// ExtractDomain returns everything after the last "@", or "" when there is none.
func ExtractDomain(email string) string {
	idx := strings.LastIndex(email, "@")
	if idx < 0 {
		return ""
	}
	return email[idx+1:]
}
