package verifier

import "strings"

type typoFix struct {
	typo    string
	correct string
}

// commonTypos is walked in order and the first match wins.
var commonTypos = []typoFix{
	{"gmail.co", "gmail.com"},
	{"gmail.cm", "gmail.com"},
	{"gmai.com", "gmail.com"},
	{"gmial.com", "gmail.com"},
	{"yahoo.co", "yahoo.com"},
	{"yahoo.cm", "yahoo.com"},
	{"hotmail.co", "hotmail.com"},
	{"hotmail.cm", "hotmail.com"},
	{"outlook.co", "outlook.com"},
	{"outlook.cm", "outlook.com"},
}

// CorrectTypo replaces a known misspelled domain with its canonical form.
// Only an exact "@domain" suffix matches, so notgmail.co.uk or sub.gmail.co
// are left alone.
func CorrectTypo(email string) (string, bool) {
	for _, fix := range commonTypos {
		suffix := "@" + fix.typo
		if strings.HasSuffix(email, suffix) {
			return strings.TrimSuffix(email, suffix) + "@" + fix.correct, true
		}
	}
	return email, false
}
