package verifier

import (
	_ "embed"
	"strings"
)

//go:embed disposable_domains.txt
var disposableDomainList string

// DefaultDisposableDomains returns the built-in block-list.
func DefaultDisposableDomains() []string {
	return ParseDomainList(disposableDomainList)
}

// ParseDomainList reads one domain per line. Blank lines and "#" comments are
// skipped and every entry is lower-cased.
func ParseDomainList(text string) []string {
	var domains []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, strings.ToLower(line))
	}
	return domains
}

// DisposableFilter tests addresses against a fixed set of throwaway-mailbox domains.
type DisposableFilter struct {
	enabled bool
	domains map[string]struct{}
}

func NewDisposableFilter(domains []string, enabled bool) *DisposableFilter {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return &DisposableFilter{enabled: enabled, domains: set}
}

// IsDisposable always reports false while the filter is disabled.
func (f *DisposableFilter) IsDisposable(email string) bool {
	if !f.enabled {
		return false
	}
	_, ok := f.domains[strings.ToLower(ExtractDomain(email))]
	return ok
}

func (f *DisposableFilter) Enabled() bool { return f.enabled }

func (f *DisposableFilter) Len() int { return len(f.domains) }
