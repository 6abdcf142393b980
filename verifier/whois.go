package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/likexian/whois"
)

// Inspector fetches registration details for a domain an admin is
// reviewing.
type Inspector interface {
	Whois(ctx context.Context, domain string) (string, error)
}

// WhoisInspector queries public WHOIS servers.
type WhoisInspector struct {
	client *whois.Client
}

func NewWhoisInspector() *WhoisInspector {
	return &WhoisInspector{client: whois.NewClient()}
}

func (w *WhoisInspector) Whois(ctx context.Context, domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if !domainCharsRegex.MatchString(domain) || !strings.Contains(domain, ".") {
		return "", fmt.Errorf("whois %q: %s", domain, ReasonInvalidDomainChars)
	}

	type answer struct {
		text string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		text, err := w.client.Whois(domain)
		done <- answer{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-done:
		if a.err != nil {
			return "", fmt.Errorf("whois %s: %w", domain, a.err)
		}
		return a.text, nil
	}
}
