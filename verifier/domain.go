package verifier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"
)

// Resolver is the part of *net.Resolver the domain checker uses.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

var domainCharsRegex = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)

// DomainResult is the outcome of a domain-level check.
type DomainResult struct {
	Valid  bool
	Reason string
	Score  int
}

// DomainChecker verifies that a domain can receive mail (MX or A record) and
// scores well-known providers higher.
type DomainChecker struct {
	resolver  Resolver
	timeout   time.Duration
	allowList map[string]struct{}
	popular   map[string]struct{}
	cache     Cache
	cacheTTL  time.Duration
}

func NewDomainChecker(resolver Resolver, timeout time.Duration, allowList, popular []string, cache Cache, cacheTTL time.Duration) *DomainChecker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &DomainChecker{
		resolver:  resolver,
		timeout:   timeout,
		allowList: toSet(allowList),
		popular:   toSet(popular),
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

// Check returns a rejection reason for unusable domains. A non-nil error
// means the domain could not be checked.
func (d *DomainChecker) Check(ctx context.Context, domain string) (DomainResult, error) {
	if !domainCharsRegex.MatchString(domain) {
		return DomainResult{Reason: ReasonInvalidDomainChars}, nil
	}

	found, err := d.hasMailRecord(ctx, domain)
	if err != nil {
		return DomainResult{}, err
	}
	if !found {
		return DomainResult{Reason: ReasonNoMXRecord}, nil
	}

	result := DomainResult{Valid: true}
	if _, ok := d.popular[strings.ToLower(domain)]; ok {
		result.Score = PopularDomainBonus
	}
	return result, nil
}

func (d *DomainChecker) hasMailRecord(ctx context.Context, domain string) (bool, error) {
	key := strings.ToLower(domain)
	if _, ok := d.allowList[key]; ok {
		return true, nil
	}

	if d.cache != nil {
		if found, ok := d.cache.Get(key); ok {
			return found, nil
		}
	}

	found, definitive, err := d.lookup(ctx, key)
	if err != nil {
		return false, err
	}
	if definitive && d.cache != nil && d.cacheTTL > 0 {
		d.cache.Set(key, found, d.cacheTTL)
	}
	return found, nil
}

// lookup tries MX first and falls back to A. definitive is false when the
// answer came from a timeout rather than the DNS server.
func (d *DomainChecker) lookup(ctx context.Context, domain string) (found, definitive bool, err error) {
	mxCtx, cancel := context.WithTimeout(ctx, d.timeout)
	mxs, mxErr := d.resolver.LookupMX(mxCtx, domain)
	cancel()
	if mxErr == nil && len(mxs) > 0 {
		return true, true, nil
	}
	mxDefinitive, err := classifyLookupError(ctx, mxErr)
	if err != nil {
		return false, false, err
	}

	aCtx, cancel := context.WithTimeout(ctx, d.timeout)
	ips, aErr := d.resolver.LookupIP(aCtx, "ip4", domain)
	cancel()
	if aErr == nil && len(ips) > 0 {
		return true, true, nil
	}
	aDefinitive, err := classifyLookupError(ctx, aErr)
	if err != nil {
		return false, false, err
	}

	return false, mxDefinitive && aDefinitive, nil
}

func classifyLookupError(ctx context.Context, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, fmt.Errorf("%w: %v", ErrResolverUnavailable, ctxErr)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound, nil
	}
	// The per-lookup deadline expired; a slow domain counts as having no record.
	if errors.Is(err, context.DeadlineExceeded) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrResolverUnavailable, err)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
