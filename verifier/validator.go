// Package verifier scores newsletter signups: format checks, typo correction,
// disposable-domain filtering and MX/A record lookups.
//
// A Validator never fails for an address that is merely bad; rejections come
// back as a Verdict with a Reason. The error return is reserved for
// infrastructure faults such as an unreachable resolver.
package verifier

import (
	"context"
	"fmt"
	"time"
)

const (
	BaseScore           = 50
	TypoCorrectionBonus = 10
	PopularDomainBonus  = 20
	MaxScore            = 100

	DefaultLookupTimeout = 3 * time.Second
	DefaultCacheTTL      = 10 * time.Minute
)

var (
	DefaultPopularDomains = []string{
		"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
		"icloud.com", "aol.com", "protonmail.com",
	}

	// DefaultDNSAllowList skips DNS for local and test domains.
	DefaultDNSAllowList = []string{"localhost", "example.com", "test.com"}
)

// Verdict is the result of validating one address. Email holds the corrected
// address, which is what callers should persist.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
	Score  int    `json:"score"`
}

// Config is injected into New; the Validator reads nothing else.
type Config struct {
	DisposableDomains      []string
	DisposableCheckEnabled bool
	PopularDomains         []string
	DNSAllowList           []string
	LookupTimeout          time.Duration
	Resolver               Resolver
	Cache                  Cache
	CacheTTL               time.Duration
}

// DefaultConfig uses the built-in lists, the system resolver and a process-local cache.
func DefaultConfig() Config {
	return Config{
		DisposableDomains:      DefaultDisposableDomains(),
		DisposableCheckEnabled: true,
		PopularDomains:         DefaultPopularDomains,
		DNSAllowList:           DefaultDNSAllowList,
		LookupTimeout:          DefaultLookupTimeout,
		Cache:                  NewMemoryCache(),
		CacheTTL:               DefaultCacheTTL,
	}
}

type Validator struct {
	disposable *DisposableFilter
	domains    *DomainChecker
}

func New(cfg Config) *Validator {
	return &Validator{
		disposable: NewDisposableFilter(cfg.DisposableDomains, cfg.DisposableCheckEnabled),
		domains: NewDomainChecker(
			cfg.Resolver,
			cfg.LookupTimeout,
			cfg.DNSAllowList,
			cfg.PopularDomains,
			cfg.Cache,
			cfg.CacheTTL,
		),
	}
}

// Validate runs format, typo correction, disposable and domain checks in that
// order and stops at the first failure. Disposable and domain checks see the
// corrected address.
func (v *Validator) Validate(ctx context.Context, email string) (Verdict, error) {
	verdict := Verdict{Email: email}

	if !CheckFormat(email) {
		verdict.Reason = ReasonInvalidFormat
		return verdict, nil
	}

	bonus := 0
	if corrected, ok := CorrectTypo(email); ok {
		verdict.Email = corrected
		bonus += TypoCorrectionBonus
	}

	if v.disposable.IsDisposable(verdict.Email) {
		verdict.Reason = ReasonDisposable
		return verdict, nil
	}

	result, err := v.domains.Check(ctx, ExtractDomain(verdict.Email))
	if err != nil {
		return Verdict{}, fmt.Errorf("validate %s: %w", verdict.Email, err)
	}
	if !result.Valid {
		verdict.Reason = result.Reason
		return verdict, nil
	}

	verdict.Valid = true
	verdict.Score = clampScore(bonus + result.Score + BaseScore)
	return verdict, nil
}

// DisposableFilter exposes the configured block-list, mainly for startup logging.
func (v *Validator) DisposableFilter() *DisposableFilter { return v.disposable }

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
