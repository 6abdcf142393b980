package verifier

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver answers from fixed tables and counts calls.
type fakeResolver struct {
	mu    sync.Mutex
	mx    map[string][]*net.MX
	ips   map[string][]net.IP
	err   error
	block bool
	calls int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{mx: map[string][]*net.MX{}, ips: map[string][]net.IP{}}
}

func (r *fakeResolver) withMX(domains ...string) *fakeResolver {
	for _, d := range domains {
		r.mx[d] = []*net.MX{{Host: "mx." + d, Pref: 10}}
	}
	return r
}

func (r *fakeResolver) withA(domains ...string) *fakeResolver {
	for _, d := range domains {
		r.ips[d] = []net.IP{net.IPv4(192, 0, 2, 1)}
	}
	return r
}

func (r *fakeResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	if mx, ok := r.mx[name]; ok {
		return mx, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func (r *fakeResolver) LookupIP(ctx context.Context, _ string, host string) ([]net.IP, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	if ips, ok := r.ips[host]; ok {
		return ips, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func (r *fakeResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testValidator(r Resolver) *Validator {
	cfg := DefaultConfig()
	cfg.Resolver = r
	cfg.LookupTimeout = 50 * time.Millisecond
	return New(cfg)
}

func TestValidate_PopularDomainScores70(t *testing.T) {
	v := testValidator(newFakeResolver().withMX("gmail.com"))

	got, err := v.Validate(context.Background(), "alice@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, Verdict{Valid: true, Email: "alice@gmail.com", Score: 70}, got)
}

func TestValidate_TypoCorrectedScores80(t *testing.T) {
	v := testValidator(newFakeResolver().withMX("gmail.com"))

	got, err := v.Validate(context.Background(), "alice@gmial.com")
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, "alice@gmail.com", got.Email)
	assert.Equal(t, 80, got.Score)
}

func TestValidate_OrdinaryDomainScores50(t *testing.T) {
	v := testValidator(newFakeResolver().withMX("company.io"))

	got, err := v.Validate(context.Background(), "bob@company.io")
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, BaseScore, got.Score)
}

func TestValidate_FallsBackToARecord(t *testing.T) {
	v := testValidator(newFakeResolver().withA("a-only.net"))

	got, err := v.Validate(context.Background(), "bob@a-only.net")
	require.NoError(t, err)
	assert.True(t, got.Valid)
}

func TestValidate_FormatFailures(t *testing.T) {
	r := newFakeResolver()
	v := testValidator(r)

	cases := []string{
		"",
		"plainaddress",
		"a@@b.com",
		"a@b@c.com",
		"has space@example.com",
		"@example.com",
		"user@",
		"user@localhost",
		"user@example..com",
		"user@.example.com",
		strings.Repeat("a", 65) + "@example.com",
		"user@" + strings.Repeat("a", 250) + ".com",
		strings.Repeat("a", 64) + "@" + strings.Repeat("b", 186) + ".com",
	}
	for _, email := range cases {
		got, err := v.Validate(context.Background(), email)
		require.NoError(t, err, email)
		assert.False(t, got.Valid, email)
		assert.Equal(t, ReasonInvalidFormat, got.Reason, email)
		assert.Equal(t, 0, got.Score, email)
		assert.Equal(t, email, got.Email, email)
	}
	assert.Zero(t, r.callCount(), "format failures must not reach DNS")
}

func TestValidate_DisposableCheckedAfterCorrection(t *testing.T) {
	r := newFakeResolver().withMX("mailinator.com")
	v := testValidator(r)

	got, err := v.Validate(context.Background(), "x@MAILINATOR.com")
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, ReasonDisposable, got.Reason)
	assert.Zero(t, r.callCount())
}

func TestValidate_DisposableDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolver = newFakeResolver().withMX("mailinator.com")
	cfg.DisposableCheckEnabled = false
	v := New(cfg)

	got, err := v.Validate(context.Background(), "x@mailinator.com")
	require.NoError(t, err)
	assert.True(t, got.Valid)
}

func TestValidate_NoMailRecords(t *testing.T) {
	v := testValidator(newFakeResolver())

	got, err := v.Validate(context.Background(), "user@nowhere-at-all.org")
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, ReasonNoMXRecord, got.Reason)
}

func TestDomainChecker_InvalidCharacters(t *testing.T) {
	r := newFakeResolver()
	d := NewDomainChecker(r, time.Second, nil, nil, nil, 0)

	for _, domain := range []string{"exa_mple.com", "bad domain.com", "ex!ample.org"} {
		got, err := d.Check(context.Background(), domain)
		require.NoError(t, err)
		assert.False(t, got.Valid, domain)
		assert.Equal(t, ReasonInvalidDomainChars, got.Reason, domain)
	}
	assert.Zero(t, r.callCount())
}

func TestDomainChecker_PopularBonusCaseInsensitive(t *testing.T) {
	d := NewDomainChecker(newFakeResolver().withMX("GMAIL.com", "gmail.com"), time.Second, nil, DefaultPopularDomains, nil, 0)

	got, err := d.Check(context.Background(), "GMAIL.com")
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, PopularDomainBonus, got.Score)
}

func TestValidate_AllowListSkipsDNS(t *testing.T) {
	r := newFakeResolver()
	v := testValidator(r)

	for _, email := range []string{"user@example.com", "user@Test.com"} {
		got, err := v.Validate(context.Background(), email)
		require.NoError(t, err)
		assert.True(t, got.Valid, email)
		assert.Equal(t, BaseScore, got.Score, email)
	}
	assert.Zero(t, r.callCount())
}

func TestValidate_LookupTimeoutIsNoRecord(t *testing.T) {
	r := newFakeResolver()
	r.block = true
	v := testValidator(r)

	start := time.Now()
	got, err := v.Validate(context.Background(), "user@slow-dns.org")
	require.NoError(t, err)
	assert.Equal(t, ReasonNoMXRecord, got.Reason)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestValidate_CancelledContextIsFault(t *testing.T) {
	r := newFakeResolver()
	r.block = true
	v := testValidator(r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Validate(ctx, "user@slow-dns.org")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolverUnavailable))
}

func TestValidate_ResolverFaultIsError(t *testing.T) {
	r := newFakeResolver()
	r.err = errors.New("connection refused")
	v := testValidator(r)

	_, err := v.Validate(context.Background(), "user@somewhere.org")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolverUnavailable)
}

func TestValidate_CachesDefinitiveLookups(t *testing.T) {
	r := newFakeResolver().withMX("cached.org")
	v := testValidator(r)

	for i := 0; i < 3; i++ {
		got, err := v.Validate(context.Background(), "user@cached.org")
		require.NoError(t, err)
		assert.True(t, got.Valid)
	}
	assert.Equal(t, 1, r.callCount())

	for i := 0; i < 2; i++ {
		_, err := v.Validate(context.Background(), "user@missing.org")
		require.NoError(t, err)
	}
	// MX + A on the first pass only.
	assert.Equal(t, 3, r.callCount())
}

func TestValidate_TimeoutsAreNotCached(t *testing.T) {
	r := newFakeResolver()
	r.block = true
	v := testValidator(r)

	_, err := v.Validate(context.Background(), "user@flaky.org")
	require.NoError(t, err)
	r.block = false
	r.withMX("flaky.org")

	got, err := v.Validate(context.Background(), "user@flaky.org")
	require.NoError(t, err)
	assert.True(t, got.Valid)
}

func TestValidate_ScoreNeverExceedsMax(t *testing.T) {
	assert.Equal(t, MaxScore, clampScore(140))
	assert.Equal(t, 0, clampScore(-5))
	assert.Equal(t, 80, clampScore(80))
}

func TestValidate_Deterministic(t *testing.T) {
	v := testValidator(newFakeResolver().withMX("gmail.com", "company.io"))

	for _, email := range []string{"a@gmail.co", "b@company.io", "bad", "c@guerrillamail.com"} {
		first, err := v.Validate(context.Background(), email)
		require.NoError(t, err)
		second, err := v.Validate(context.Background(), email)
		require.NoError(t, err)
		assert.Equal(t, first, second, email)
	}
}
