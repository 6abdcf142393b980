package verifier

import "errors"

// Rejection reasons carried on a Verdict. They are shown verbatim in the admin views.
const (
	ReasonInvalidFormat      = "Invalid email format"
	ReasonInvalidDomainChars = "Invalid domain characters"
	ReasonNoMXRecord         = "Domain has no MX record"
	ReasonDisposable         = "Disposable email not allowed"
	ReasonRateLimited        = "Rate limit exceeded"
)

// ErrResolverUnavailable is returned when a domain could not be checked at all,
// as opposed to a domain that was checked and has no mail records.
var ErrResolverUnavailable = errors.New("dns resolver unavailable")
