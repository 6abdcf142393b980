package verifier

const DefaultDailyLimit = 10

// RateLimiter caps successful subscriptions per source IP per calendar day.
// The count itself comes from the subscriber store.
type RateLimiter struct {
	dailyLimit int
}

// NewRateLimiter falls back to DefaultDailyLimit for non-positive limits.
func NewRateLimiter(dailyLimit int) RateLimiter {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	return RateLimiter{dailyLimit: dailyLimit}
}

// Allow reports whether ip may subscribe again given countToday prior
// subscriptions.
func (r RateLimiter) Allow(ip string, countToday int64) bool {
	return countToday < int64(r.Limit())
}

func (r RateLimiter) Limit() int {
	if r.dailyLimit <= 0 {
		return DefaultDailyLimit
	}
	return r.dailyLimit
}
