package news

import (
	"sync"
	"time"
)

// RateLimiter tracks a collector's self-reported call budget locally, rather
// than trusting provider response headers. It is embedded in each concrete
// collector and guarded by its own mutex since multiple concurrent requests
// can hit the same collector instance.
type RateLimiter struct {
	mu sync.Mutex

	limit       int
	window      time.Duration
	callsMade   int
	windowStart time.Time

	// secondary is an optional second budget (AlphaVantage has both a
	// per-minute and a per-day limit; reported remaining is the min of both).
	secondary *RateLimiter
}

// NewRateLimiter creates a limiter resetting every window with the given
// call budget.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:       limit,
		window:      window,
		windowStart: time.Now(),
	}
}

// WithSecondary attaches a second, independently-resetting budget.
func (r *RateLimiter) WithSecondary(secondary *RateLimiter) *RateLimiter {
	r.secondary = secondary
	return r
}

func (r *RateLimiter) rolloverLocked(now time.Time) {
	if now.Sub(r.windowStart) >= r.window {
		r.callsMade = 0
		r.windowStart = now
	}
}

// RecordCall registers one outbound call against the budget.
func (r *RateLimiter) RecordCall() {
	now := time.Now()

	r.mu.Lock()
	r.rolloverLocked(now)
	r.callsMade++
	r.mu.Unlock()

	if r.secondary != nil {
		r.secondary.RecordCall()
	}
}

// Remaining returns calls remaining in the current window (min of primary
// and secondary budgets when a secondary is attached) and the reset time(s).
func (r *RateLimiter) Remaining() (remaining int, resetAt time.Time, secondaryResetAt *time.Time) {
	now := time.Now()

	r.mu.Lock()
	r.rolloverLocked(now)
	remaining = r.limit - r.callsMade
	if remaining < 0 {
		remaining = 0
	}
	resetAt = r.windowStart.Add(r.window)
	r.mu.Unlock()

	if r.secondary != nil {
		secRemaining, secReset, _ := r.secondary.Remaining()
		if secRemaining < remaining {
			remaining = secRemaining
		}
		secondaryResetAt = &secReset
	}

	return remaining, resetAt, secondaryResetAt
}

// CallsMade returns the number of calls recorded in the current window.
func (r *RateLimiter) CallsMade() int {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolloverLocked(now)
	return r.callsMade
}

// UTCCalendarDayWindow returns the duration remaining until the next UTC
// midnight, used to seed a calendar-day reset window (NewsAPI's 1000/day,
// AlphaVantage's 500/day).
func UTCCalendarDayWindow() time.Duration {
	now := time.Now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(now)
}
