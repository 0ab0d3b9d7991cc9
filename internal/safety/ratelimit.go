package safety

import (
	"context"
	"time"
)

// AppliedCounter counts ledger rows applied since a given instant.
type AppliedCounter interface {
	CountRecentApplied(ctx context.Context, since time.Time) (int, error)
}

// RateCheck is the result of a rate-limit evaluation.
type RateCheck struct {
	Allowed       bool `json:"allowed"`
	HourlyCount   int  `json:"hourly_count"`
	DailyCount    int  `json:"daily_count"`
	RemainingHour int  `json:"remaining_hour"`
	RemainingDay  int  `json:"remaining_day"`
}

// HourlyExceeded reports whether the trailing-hour window is what blocked.
func (r RateCheck) HourlyExceeded() bool { return r.RemainingHour <= 0 }

// RateLimiter enforces trailing-window submission quotas. Both windows are
// recomputed from the ledger on every check; there is no separate counter
// that could drift from reality across restarts.
type RateLimiter struct {
	counter    AppliedCounter
	clock      Clock
	maxPerHour int
	maxPerDay  int
}

// NewRateLimiter creates a rate limiter over the given ledger counter.
func NewRateLimiter(counter AppliedCounter, clock Clock, maxPerHour, maxPerDay int) *RateLimiter {
	return &RateLimiter{
		counter:    counter,
		clock:      clock,
		maxPerHour: maxPerHour,
		maxPerDay:  maxPerDay,
	}
}

// Check recomputes both sliding windows and reports whether another
// application may be submitted right now.
func (l *RateLimiter) Check(ctx context.Context) (RateCheck, error) {
	now := l.clock.Now()

	hourly, err := l.counter.CountRecentApplied(ctx, now.Add(-time.Hour))
	if err != nil {
		return RateCheck{}, err
	}

	daily, err := l.counter.CountRecentApplied(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return RateCheck{}, err
	}

	check := RateCheck{
		HourlyCount:   hourly,
		DailyCount:    daily,
		RemainingHour: l.maxPerHour - hourly,
		RemainingDay:  l.maxPerDay - daily,
	}
	check.Allowed = hourly < l.maxPerHour && daily < l.maxPerDay
	return check, nil
}
