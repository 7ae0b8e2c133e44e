package worker

import (
	"math"
	"time"
)

// RetryPolicy is the schedule for failed sheet sync tasks: delays grow
// from BaseDelay by Growth per attempt, capped at MaxDelay, and the task
// is parked in the dead-letter list after MaxAttempts.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Growth      float64
}

func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		MaxDelay:    time.Minute,
		Growth:      2,
	}
}

// normalized fills zero fields from the default policy.
func (p RetryPolicy) normalized() RetryPolicy {
	def := defaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Growth <= 1 {
		p.Growth = def.Growth
	}
	return p
}

// Delay returns the wait before the given attempt, 1-based. Attempts
// below 1 are treated as the first one.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Growth, float64(attempt-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d <= 0 {
		d = p.BaseDelay
	}
	return d
}
