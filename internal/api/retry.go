package api

import "time"

// RetryPolicy decides, after a failed attempt, whether to try again and
// how long to wait first. attempt is zero-based.
type RetryPolicy interface {
	Next(attempt int, err error) (time.Duration, bool)
}

type noRetry struct{}

func (noRetry) Next(int, error) (time.Duration, bool) { return 0, false }

// NoRetry treats every failure as final. This is the default: each call is
// single-shot and the operator retries by re-invoking the action.
func NoRetry() RetryPolicy { return noRetry{} }

// Backoff retries up to MaxRetries times with exponential delay capped at
// 5s. Not wired by default; available for deployments behind flaky links.
type Backoff struct {
	MaxRetries int
}

func (b Backoff) Next(attempt int, _ error) (time.Duration, bool) {
	if attempt >= b.MaxRetries {
		return 0, false
	}
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d, true
}
