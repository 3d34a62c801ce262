// Package retry provides the retry policy shared by every call to an external service.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes how a failing operation is retried.
type Policy struct {
	// MaxAttempts caps the total number of attempts. Zero retries forever.
	MaxAttempts int
	// Delay is the wait between attempts, or the first wait when MaxDelay is set.
	Delay time.Duration
	// MaxDelay switches to exponential backoff capped at this value.
	MaxDelay time.Duration
	// Timer overrides the timer used to wait between attempts. Nil uses a real timer.
	Timer backoff.Timer
}

// Forever retries indefinitely with a fixed delay.
func Forever(delay time.Duration) Policy {
	return Policy{Delay: delay}
}

// Attempts makes at most n attempts with a fixed delay between them.
func Attempts(n int, delay time.Duration) Policy {
	return Policy{MaxAttempts: n, Delay: delay}
}

// Unbounded reports whether the policy never gives up on its own.
func (p Policy) Unbounded() bool {
	return p.MaxAttempts <= 0
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff
	if p.MaxDelay > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = p.Delay
		exp.MaxInterval = p.MaxDelay
		exp.MaxElapsedTime = 0
		exp.RandomizationFactor = 0
		exp.Reset()
		b = exp
	} else {
		b = backoff.NewConstantBackOff(p.Delay)
	}
	if !p.Unbounded() {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// Do runs op until it succeeds, the policy gives up or ctx is done.
// notify, when non-nil, is called after each failed attempt with the wait that follows it.
// The error of the last attempt is returned when the policy gives up.
func Do[T any](ctx context.Context, p Policy, op func() (T, error), notify func(err error, wait time.Duration)) (T, error) {
	var n backoff.Notify
	if notify != nil {
		n = backoff.Notify(notify)
	}
	return backoff.RetryNotifyWithTimerAndData(op, p.backOff(ctx), n, p.Timer)
}

// Permanent marks err so that Do stops retrying and returns it unwrapped.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
