package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// Default retry configuration
	defaultMaxAttempts     = 3
	defaultInitialInterval = 4 * time.Second
	defaultMaxInterval     = 40 * time.Second
	defaultMultiplier      = 2.0
)

// RetryPolicy bounds how often and how patiently a fetch is retried.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryPolicy returns the policy shared by both fetchers:
// 3 attempts, waiting 4s and doubling up to 40s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     defaultMaxAttempts,
		InitialInterval: defaultInitialInterval,
		MaxInterval:     defaultMaxInterval,
		Multiplier:      defaultMultiplier,
	}
}

// BackOff builds a fresh, jitter-free exponential backoff for p.
func (p RetryPolicy) BackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// Schedule returns the waits p inserts between attempts, in order.
func (p RetryPolicy) Schedule() []time.Duration {
	if p.MaxAttempts < 2 {
		return nil
	}
	b := p.BackOff()
	waits := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := uint(1); i < p.MaxAttempts; i++ {
		waits = append(waits, b.NextBackOff())
	}
	return waits
}

// RetryHook observes a failed attempt before the wait that follows it.
type RetryHook func(attempt int, err error, wait time.Duration)

// Retry runs op until it succeeds, returns a permanent error (see IsPermanent),
// the policy's attempts are exhausted, or ctx is done. It returns the last
// value and error together with the number of attempts made.
func Retry[T any](ctx context.Context, p RetryPolicy, op func(ctx context.Context) (T, error), hook RetryHook) (T, int, error) {
	attempts := 0

	operation := func() (T, error) {
		attempts++
		v, err := op(ctx)
		if err != nil && IsPermanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.BackOff()),
		backoff.WithMaxTries(p.MaxAttempts),
	}
	if hook != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			hook(attempts, err, wait)
		}))
	}

	v, err := backoff.Retry(ctx, operation, opts...)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return v, attempts, err
}
