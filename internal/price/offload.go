package price

import (
	"context"
	"fmt"
	"time"

	"marketpulse/internal/fetcher"
)

type callResult[T any] struct {
	value T
	err   error
}

// offload runs a potentially blocking provider call on its own goroutine and
// waits at most timeout for it. A call that outlives the timeout keeps running
// until the provider returns; its result is discarded.
func offload[T any](ctx context.Context, timeout time.Duration, call func(ctx context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		var res callResult[T]
		defer func() {
			if r := recover(); r != nil {
				res.err = fetcher.NewProviderError(fmt.Errorf("panic: %v", r))
			}
			done <- res
		}()
		res.value, res.err = call(callCtx)
	}()

	select {
	case res := <-done:
		if res.err != nil && callCtx.Err() != nil && ctx.Err() == nil {
			return res.value, fetcher.NewTimeoutError(res.err)
		}
		return res.value, res.err
	case <-callCtx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fetcher.NewTimeoutError(fmt.Errorf("provider call exceeded %s: %w", timeout, callCtx.Err()))
	}
}
