package price

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"marketpulse/internal/fetcher"
	"marketpulse/internal/instrument"
	"marketpulse/internal/metrics"
)

const (
	// pricePrecision is the number of decimal places kept on a quote.
	pricePrecision = 4

	defaultCallTimeout = 10 * time.Second
)

// DefaultLookback is the history window asked of the quote provider. It spans
// a week so that weekends and exchange holidays still leave the last session
// inside the window.
const DefaultLookback = 7 * 24 * time.Hour

// Options tunes a Fetcher. Zero values fall back to defaults.
type Options struct {
	Policy      fetcher.RetryPolicy
	CallTimeout time.Duration
	Lookback    time.Duration
}

// Fetcher retrieves the latest close for an instrument from a quote provider.
type Fetcher struct {
	provider    fetcher.QuoteProvider
	policy      fetcher.RetryPolicy
	callTimeout time.Duration
	lookback    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewFetcher creates a new price fetcher
func NewFetcher(provider fetcher.QuoteProvider, opts Options, logger *zap.Logger) *Fetcher {
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = fetcher.DefaultRetryPolicy()
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultLookback
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		provider:    provider,
		policy:      opts.Policy,
		callTimeout: opts.CallTimeout,
		lookback:    opts.Lookback,
		logger:      logger,
		now:         time.Now,
	}
}

// FetchPrice returns the latest close for inst rounded to 4 decimal places.
// Transient faults are retried; data absence and non-positive prices are not.
// The result is absent, never an error, when no valid price was obtained.
func (f *Fetcher) FetchPrice(ctx context.Context, inst instrument.Instrument) fetcher.Result[fetcher.Quote] {
	start := time.Now()
	log := f.logger.With(
		zap.String("ticker", inst.Name()),
		zap.String("action", fetcher.ActionFetchPrice),
		zap.String("provider", f.provider.Name()),
	)

	quote, attempts, err := fetcher.Retry(ctx, f.policy, func(ctx context.Context) (fetcher.Quote, error) {
		return f.fetchOnce(ctx, inst)
	}, func(attempt int, err error, wait time.Duration) {
		log.Debug("retrying fetch",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.String("error_kind", fetcher.Kind(err)),
			zap.Error(err))
	})

	var result fetcher.Result[fetcher.Quote]
	switch {
	case err == nil:
		result = fetcher.Success(quote, attempts)
		log.Info("status",
			zap.String("status", string(result.Status)),
			zap.String("price", quote.Price.String()),
			zap.Int("attempts", attempts))
	case fetcher.IsNoData(err):
		result = fetcher.NoData[fetcher.Quote](attempts)
		log.Info("status",
			zap.String("status", string(result.Status)),
			zap.Int("attempts", attempts))
	default:
		result = fetcher.Failed[fetcher.Quote](err, attempts)
		log.Error("status",
			zap.String("status", string(result.Status)),
			zap.String("error_kind", fetcher.Kind(err)),
			zap.Int("attempts", attempts),
			zap.Error(err))
	}

	metrics.ObserveFetch(fetcher.ActionFetchPrice, string(result.Status), attempts, start)
	return result
}

// fetchOnce performs a single bounded provider call and validates the last bar.
func (f *Fetcher) fetchOnce(ctx context.Context, inst instrument.Instrument) (fetcher.Quote, error) {
	bars, err := offload(ctx, f.callTimeout, func(ctx context.Context) ([]fetcher.Bar, error) {
		return f.provider.History(ctx, inst.Symbol(), f.lookback)
	})
	if err != nil {
		var fe *fetcher.FetchError
		if !errors.As(err, &fe) && !fetcher.IsNoData(err) && ctx.Err() == nil {
			err = fetcher.NewProviderError(err)
		}
		return fetcher.Quote{}, err
	}

	if len(bars) == 0 {
		return fetcher.Quote{}, fmt.Errorf("no price data for %s: %w", inst.Symbol(), fetcher.ErrNoData)
	}

	last := bars[len(bars)-1]
	price := last.Close.Round(pricePrecision)
	if !price.IsPositive() {
		return fetcher.Quote{}, fetcher.NewValidationError(
			fmt.Sprintf("non-positive close %s for %s", last.Close.String(), inst.Symbol()))
	}

	captured := last.Time
	if captured.IsZero() {
		captured = f.now()
	}

	return fetcher.Quote{
		Price:      price,
		CapturedAt: captured,
	}, nil
}
