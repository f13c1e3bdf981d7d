package fetcher

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"marketpulse/internal/instrument"
)

// Action names used in log events and metric labels.
const (
	ActionFetchPrice = "fetch_price"
	ActionFetchNews  = "fetch_news"
)

// Quote is the latest trade price captured for an instrument.
type Quote struct {
	Price      decimal.Decimal
	CapturedAt time.Time
}

// Bar is a single price bar reported by a quote provider.
type Bar struct {
	Close decimal.Decimal
	Time  time.Time
}

// QuoteProvider is a remote source of historical prices.
// Implementations may block; callers are expected to bound them.
type QuoteProvider interface {
	// History returns the bars for symbol covering the last lookback period,
	// oldest first. An empty slice with a nil error means the provider has no
	// data for the window.
	History(ctx context.Context, symbol string, lookback time.Duration) ([]Bar, error)

	// Name identifies the provider in logs.
	Name() string
}

// PriceFetcher retrieves the latest price for one instrument.
// It never returns an error: faults degrade to an absent Result.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, inst instrument.Instrument) Result[Quote]
}

// NewsFetcher retrieves the latest headline for one instrument.
type NewsFetcher interface {
	FetchNews(ctx context.Context, inst instrument.Instrument) Result[string]
}

// NewsSession is a NewsFetcher bound to a pooled network session that must be
// released once the batch is done.
type NewsSession interface {
	NewsFetcher
	Close() error
}

// NewsOpener creates a NewsSession for one batch run.
type NewsOpener interface {
	Open() NewsSession
}
