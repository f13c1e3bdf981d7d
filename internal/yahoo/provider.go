package yahoo

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"marketpulse/internal/fetcher"
)

// barIter is the subset of *chart.Iter the provider consumes.
type barIter interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// Provider reads daily bars from Yahoo Finance.
// The underlying client is synchronous and ignores ctx; callers bound it.
type Provider struct {
	chart func(params *chart.Params) barIter
	now   func() time.Time
}

// NewProvider creates a Yahoo Finance quote provider
func NewProvider() *Provider {
	return &Provider{
		chart: func(params *chart.Params) barIter { return chart.Get(params) },
		now:   time.Now,
	}
}

// Name implements fetcher.QuoteProvider
func (p *Provider) Name() string {
	return "yahoo"
}

// History implements fetcher.QuoteProvider
func (p *Provider) History(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
	start, end := p.window(lookback)

	it := p.chart(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var bars []fetcher.Bar
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := it.Bar()
		bars = append(bars, fetcher.Bar{
			Close: b.Close,
			Time:  time.Unix(int64(b.Timestamp), 0).UTC(),
		})
	}
	if err := it.Err(); err != nil {
		return nil, fetcher.NewProviderError(fmt.Errorf("chart %s: %w", symbol, err))
	}

	return bars, nil
}

// window returns the [start, end] range of daily bars requested for lookback.
func (p *Provider) window(lookback time.Duration) (time.Time, time.Time) {
	end := p.now()
	return end.Add(-lookback), end
}
