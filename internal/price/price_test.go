package price

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"marketpulse/internal/fetcher"
	"marketpulse/internal/instrument"
	"marketpulse/internal/testutil"
)

func fastOptions() Options {
	return Options{
		Policy: fetcher.RetryPolicy{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     10 * time.Millisecond,
			Multiplier:      2,
		},
		CallTimeout: 200 * time.Millisecond,
	}
}

func bars(closes ...string) []fetcher.Bar {
	out := make([]fetcher.Bar, 0, len(closes))
	base := time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out = append(out, fetcher.Bar{Close: decimal.RequireFromString(c), Time: base.Add(time.Duration(i) * time.Hour)})
	}
	return out
}

func TestNewFetcher_Defaults(t *testing.T) {
	f := NewFetcher(&testutil.MockQuoteProvider{}, Options{}, nil)

	assert.Equal(t, fetcher.DefaultRetryPolicy(), f.policy)
	assert.Equal(t, 10*time.Second, f.callTimeout)
	assert.Equal(t, 7*24*time.Hour, f.lookback)
	assert.NotNil(t, f.logger)
}

func TestFetchPrice_Success(t *testing.T) {
	var gotSymbol string
	var gotLookback time.Duration
	provider := &testutil.MockQuoteProvider{
		HistoryFunc: func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
			gotSymbol, gotLookback = symbol, lookback
			return bars("120.10", "123.45678"), nil
		},
	}

	f := NewFetcher(provider, fastOptions(), zap.NewNop())
	res := f.FetchPrice(context.Background(), instrument.AC)

	require.True(t, res.Present())
	assert.Equal(t, "AC.PS", gotSymbol)
	assert.Equal(t, 24*time.Hour, gotLookback)
	assert.True(t, decimal.RequireFromString("123.4568").Equal(res.Value.Price), "got %s", res.Value.Price)
	assert.Equal(t, time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC), res.Value.CapturedAt)
	assert.Equal(t, 1, res.Attempts)
}

func TestFetchPrice_Rounding(t *testing.T) {
	tests := []struct {
		close string
		want  string
	}{
		{"178.23", "178.23"},
		{"1.00005", "1.0001"},
		{"42.123449", "42.1234"},
		{"123.45678", "123.4568"},
	}

	for _, tt := range tests {
		t.Run(tt.close, func(t *testing.T) {
			provider := &testutil.MockQuoteProvider{
				HistoryFunc: func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
					return bars(tt.close), nil
				},
			}
			res := NewFetcher(provider, fastOptions(), nil).FetchPrice(context.Background(), instrument.BDO)

			require.True(t, res.Present())
			assert.Equal(t, tt.want, res.Value.Price.String())
		})
	}
}

func TestFetchPrice_RetriesThenSucceeds(t *testing.T) {
	for k := 1; k < 3; k++ {
		calls := 0
		provider := &testutil.MockQuoteProvider{
			HistoryFunc: func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
				calls++
				if calls <= k {
					return nil, errors.New("yahoo: unexpected EOF")
				}
				return bars("55.5"), nil
			},
		}

		res := NewFetcher(provider, fastOptions(), nil).FetchPrice(context.Background(), instrument.JFC)

		require.True(t, res.Present(), "k=%d", k)
		assert.Equal(t, "55.5", res.Value.Price.String())
		assert.Equal(t, k+1, res.Attempts)
		assert.Equal(t, k+1, provider.Calls())
	}
}

func TestFetchPrice_ExhaustedRetriesIsAbsentAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	provider := &testutil.MockQuoteProvider{
		HistoryFunc: func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
			return nil, errors.New("connection reset by peer")
		},
	}

	res := NewFetcher(provider, fastOptions(), zap.New(core)).FetchPrice(context.Background(), instrument.TEL)

	assert.False(t, res.Present())
	assert.Equal(t, fetcher.StatusFailed, res.Status)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, provider.Calls())
	assert.Equal(t, "provider", fetcher.Kind(res.Err))

	retries := logs.FilterMessage("retrying fetch").All()
	require.Len(t, retries, 2)
	assert.Equal(t, time.Millisecond, retries[0].ContextMap()["wait"])
	assert.Equal(t, 2*time.Millisecond, retries[1].ContextMap()["wait"])

	outcomes := logs.FilterMessage("status").All()
	require.Len(t, outcomes, 1)
	fields := outcomes[0].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, outcomes[0].Level)
	assert.Equal(t, "TEL", fields["ticker"])
	assert.Equal(t, "fetch_price", fields["action"])
	assert.Equal(t, "failed", fields["status"])
	assert.Equal(t, "provider", fields["error_kind"])
}

func TestFetchPrice_NoDataIsNotRetried(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	provider := &testutil.MockQuoteProvider{
		HistoryFunc: func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
			return []fetcher.Bar{}, nil
		},
	}

	res := NewFetcher(provider, fastOptions(), zap.New(core)).FetchPrice(context.Background(), instrument.SM)

	assert.False(t, res.Present())
	assert.Equal(t, fetcher.StatusNoData, res.Status)
	assert.Equal(t, 1, provider.Calls())
	assert.NoError(t, res.Err)

	outcomes := logs.FilterMessage("status").All()
	require.Len(t, outcomes, 1)
	assert.Equal(t, "no_data", outcomes[0].ContextMap()["status"])
}

func TestFetchPrice_NonPositiveCloseIsRejected(t *testing.T) {
	// 0.00004 is positive but rounds to zero at 4 places.
	for _, c := range []string{"0", "-12.5", "0.00004"} {
		t.Run(c, func(t *testing.T) {
			provider := &testutil.MockQuoteProvider{
				HistoryFunc: func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
					return bars(c), nil
				},
			}

			res := NewFetcher(provider, fastOptions(), nil).FetchPrice(context.Background(), instrument.MER)

			assert.False(t, res.Present())
			assert.Equal(t, fetcher.StatusFailed, res.Status)
			assert.Equal(t, "validation", fetcher.Kind(res.Err))
			assert.Equal(t, 1, provider.Calls())
		})
	}
}

func TestFetchPrice_HungProviderTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	provider := &testutil.MockQuoteProvider{
		HistoryFunc: func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
			// Ignores ctx, like a blocking third-party client.
			<-release
			return bars("1"), nil
		},
	}
	opts := fastOptions()
	opts.CallTimeout = 20 * time.Millisecond

	start := time.Now()
	res := NewFetcher(provider, opts, nil).FetchPrice(context.Background(), instrument.ICT)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, fetcher.StatusFailed, res.Status)
	assert.Equal(t, "timeout", fetcher.Kind(res.Err))
	assert.Equal(t, 3, res.Attempts)
}

func TestFetchPrice_ProviderPanicIsContained(t *testing.T) {
	provider := &testutil.MockQuoteProvider{
		HistoryFunc: func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
			panic("nil map")
		},
	}

	res := NewFetcher(provider, fastOptions(), nil).FetchPrice(context.Background(), instrument.URC)

	assert.Equal(t, fetcher.StatusFailed, res.Status)
	assert.Equal(t, "provider", fetcher.Kind(res.Err))
}

func TestFetchPrice_UsesFetchTimeWhenBarHasNone(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	provider := &testutil.MockQuoteProvider{
		HistoryFunc: func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
			return []fetcher.Bar{{Close: decimal.NewFromFloat(10.5)}}, nil
		},
	}

	f := NewFetcher(provider, fastOptions(), nil)
	f.now = func() time.Time { return fixed }

	res := f.FetchPrice(context.Background(), instrument.AP)
	require.True(t, res.Present())
	assert.Equal(t, fixed, res.Value.CapturedAt)
}

func TestFetchPrice_MultiDayHistoryUsesNewestClose(t *testing.T) {
	var gotLookback time.Duration
	friday := time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC)
	provider := &testutil.MockQuoteProvider{
		HistoryFunc: func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
			gotLookback = lookback
			return []fetcher.Bar{
				{Close: decimal.RequireFromString("240.1"), Time: friday.AddDate(0, 0, -3)},
				{Close: decimal.RequireFromString("242.75"), Time: friday.AddDate(0, 0, -1)},
				{Close: decimal.RequireFromString("245.123456"), Time: friday},
			}, nil
		},
	}

	opts := fastOptions()
	opts.Lookback = 0
	res := NewFetcher(provider, opts, nil).FetchPrice(context.Background(), instrument.SM)

	require.True(t, res.Present())
	assert.Equal(t, "245.1235", res.Value.Price.String())
	assert.Equal(t, friday, res.Value.CapturedAt)
	assert.Equal(t, DefaultLookback, gotLookback)
	assert.Equal(t, 1, provider.Calls())
}
