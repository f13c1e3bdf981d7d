package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"marketpulse/internal/fetcher"
	"marketpulse/internal/instrument"
)

// MockQuoteProvider is a mock implementation of the QuoteProvider interface for testing
type MockQuoteProvider struct {
	HistoryFunc func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error)

	calls atomic.Int32
}

// History implements the QuoteProvider interface
func (m *MockQuoteProvider) History(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
	m.calls.Add(1)
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, symbol, lookback)
	}
	return nil, nil
}

// Name implements the QuoteProvider interface
func (m *MockQuoteProvider) Name() string {
	return "mock"
}

// Calls returns how many times History was invoked.
func (m *MockQuoteProvider) Calls() int {
	return int(m.calls.Load())
}

// NewMockQuoteProvider serves fixed closes per symbol. Symbols not in closes have no data.
func NewMockQuoteProvider(closes map[string]string) *MockQuoteProvider {
	return &MockQuoteProvider{
		HistoryFunc: func(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
			c, ok := closes[symbol]
			if !ok {
				return nil, nil
			}
			return []fetcher.Bar{{Close: decimal.RequireFromString(c), Time: time.Now()}}, nil
		},
	}
}

// MockPriceFetcher is a mock implementation of the PriceFetcher interface for testing
type MockPriceFetcher struct {
	FetchFunc func(ctx context.Context, inst instrument.Instrument) fetcher.Result[fetcher.Quote]
}

// FetchPrice implements the PriceFetcher interface
func (m *MockPriceFetcher) FetchPrice(ctx context.Context, inst instrument.Instrument) fetcher.Result[fetcher.Quote] {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, inst)
	}
	return fetcher.NoData[fetcher.Quote](1)
}

// NewMockPriceFetcher returns fixed prices per instrument; others are absent.
func NewMockPriceFetcher(prices map[instrument.Instrument]string) *MockPriceFetcher {
	return &MockPriceFetcher{
		FetchFunc: func(ctx context.Context, inst instrument.Instrument) fetcher.Result[fetcher.Quote] {
			p, ok := prices[inst]
			if !ok {
				return fetcher.NoData[fetcher.Quote](1)
			}
			return fetcher.Success(fetcher.Quote{Price: decimal.RequireFromString(p), CapturedAt: time.Now()}, 1)
		},
	}
}

// MockNewsSession is a mock implementation of the NewsSession interface for testing
type MockNewsSession struct {
	FetchFunc func(ctx context.Context, inst instrument.Instrument) fetcher.Result[string]

	closed atomic.Bool
}

// FetchNews implements the NewsFetcher interface
func (m *MockNewsSession) FetchNews(ctx context.Context, inst instrument.Instrument) fetcher.Result[string] {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, inst)
	}
	return fetcher.NoData[string](1)
}

// Close implements the NewsSession interface
func (m *MockNewsSession) Close() error {
	m.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (m *MockNewsSession) Closed() bool {
	return m.closed.Load()
}

// MockNewsOpener hands out sessions and remembers them.
type MockNewsOpener struct {
	FetchFunc func(ctx context.Context, inst instrument.Instrument) fetcher.Result[string]

	mu       sync.Mutex
	sessions []*MockNewsSession
}

// Open implements the NewsOpener interface
func (m *MockNewsOpener) Open() fetcher.NewsSession {
	s := &MockNewsSession{FetchFunc: m.FetchFunc}
	m.mu.Lock()
	m.sessions = append(m.sessions, s)
	m.mu.Unlock()
	return s
}

// Sessions returns every session opened so far.
func (m *MockNewsOpener) Sessions() []*MockNewsSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MockNewsSession, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// NewMockNewsOpener returns fixed headlines per instrument; others are absent.
func NewMockNewsOpener(headlines map[instrument.Instrument]string) *MockNewsOpener {
	return &MockNewsOpener{
		FetchFunc: func(ctx context.Context, inst instrument.Instrument) fetcher.Result[string] {
			h, ok := headlines[inst]
			if !ok {
				return fetcher.NoData[string](1)
			}
			return fetcher.Success(h, 1)
		},
	}
}
