package alphavantage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"marketpulse/internal/fetcher"
)

const tradingDayLayout = "2006-01-02"

// GlobalQuoteResponse represents the AlphaVantage API response for stock quotes
type GlobalQuoteResponse struct {
	GlobalQuote struct {
		Symbol           string `json:"01. symbol"`
		Open             string `json:"02. open"`
		High             string `json:"03. high"`
		Low              string `json:"04. low"`
		Price            string `json:"05. price"`
		Volume           string `json:"06. volume"`
		LatestTradingDay string `json:"07. latest trading day"`
		PreviousClose    string `json:"08. previous close"`
		Change           string `json:"09. change"`
		ChangePercent    string `json:"10. change percent"`
	} `json:"Global Quote"`

	// Note and Information carry throttling notices on an otherwise 200 response.
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

// Provider fetches the latest trading-day price from AlphaVantage
type Provider struct {
	apiKey string
	client *resty.Client
}

// NewProvider creates a new AlphaVantage quote provider
func NewProvider(apiKey, baseURL string, timeout time.Duration) *Provider {
	client := fetcher.NewHTTPClient(fetcher.HTTPOptions{
		BaseURL: baseURL,
		Accept:  "application/json",
		Timeout: timeout,
	})

	return &Provider{
		apiKey: apiKey,
		client: client,
	}
}

// Name implements fetcher.QuoteProvider
func (p *Provider) Name() string {
	return "alphavantage"
}

// History implements fetcher.QuoteProvider. GLOBAL_QUOTE only reports the
// latest trading day, so the result holds at most one bar and lookback is
// not consulted.
func (p *Provider) History(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.Bar, error) {
	var result GlobalQuoteResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey":   p.apiKey,
			"function": "GLOBAL_QUOTE",
			"symbol":   symbol,
		}).
		SetResult(&result).
		Get("")

	if err != nil {
		return nil, fetcher.ClassifyTransportError(fmt.Errorf("failed to fetch quote for %s: %w", symbol, err))
	}

	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	if result.Note != "" || result.Information != "" {
		return nil, fetcher.NewRateLimitError(0)
	}

	if result.GlobalQuote.Price == "" {
		return nil, nil
	}

	price, err := decimal.NewFromString(result.GlobalQuote.Price)
	if err != nil {
		return nil, fetcher.NewParseError(fmt.Errorf("failed to parse price %q: %w", result.GlobalQuote.Price, err))
	}

	bar := fetcher.Bar{Close: price}
	if day, err := time.Parse(tradingDayLayout, result.GlobalQuote.LatestTradingDay); err == nil {
		bar.Time = day
	}

	return []fetcher.Bar{bar}, nil
}
