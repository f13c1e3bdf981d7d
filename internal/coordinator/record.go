package coordinator

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"marketpulse/internal/fetcher"
	"marketpulse/internal/instrument"
)

// Record is the merged outcome for one instrument in a batch.
type Record struct {
	Instrument instrument.Instrument
	Price      fetcher.Result[fetcher.Quote]
	Headline   fetcher.Result[string]
}

// HasPrice reports whether a valid price was obtained.
func (r Record) HasPrice() bool {
	return r.Price.Present()
}

// HasHeadline reports whether a headline was obtained.
func (r Record) HasHeadline() bool {
	return r.Headline.Present()
}

type recordJSON struct {
	Ticker       string           `json:"ticker"`
	Symbol       string           `json:"symbol"`
	Price        *decimal.Decimal `json:"price"`
	CapturedAt   *string          `json:"captured_at"`
	NewsHeadline *string          `json:"news_headline"`
}

// MarshalJSON renders absent values as null.
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Ticker: r.Instrument.Name(),
		Symbol: r.Instrument.Symbol(),
	}
	if q, ok := r.Price.Get(); ok {
		ts := q.CapturedAt.UTC().Format(time.RFC3339)
		out.Price = &q.Price
		out.CapturedAt = &ts
	}
	if h, ok := r.Headline.Get(); ok {
		out.NewsHeadline = &h
	}
	return json.Marshal(out)
}

// Batch holds one Record per catalog instrument, in catalog order.
type Batch []Record

// Successful counts records with a price.
func (b Batch) Successful() int {
	n := 0
	for _, r := range b {
		if r.HasPrice() {
			n++
		}
	}
	return n
}

// WithHeadline counts records with a headline.
func (b Batch) WithHeadline() int {
	n := 0
	for _, r := range b {
		if r.HasHeadline() {
			n++
		}
	}
	return n
}
