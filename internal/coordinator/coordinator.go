package coordinator

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"marketpulse/internal/fetcher"
	"marketpulse/internal/instrument"
	"marketpulse/internal/metrics"
)

// Coordinator fans a batch out over the catalog and aggregates the results
type Coordinator struct {
	price          fetcher.PriceFetcher
	news           fetcher.NewsOpener
	logger         *zap.Logger
	maxConcurrency int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxConcurrency bounds how many instruments are processed at once.
// Zero or negative means one goroutine per instrument.
func WithMaxConcurrency(n int) Option {
	return func(c *Coordinator) {
		c.maxConcurrency = n
	}
}

// WithLogger sets the logger for batch-level events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a new Coordinator with the given fetchers
func New(price fetcher.PriceFetcher, news fetcher.NewsOpener, opts ...Option) *Coordinator {
	c := &Coordinator{
		price:  price,
		news:   news,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process fetches price and headline for one instrument concurrently and
// merges them. It waits for both and never fails: each side degrades to
// absent on its own.
func (c *Coordinator) Process(ctx context.Context, news fetcher.NewsFetcher, inst instrument.Instrument) Record {
	rec := Record{Instrument: inst}

	var wg conc.WaitGroup
	wg.Go(func() {
		rec.Price = c.price.FetchPrice(ctx, inst)
	})
	wg.Go(func() {
		rec.Headline = news.FetchNews(ctx, inst)
	})
	wg.Wait()

	return rec
}

// RunBatch processes every instrument in catalog concurrently and returns one
// Record per instrument in catalog order, whatever the individual outcomes.
// An empty catalog yields an empty Batch without opening a news session.
func (c *Coordinator) RunBatch(ctx context.Context, catalog []instrument.Instrument) Batch {
	start := time.Now()
	c.logger.Info("ingestion_started", zap.Int("batch_size", len(catalog)))

	if len(catalog) == 0 {
		c.logSummary(Batch{}, start)
		return Batch{}
	}

	session := c.news.Open()
	defer func() {
		if err := session.Close(); err != nil {
			c.logger.Warn("failed to close news session", zap.Error(err))
		}
	}()

	workers := c.maxConcurrency
	if workers <= 0 || workers > len(catalog) {
		workers = len(catalog)
	}

	mapper := iter.Mapper[instrument.Instrument, Record]{MaxGoroutines: workers}
	batch := Batch(mapper.Map(catalog, func(inst *instrument.Instrument) Record {
		return c.Process(ctx, session, *inst)
	}))

	for _, rec := range batch {
		metrics.ObserveRecord(rec.HasPrice(), rec.HasHeadline())
	}
	metrics.ObserveBatch(start)
	c.logSummary(batch, start)

	return batch
}

func (c *Coordinator) logSummary(batch Batch, start time.Time) {
	c.logger.Info("ingestion_completed",
		zap.Int("total_attempted", len(batch)),
		zap.Int("successful", batch.Successful()),
		zap.Int("headlines", batch.WithHeadline()),
		zap.Duration("duration", time.Since(start)))
}
