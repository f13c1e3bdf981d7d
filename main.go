package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"marketpulse/internal/alphavantage"
	"marketpulse/internal/config"
	"marketpulse/internal/coordinator"
	"marketpulse/internal/fetcher"
	"marketpulse/internal/instrument"
	"marketpulse/internal/logging"
	"marketpulse/internal/metrics"
	"marketpulse/internal/news"
	"marketpulse/internal/price"
	"marketpulse/internal/yahoo"
)

const serviceName = "marketpulse"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(serviceName, cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	catalog, err := instrument.Catalog(cfg.Instruments)
	if err != nil {
		logger.Fatal("catalog enumeration failed", zap.Error(err))
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("received interrupt signal, shutting down")
		cancel()
	}()

	coord := newCoordinator(cfg, logger)

	// Bound the whole batch so a stuck dependency cannot hang the run
	batchCtx, batchCancel := context.WithTimeout(ctx, cfg.BatchTimeout)
	defer batchCancel()

	batch := coord.RunBatch(batchCtx, catalog)

	out, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		logger.Fatal("failed to encode batch", zap.Error(err))
	}
	fmt.Println(string(out))

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(cfg.PushgatewayURL, cfg.Environment); err != nil {
			logger.Warn("metrics push failed", zap.Error(err))
		}
	}
}

// newCoordinator wires the quote provider, price fetcher and news feed
// selected by cfg into a Coordinator.
func newCoordinator(cfg *config.Config, logger *zap.Logger) *coordinator.Coordinator {
	var provider fetcher.QuoteProvider
	switch cfg.QuoteProvider {
	case config.ProviderAlphavantage:
		provider = alphavantage.NewProvider(cfg.AlphavantageAPIKey, cfg.AlphavantageBaseURL, cfg.PriceTimeout)
	default:
		provider = yahoo.NewProvider()
	}

	prices := price.NewFetcher(provider, price.Options{
		Policy:      cfg.RetryPolicy(),
		CallTimeout: cfg.PriceTimeout,
		Lookback:    cfg.PriceLookback,
	}, logger)

	return coordinator.New(prices, news.NewFeed(cfg.News(), logger),
		coordinator.WithMaxConcurrency(cfg.MaxConcurrency),
		coordinator.WithLogger(logger))
}
