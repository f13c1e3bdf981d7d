package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "marketpulse_ingestion"

var (
	// Terminal outcomes of individual fetches.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_fetch_total",
			Help: "Total number of fetches by action and terminal status.",
		},
		[]string{"action", "status"},
	)

	// Attempts spent per fetch, including the successful one.
	FetchAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpulse_fetch_attempts",
			Help:    "Number of attempts made per fetch.",
			Buckets: []float64{1, 2, 3, 5},
		},
		[]string{"action"},
	)

	// Wall time per fetch, retries and backoff included.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpulse_fetch_duration_seconds",
			Help:    "Duration of fetches in seconds, retries included.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms → ~80s
		},
		[]string{"action"},
	)

	BatchRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_batch_records_total",
			Help: "Records produced by batch runs, by price and headline presence.",
		},
		[]string{"price", "headline"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketpulse_batch_duration_seconds",
			Help:    "Duration of complete batch runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
)

// ObserveFetch records one terminal fetch outcome.
func ObserveFetch(action, status string, attempts int, start time.Time) {
	FetchTotal.WithLabelValues(action, status).Inc()
	FetchAttempts.WithLabelValues(action).Observe(float64(attempts))
	FetchDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}

// ObserveRecord records the shape of one batch record.
func ObserveRecord(hasPrice, hasHeadline bool) {
	BatchRecords.WithLabelValues(presence(hasPrice), presence(hasHeadline)).Inc()
}

// ObserveBatch records the duration of a batch run.
func ObserveBatch(start time.Time) {
	BatchDuration.Observe(time.Since(start).Seconds())
}

// Push sends the default registry to a Prometheus Pushgateway.
// Batch runs are short-lived, so metrics are pushed rather than scraped.
func Push(url, instance string) error {
	pusher := push.New(url, jobName).Gatherer(prometheus.DefaultGatherer)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}
