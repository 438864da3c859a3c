// Package metrics exposes Prometheus collectors for indexer runs.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Section outcomes.
const (
	SectionAdded          = "added"
	SectionTransportError = "transport_error"
	SectionParseError     = "parse_error"
	SectionDuplicate      = "duplicate"
)

var (
	indexerLinksDiscoveredTotal prometheus.Counter
	indexerSectionsTotal        *prometheus.CounterVec
	indexerFetchDurationSeconds *prometheus.HistogramVec
	indexerCatalogRecords       prometheus.Gauge
	indexerRunsTotal            *prometheus.CounterVec
	indexerLastRunSeconds       prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		indexerLinksDiscoveredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "indexer_links_discovered_total",
				Help: "Total number of new recording links found on the index page.",
			},
		)

		indexerSectionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indexer_sections_total",
				Help: "Total number of section documents processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		indexerFetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "indexer_fetch_duration_seconds",
				Help:    "Histogram of fetch latencies, labeled by document kind.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
			[]string{"kind"},
		)

		indexerCatalogRecords = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "indexer_catalog_records",
				Help: "Number of records in the catalog after the last run.",
			},
		)

		indexerRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indexer_runs_total",
				Help: "Total number of indexer runs, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		indexerLastRunSeconds = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "indexer_last_run_duration_seconds",
				Help: "Wall time of the most recent run.",
			},
		)
	})
}

// ObserveDiscovered adds n newly discovered links.
func ObserveDiscovered(n int) {
	indexerLinksDiscoveredTotal.Add(float64(n))
}

// ObserveSection increments the section counter for outcome.
func ObserveSection(outcome string) {
	indexerSectionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records the latency of one fetch of the given kind ("index" or "section").
func ObserveFetch(kind string, d time.Duration) {
	indexerFetchDurationSeconds.WithLabelValues(kind).Observe(d.Seconds())
}

// SetCatalogRecords sets the catalog size gauge.
func SetCatalogRecords(n int) {
	indexerCatalogRecords.Set(float64(n))
}

// ObserveRun records a finished run.
func ObserveRun(outcome string, d time.Duration) {
	indexerRunsTotal.WithLabelValues(outcome).Inc()
	indexerLastRunSeconds.Set(d.Seconds())
}

// Push sends the default registry to a Prometheus Pushgateway. Batch runs
// exit before any scrape could happen, so this is how their metrics leave
// the process.
func Push(ctx context.Context, gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
