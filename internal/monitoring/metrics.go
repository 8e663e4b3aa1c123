// internal/monitoring/metrics.go

// Package monitoring exposes Prometheus metrics and health reporting for
// the review harvester server.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reviewharvest"

// Metrics holds the Prometheus instruments for scrape runs
type Metrics struct {
	registry *prometheus.Registry

	// Scraping metrics
	pagesScraped     *prometheus.CounterVec
	reviewsExtracted *prometheus.CounterVec
	urlErrors        *prometheus.CounterVec

	// Normalization metrics
	dateParseFailures prometheus.Counter

	// Run metrics
	runsActive  prometheus.Gauge
	runDuration prometheus.Histogram
}

// NewMetrics creates and registers the instrument set on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		pagesScraped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_scraped_total",
			Help:      "Review pages snapshotted, by retailer",
		}, []string{"retailer"}),
		reviewsExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_extracted_total",
			Help:      "Unique reviews extracted, by retailer",
		}, []string{"retailer"}),
		urlErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "url_errors_total",
			Help:      "Product URLs that failed and were skipped, by retailer",
		}, []string{"retailer"}),
		dateParseFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "date_parse_failures_total",
			Help:      "Raw review dates no cascade stage could parse",
		}),
		runsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Scrape runs currently in progress",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of complete scrape runs",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// PageScraped records one DOM snapshot processed
func (m *Metrics) PageScraped(retailer string) {
	m.pagesScraped.WithLabelValues(retailer).Inc()
}

// ReviewsExtracted records unique reviews collected for a product
func (m *Metrics) ReviewsExtracted(retailer string, count int) {
	m.reviewsExtracted.WithLabelValues(retailer).Add(float64(count))
}

// URLError records a skipped product URL
func (m *Metrics) URLError(retailer string) {
	m.urlErrors.WithLabelValues(retailer).Inc()
}

// DateParseFailure records a raw date the normalizer gave up on
func (m *Metrics) DateParseFailure() {
	m.dateParseFailures.Inc()
}

// RunStarted marks a run in progress and returns a completion callback
func (m *Metrics) RunStarted() func() {
	m.runsActive.Inc()
	start := time.Now()
	return func() {
		m.runsActive.Dec()
		m.runDuration.Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
