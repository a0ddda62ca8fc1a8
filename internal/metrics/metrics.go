// Package metrics collects and exposes Prometheus metrics for the pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates pipeline counters. A nil *Collector is safe to record
// against, so callers never need to branch on whether metrics are enabled.
type Collector struct {
	fetchSuccess     prometheus.Counter
	fetchFail        prometheus.Counter
	fetchNotModified prometheus.Counter
	fetchLatency     prometheus.Histogram
	episodesNew      prometheus.Counter
	downloadSuccess  prometheus.Counter
	downloadFail     prometheus.Counter
	reclaimed        prometheus.Counter
}

// NewCollector registers the pipeline metrics with the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podpull_fetch_success_total",
			Help: "Feed fetches that completed successfully.",
		}),
		fetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podpull_fetch_fail_total",
			Help: "Feed fetches that failed.",
		}),
		fetchNotModified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podpull_fetch_not_modified_total",
			Help: "Feed fetches short-circuited by a 304 response.",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "podpull_fetch_latency_seconds",
			Help:    "Latency of feed fetches in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		episodesNew: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podpull_episodes_discovered_total",
			Help: "Newly discovered episodes.",
		}),
		downloadSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podpull_download_success_total",
			Help: "Episode downloads that completed successfully.",
		}),
		downloadFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podpull_download_fail_total",
			Help: "Episode downloads that failed.",
		}),
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podpull_claims_reclaimed_total",
			Help: "Stale download claims swept back to discovered.",
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.fetchNotModified,
		c.fetchLatency,
		c.episodesNew,
		c.downloadSuccess,
		c.downloadFail,
		c.reclaimed,
	)

	return c
}

// RecordFetch records one feed fetch outcome.
func (c *Collector) RecordFetch(notModified bool, failed bool, elapsed time.Duration) {
	if c == nil {
		return
	}
	switch {
	case failed:
		c.fetchFail.Inc()
	case notModified:
		c.fetchNotModified.Inc()
	default:
		c.fetchSuccess.Inc()
	}
	c.fetchLatency.Observe(elapsed.Seconds())
}

// RecordDiscovered adds newly discovered episodes.
func (c *Collector) RecordDiscovered(count int) {
	if c == nil {
		return
	}
	c.episodesNew.Add(float64(count))
}

// RecordDownloads records a download run's outcome counts.
func (c *Collector) RecordDownloads(succeeded, failed int) {
	if c == nil {
		return
	}
	c.downloadSuccess.Add(float64(succeeded))
	c.downloadFail.Add(float64(failed))
}

// RecordReclaimed adds stale claims swept back to discovered.
func (c *Collector) RecordReclaimed(count int64) {
	if c == nil {
		return
	}
	c.reclaimed.Add(float64(count))
}

// Handler returns the HTTP handler serving Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
