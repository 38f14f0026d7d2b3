// Package metrics defines the Prometheus collectors for a search session and
// exposes them for scraping.
//
// All Metrics methods are safe on a nil receiver, so components can be built
// without metrics in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors and the registry they are registered on.
type Metrics struct {
	reg *prometheus.Registry

	SearchesTotal    *prometheus.CounterVec
	FetchesTotal     *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	CacheLookups     *prometheus.CounterVec
	StaleResponses   prometheus.Counter
	StoriesDismissed prometheus.Counter
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hackerstories_searches_total",
				Help: "Searches issued by kind (submit, more, recent).",
			},
			[]string{"kind"},
		),
		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hackerstories_fetches_total",
				Help: "Repository page fetches by outcome (ok, error).",
			},
			[]string{"outcome"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hackerstories_fetch_duration_seconds",
				Help:    "Latency of repository page fetches.",
				Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hackerstories_cache_lookups_total",
				Help: "Page cache lookups by result (hit, miss).",
			},
			[]string{"result"},
		),
		StaleResponses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hackerstories_stale_responses_total",
				Help: "Pages discarded because a newer request superseded them.",
			},
		),
		StoriesDismissed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hackerstories_dismissed_total",
				Help: "Stories removed from results by the user.",
			},
		),
	}

	m.reg.MustRegister(
		m.SearchesTotal,
		m.FetchesTotal,
		m.FetchDuration,
		m.CacheLookups,
		m.StaleResponses,
		m.StoriesDismissed,
	)
	return m
}

// Handler returns the scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for gathering in tests and tools.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// SearchIssued counts a search of the given kind.
func (m *Metrics) SearchIssued(kind string) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(kind).Inc()
}

// FetchDone records one repository fetch.
func (m *Metrics) FetchDone(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// CacheLookup records a page cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// StaleDropped counts a discarded response.
func (m *Metrics) StaleDropped() {
	if m == nil {
		return
	}
	m.StaleResponses.Inc()
}

// Dismissed counts a dismissed story.
func (m *Metrics) Dismissed() {
	if m == nil {
		return
	}
	m.StoriesDismissed.Inc()
}
