// Package metrics defines the Prometheus collectors of the index service and
// the HTTP server that exposes them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query kinds used as the "kind" label.
const (
	KindIDs     = "ids"
	KindPlain   = "plain"
	KindOptions = "options"
	KindFuzzy   = "fuzzy"
	KindSuggest = "suggest"
)

// Metrics holds the collectors for index builds, queries, the query cache,
// ingestion and snapshots.
type Metrics struct {
	BuildsTotal        *prometheus.CounterVec
	BuildDuration      prometheus.Histogram
	Documents          prometheus.Gauge
	StagedDocuments    prometheus.Gauge
	Terms              prometheus.Gauge
	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount *prometheus.HistogramVec
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	IngestEventsTotal  *prometheus.CounterVec
	SnapshotsTotal     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textsearch_builds_total",
				Help: "Dictionary builds by trigger (build, update, remove, load).",
			},
			[]string{"trigger"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "textsearch_build_duration_seconds",
				Help:    "Time spent building the term dictionary.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
		Documents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "textsearch_documents",
				Help: "Documents in the built store.",
			},
		),
		StagedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "textsearch_staged_documents",
				Help: "Documents waiting for the next build.",
			},
		),
		Terms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "textsearch_terms",
				Help: "Distinct terms in the dictionary.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textsearch_search_queries_total",
				Help: "Queries by kind (ids, plain, options, fuzzy, suggest).",
			},
			[]string{"kind"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "textsearch_search_latency_seconds",
				Help:    "Query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"kind"},
		),
		SearchResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "textsearch_search_results_count",
				Help:    "Number of results returned per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
			[]string{"kind"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "textsearch_cache_hits_total",
				Help: "Scored queries answered from the cache.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "textsearch_cache_misses_total",
				Help: "Scored queries computed against the index.",
			},
		),
		IngestEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textsearch_ingest_events_total",
				Help: "Ingest events by operation and outcome.",
			},
			[]string{"op", "status"},
		),
		SnapshotsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textsearch_snapshots_total",
				Help: "Snapshot writes by status.",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.BuildsTotal,
		m.BuildDuration,
		m.Documents,
		m.StagedDocuments,
		m.Terms,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.IngestEventsTotal,
		m.SnapshotsTotal,
	)
	return m
}

// Handler returns the scrape handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
