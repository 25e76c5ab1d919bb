// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

// Package metrics provides Prometheus instrumentation for Novelrec.
//
// Collectors cover the offline compute passes (durations, rows written,
// skips and failures per algorithm), the DuckDB storage layer, and the
// read-path API. Everything registers through promauto on the default
// registry and is exposed at /metrics in serve mode.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Compute pass metrics. The "algorithm" label is "item_cf" or
	// "content", matching the similarity cache tags.
	PassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novelrec_pass_duration_seconds",
			Help:    "Duration of offline compute passes in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"algorithm"},
	)

	PassRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelrec_pass_runs_total",
			Help: "Total compute pass runs by outcome (ok, skipped, failed)",
		},
		[]string{"algorithm", "outcome"},
	)

	SimilarityRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelrec_similarity_rows_written_total",
			Help: "Similarity rows written to the cache per pass",
		},
		[]string{"algorithm"},
	)

	RecommendationRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelrec_recommendation_rows_written_total",
			Help: "Recommendation rows written to the cache per pass",
		},
		[]string{"algorithm"},
	)

	UsersScored = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "novelrec_users_scored",
			Help: "Users scored in the most recent compute pass",
		},
		[]string{"algorithm"},
	)

	MatrixDimensions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "novelrec_matrix_dimensions",
			Help: "User-item matrix dimensions after filtering (axis: users, novels)",
		},
		[]string{"axis"},
	)

	VocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "novelrec_vocabulary_terms",
			Help: "Vocabulary size of the most recent text vectorization",
		},
	)

	// Database metrics.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novelrec_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelrec_duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API metrics.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novelrec_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelrec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Fallbacks on the read path: personalized requests answered from
	// popularity, similar requests answered from category popularity.
	ResolverFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novelrec_resolver_fallbacks_total",
			Help: "Read-path requests answered by a fallback strategy",
		},
		[]string{"surface"},
	)
)

// Pass outcome label values for PassRuns.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// RecordPass records the outcome and duration of a compute pass.
func RecordPass(algorithm, outcome string, duration time.Duration) {
	PassRuns.WithLabelValues(algorithm, outcome).Inc()
	PassDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records latency and count for an API request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	APIRequestDuration.WithLabelValues(method, endpoint, code).Observe(duration.Seconds())
	APIRequestsTotal.WithLabelValues(method, endpoint, code).Inc()
}
