// Package metrics holds the Prometheus collectors for the extraction
// pipeline, the ingest service and the review API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EmailsClassified counts classified emails by outcome (kept, discarded).
	EmailsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelmail_emails_classified_total",
			Help: "Emails classified, by outcome",
		},
		[]string{"outcome"},
	)

	// RecordsByCategory counts surfaced records by winning category.
	RecordsByCategory = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelmail_records_total",
			Help: "Surfaced travel records, by category",
		},
		[]string{"category"},
	)

	// RecordConfidence tracks the final confidence of surfaced records.
	RecordConfidence = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelmail_record_confidence",
			Help:    "Final confidence of surfaced records",
			Buckets: prometheus.LinearBuckets(0.2, 0.1, 9),
		},
		[]string{"category"},
	)

	// ValidationIssues counts consistency issues found by the validator.
	ValidationIssues = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "travelmail_validation_issues_total",
			Help: "Consistency issues found in extracted records",
		},
	)

	// RecordsMerged counts records folded into an existing trip.
	RecordsMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "travelmail_records_merged_total",
			Help: "Records merged into an equivalent trip",
		},
	)

	// RoundTripSuggestions counts round-trip suggestions by decision.
	RoundTripSuggestions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelmail_roundtrip_suggestions_total",
			Help: "Round-trip suggestions, by decision (suggested, accepted, rejected)",
		},
		[]string{"decision"},
	)

	// BatchDuration tracks pipeline batch latency in seconds.
	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelmail_batch_duration_seconds",
			Help:    "Pipeline batch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"source"},
	)

	// IngestMessages counts bus messages by status (decoded, duplicate, invalid, published).
	IngestMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelmail_ingest_messages_total",
			Help: "Ingest bus messages, by status",
		},
		[]string{"status"},
	)

	// DBQueryDuration tracks storage call latency in seconds.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelmail_db_query_duration_seconds",
			Help:    "Storage query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"store", "operation"},
	)

	// HTTPRequestDuration tracks review API latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelmail_http_request_duration_seconds",
			Help:    "Review API request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route", "status"},
	)
)

// RecordClassification counts one classified email.
func RecordClassification(kept bool, category string, confidence float64) {
	if !kept {
		EmailsClassified.WithLabelValues("discarded").Inc()
		return
	}
	if category == "" {
		category = "none"
	}
	EmailsClassified.WithLabelValues("kept").Inc()
	RecordsByCategory.WithLabelValues(category).Inc()
	RecordConfidence.WithLabelValues(category).Observe(confidence)
}

// RecordValidationIssues adds n issues.
func RecordValidationIssues(n int) {
	if n > 0 {
		ValidationIssues.Add(float64(n))
	}
}

// RecordMerges adds n merged records.
func RecordMerges(n int) {
	if n > 0 {
		RecordsMerged.Add(float64(n))
	}
}

// RecordRoundTrip counts a round-trip suggestion event.
func RecordRoundTrip(decision string) {
	RoundTripSuggestions.WithLabelValues(decision).Inc()
}

// RecordBatchDuration observes one pipeline batch.
func RecordBatchDuration(source string, d time.Duration) {
	BatchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// IncrementIngest counts an ingest message by status.
func IncrementIngest(status string) {
	IngestMessages.WithLabelValues(status).Inc()
}

// RecordDBQueryDuration observes one storage call.
func RecordDBQueryDuration(store, operation string, d time.Duration) {
	DBQueryDuration.WithLabelValues(store, operation).Observe(d.Seconds())
}

// RecordHTTPRequestDuration observes one API request.
func RecordHTTPRequestDuration(method, route, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
