package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// status: new, duplicate, failed
	NewsletterIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_ingested_total",
			Help: "Total number of newsletters offered for ingestion",
		},
		[]string{"source", "status"},
	)

	AIProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_provider_call_duration_seconds",
			Help:    "AI provider call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		},
		[]string{"provider", "status"},
	)

	// result: cache_hit, generated, failed
	SummaryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summary_requests_total",
			Help: "Total number of summary requests",
		},
		[]string{"result"},
	)

	FeedFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_total",
			Help: "Total number of RSS feed fetches",
		},
		[]string{"status"},
	)

	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_processed_total",
			Help: "Total number of background tasks processed",
		},
		[]string{"type", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

func RecordIngested(source, status string) {
	NewsletterIngested.WithLabelValues(source, status).Inc()
}

func RecordProviderCall(provider, status string, duration time.Duration) {
	AIProviderCallDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}

func RecordSummaryRequest(result string) {
	SummaryRequests.WithLabelValues(result).Inc()
}

func RecordFeedFetch(status string) {
	FeedFetches.WithLabelValues(status).Inc()
}

func RecordTask(taskType, status string) {
	TasksProcessed.WithLabelValues(taskType, status).Inc()
}

func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
