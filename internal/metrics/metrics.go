// Package metrics defines the Prometheus instrumentation for the
// submission client, relay and ingest consumer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submission client metrics
	EventsCaptured = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_client_events_captured_total",
			Help: "Total number of events accepted by the submission client",
		},
	)

	CaptureSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_client_capture_suppressed_total",
			Help: "Captures refused because the context was marked as pipeline-internal",
		},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_client_events_dropped_total",
			Help: "Events dropped before reaching the relay",
		},
		[]string{"reason"},
	)

	EnvelopesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_client_envelopes_sent_total",
			Help: "Envelopes successfully handed to the relay",
		},
	)

	SendRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_client_send_retries_total",
			Help: "Transient send failures that were retried",
		},
	)

	FlushTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_client_flush_timeouts_total",
			Help: "Flush calls that returned before a full drain",
		},
	)

	// Relay intake metrics
	RelayEnvelopesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_relay_envelopes_total",
			Help: "Envelopes received by the relay intake",
		},
		[]string{"status"},
	)

	RelayPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faultline_relay_publish_duration_seconds",
			Help:    "Duration of queue publishes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Ingest consumer metrics
	ConsumerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_consumer_messages_total",
			Help: "Messages processed by the ingest consumer, by outcome",
		},
		[]string{"outcome"},
	)

	EnvelopesMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_consumer_envelopes_malformed_total",
			Help: "Envelopes dropped because they could not be decoded",
		},
	)

	ClaimsDuplicate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_consumer_claims_duplicate_total",
			Help: "Deliveries skipped because the cache key was already claimed",
		},
	)

	SaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_consumer_save_failures_total",
			Help: "Persistence attempts that failed",
		},
	)

	SaveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faultline_consumer_save_duration_seconds",
			Help:    "Duration of event persistence in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
