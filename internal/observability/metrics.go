// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Stream metrics
	StreamMessages     *prometheus.CounterVec
	StreamState        prometheus.Gauge
	StreamReconnects   prometheus.Counter
	StreamBufferLength prometheus.Gauge

	// Discovery metrics
	CandidatesDiscovered *prometheus.CounterVec
	PollsTotal           *prometheus.CounterVec

	// Fetch metrics
	FetchLatency  *prometheus.HistogramVec
	FetchFailures *prometheus.CounterVec
	FetchRetries  *prometheus.CounterVec

	// Enrichment metrics
	EnrichmentResults *prometheus.CounterVec

	// Scan metrics
	ScansTotal     *prometheus.CounterVec
	ScanDuration   prometheus.Histogram
	TokensReturned prometheus.Gauge
	CacheLookups   *prometheus.CounterVec

	// Storage metrics
	RecallSize    prometheus.Gauge
	StorageErrors *prometheus.CounterVec
	KpFallbacks   prometheus.Counter
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "token_radar"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Stream metrics
		StreamMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "messages_total",
			Help:      "Total number of push-feed messages by outcome",
		}, []string{"outcome"}),
		StreamState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "state",
			Help:      "Current feed state (0=disconnected, 1=connecting, 2=subscribed)",
		}),
		StreamReconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Total number of feed reconnect attempts",
		}),
		StreamBufferLength: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "buffer_length",
			Help:      "Current number of candidates held in the ring buffer",
		}),

		// Discovery metrics
		CandidatesDiscovered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "candidates_total",
			Help:      "Total number of candidates emitted by the aggregator by origin",
		}, []string{"origin"}),
		PollsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "polls_total",
			Help:      "Total number of listing polls by status",
		}, []string{"status"}),

		// Fetch metrics
		FetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "latency_seconds",
			Help:      "Upstream fetch latency in seconds, including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "failures_total",
			Help:      "Total number of fetches that returned no data",
		}, []string{"host", "reason"}),
		FetchRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Total number of retry attempts",
		}, []string{"host"}),

		// Enrichment metrics
		EnrichmentResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "results_total",
			Help:      "Total number of enrichment outcomes",
		}, []string{"outcome"}),

		// Scan metrics
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		TokensReturned: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tokens_returned",
			Help:      "Number of tokens in the most recent scan result",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of cache lookups by result",
		}, []string{"result"}),

		// Storage metrics
		RecallSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "recall_entries",
			Help:      "Number of entries in the recall store after the last merge",
		}),
		StorageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Total number of storage errors by store and operation",
		}, []string{"store", "operation"}),
		KpFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cosmic",
			Name:      "kp_fallbacks_total",
			Help:      "Total number of times the static Kp fallback was used",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordStreamMessage counts a feed message by outcome (accepted, malformed, ignored).
func RecordStreamMessage(outcome string) {
	DefaultMetrics.StreamMessages.WithLabelValues(outcome).Inc()
}

// SetStreamState updates the feed state gauge.
func SetStreamState(state int) {
	DefaultMetrics.StreamState.Set(float64(state))
}

// RecordStreamReconnect increments the reconnect counter.
func RecordStreamReconnect() {
	DefaultMetrics.StreamReconnects.Inc()
}

// SetStreamBufferLength updates the ring buffer gauge.
func SetStreamBufferLength(n int) {
	DefaultMetrics.StreamBufferLength.Set(float64(n))
}

// RecordCandidates counts emitted candidates by origin.
func RecordCandidates(origin string, n int) {
	DefaultMetrics.CandidatesDiscovered.WithLabelValues(origin).Add(float64(n))
}

// RecordPoll records a listing poll.
func RecordPoll(status string) {
	DefaultMetrics.PollsTotal.WithLabelValues(status).Inc()
}

// RecordFetch records fetch latency and, when reason is non-empty, a failure.
func RecordFetch(host string, seconds float64, reason string) {
	DefaultMetrics.FetchLatency.WithLabelValues(host).Observe(seconds)
	if reason != "" {
		DefaultMetrics.FetchFailures.WithLabelValues(host, reason).Inc()
	}
}

// RecordFetchRetry increments the retry counter for host.
func RecordFetchRetry(host string) {
	DefaultMetrics.FetchRetries.WithLabelValues(host).Inc()
}

// RecordEnrichment counts an enrichment outcome (enriched, empty, failed, skipped, synthetic).
func RecordEnrichment(outcome string) {
	DefaultMetrics.EnrichmentResults.WithLabelValues(outcome).Inc()
}

// RecordScan records a pipeline run.
func RecordScan(status string, durationSeconds float64, tokens int) {
	DefaultMetrics.ScansTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ScanDuration.Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.TokensReturned.Set(float64(tokens))
	}
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(result string) {
	DefaultMetrics.CacheLookups.WithLabelValues(result).Inc()
}

// SetRecallSize updates the recall size gauge.
func SetRecallSize(n int) {
	DefaultMetrics.RecallSize.Set(float64(n))
}

// RecordStorageError records a storage failure.
func RecordStorageError(store, operation string) {
	DefaultMetrics.StorageErrors.WithLabelValues(store, operation).Inc()
}

// RecordKpFallback increments the Kp fallback counter.
func RecordKpFallback() {
	DefaultMetrics.KpFallbacks.Inc()
}
