// Package metrics provides Prometheus metrics for the reelrank service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionsCancelled prometheus.Counter
	sessionsExpired   prometheus.Counter
	activeSessions    prometheus.Gauge

	// Comparison and commit flow
	comparisonsSubmitted prometheus.Counter
	commitLatency        prometheus.Histogram
	ratingsRecomputed    prometheus.Counter
	totalEntries         prometheus.Gauge

	// Aggregate-stat refresh pipeline
	refreshQueueSize prometheus.Gauge
	refreshProcessed prometheus.Counter
	refreshErrors    prometheus.Counter
	refreshDropped   prometheus.Counter
	refreshLatency   prometheus.Histogram

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsByComponent *prometheus.CounterVec

	// Process health
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "reelrank",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_started_total",
		Help:      "Total number of comparison sessions started",
	})
	m.sessionsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_completed_total",
		Help:      "Total number of sessions committed into a ranking",
	})
	m.sessionsCancelled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_cancelled_total",
		Help:      "Total number of sessions explicitly cancelled",
	})
	m.sessionsExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_expired_total",
		Help:      "Total number of sessions purged by TTL expiry",
	})
	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Comparison sessions currently held in the session store",
	})

	m.comparisonsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "comparisons_submitted_total",
		Help:      "Total number of pairwise preferences submitted",
	})
	m.commitLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "commit_latency_milliseconds",
		Help:      "Histogram of ranking commit latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.ratingsRecomputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ratings_recomputed_total",
		Help:      "Total number of entry ratings rewritten by bulk recomputation",
	})
	m.totalEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_entries",
		Help:      "Total number of ranked entries in the store",
	})

	m.refreshQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_queue_size",
		Help:      "Current size of the aggregate-stat refresh queue",
	})
	m.refreshProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_processed_total",
		Help:      "Total number of aggregate-stat refreshes delivered",
	})
	m.refreshErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_errors_total",
		Help:      "Total number of failed aggregate-stat refreshes",
	})
	m.refreshDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_dropped_total",
		Help:      "Total number of refresh jobs dropped on a full queue",
	})
	m.refreshLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_latency_milliseconds",
		Help:      "Histogram of catalog refresh latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors by component and kind",
		},
		[]string{"component", "kind"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// GetRegistry returns the registry backing the global manager, for serving
// via promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers on the global manager.

func RecordSessionStarted()   { globalManager.sessionsStarted.Inc() }
func RecordSessionCompleted() { globalManager.sessionsCompleted.Inc() }
func RecordSessionCancelled() { globalManager.sessionsCancelled.Inc() }
func RecordSessionExpired()   { globalManager.sessionsExpired.Inc() }

// UpdateActiveSessions sets the live-session gauge.
func UpdateActiveSessions(n int) { globalManager.activeSessions.Set(float64(n)) }

func RecordComparisonSubmitted() { globalManager.comparisonsSubmitted.Inc() }

// RecordCommitLatency observes one ranking commit, in milliseconds.
func RecordCommitLatency(ms float64) { globalManager.commitLatency.Observe(ms) }

// RecordRatingsRecomputed counts entries rewritten by a bulk recompute.
func RecordRatingsRecomputed(n int) { globalManager.ratingsRecomputed.Add(float64(n)) }

// UpdateTotalEntries sets the ranked-entry gauge.
func UpdateTotalEntries(n int) { globalManager.totalEntries.Set(float64(n)) }

func UpdateRefreshQueueSize(n int)  { globalManager.refreshQueueSize.Set(float64(n)) }
func RecordRefreshProcessed()       { globalManager.refreshProcessed.Inc() }
func RecordRefreshError()           { globalManager.refreshErrors.Inc() }
func RecordRefreshDropped()         { globalManager.refreshDropped.Inc() }
func RecordRefreshLatency(ms float64) { globalManager.refreshLatency.Observe(ms) }

// RecordHTTPRequest counts one request by endpoint, method and status.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByComponent counts an error by origin component and kind.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// UpdateSystemMemoryUsage sets the heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) { globalManager.systemGoroutineCount.Set(float64(n)) }
