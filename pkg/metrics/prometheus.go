// Package metrics provides Prometheus metrics for dltscope acquisition runs,
// analyses and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by dltscope.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Parsing
	rowsParsed  *prometheus.CounterVec
	rowsSkipped *prometheus.CounterVec

	// Acquisition
	itemsCaptured       *prometheus.CounterVec
	itemsFailed         *prometheus.CounterVec
	navigationRetries   *prometheus.CounterVec
	rounds              *prometheus.CounterVec
	acquisitionOutcomes *prometheus.CounterVec
	acquisitionDuration *prometheus.HistogramVec
	duplicatesSkipped   *prometheus.CounterVec

	// Upstream fetches and the tabular cache
	fetchRequests *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec

	// Scoring
	predictions prometheus.Counter

	// HTTP API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dltscope",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.rowsParsed = m.counterVec("rows_parsed_total",
		"Rows or pages turned into records", "kind")
	m.rowsSkipped = m.counterVec("rows_skipped_total",
		"Rows dropped by the record parser", "kind", "reason")

	m.itemsCaptured = m.counterVec("items_captured_total",
		"Items committed to an acquisition buffer", "source")
	m.itemsFailed = m.counterVec("items_failed_total",
		"Items abandoned during acquisition", "source", "stage")
	m.navigationRetries = m.counterVec("navigation_fallbacks_total",
		"Navigation steps that needed their fallback locator", "step")
	m.rounds = m.counterVec("rounds_total",
		"Acquisition rounds started", "source")
	m.acquisitionOutcomes = m.counterVec("acquisition_outcomes_total",
		"Acquisition runs by terminal outcome", "source", "outcome")
	m.acquisitionDuration = m.histogramVec("acquisition_duration_seconds",
		"Wall time of acquisition runs", "source")
	m.duplicatesSkipped = m.counterVec("duplicates_skipped_total",
		"Items skipped because their identity was already captured", "source")

	m.fetchRequests = m.counterVec("fetch_requests_total",
		"Upstream fetches by target and status", "target", "status")
	m.fetchDuration = m.histogramVec("fetch_duration_seconds",
		"Upstream fetch latency", "target")
	m.cacheLookups = m.counterVec("cache_lookups_total",
		"Tabular cache lookups by result", "store", "result")

	m.predictions = promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Candidate selections produced by the scoring engine",
	})

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds",
		"Latency of operations that resulted in errors", "component", "error_type")
}

// RecordRowParsed counts one record produced by a parser of the given kind.
func RecordRowParsed(kind string) {
	globalManager.rowsParsed.WithLabelValues(kind).Inc()
}

// RecordRowSkipped counts a row dropped by a parser.
func RecordRowSkipped(kind, reason string) {
	globalManager.rowsSkipped.WithLabelValues(kind, reason).Inc()
}

// RecordItemCaptured counts an item committed by the orchestrator.
func RecordItemCaptured(source string) {
	globalManager.itemsCaptured.WithLabelValues(source).Inc()
}

// RecordItemFailed counts an item abandoned at the given stage.
func RecordItemFailed(source, stage string) {
	globalManager.itemsFailed.WithLabelValues(source, stage).Inc()
}

// RecordNavigationFallback counts a step that fell back to its secondary locator.
func RecordNavigationFallback(step string) {
	globalManager.navigationRetries.WithLabelValues(step).Inc()
}

// RecordRound counts one acquisition round.
func RecordRound(source string) {
	globalManager.rounds.WithLabelValues(source).Inc()
}

// RecordDuplicate counts an item skipped by the dedup set.
func RecordDuplicate(source string) {
	globalManager.duplicatesSkipped.WithLabelValues(source).Inc()
}

// RecordAcquisition records the outcome and duration of one acquisition run.
func RecordAcquisition(source, outcome string, seconds float64) {
	globalManager.acquisitionOutcomes.WithLabelValues(source, outcome).Inc()
	globalManager.acquisitionDuration.WithLabelValues(source).Observe(seconds)
}

// RecordFetch records an upstream fetch.
func RecordFetch(target, status string, seconds float64) {
	globalManager.fetchRequests.WithLabelValues(target, status).Inc()
	globalManager.fetchDuration.WithLabelValues(target).Observe(seconds)
}

// RecordCacheLookup records whether a tabular cache could serve a request.
func RecordCacheLookup(store, result string) {
	globalManager.cacheLookups.WithLabelValues(store, result).Inc()
}

// RecordPrediction counts one front/back selection.
func RecordPrediction() {
	globalManager.predictions.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
