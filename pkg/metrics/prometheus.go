// Package metrics provides Prometheus metrics for the appraise evaluation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the appraise service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics
	submissions          prometheus.Counter
	submissionFailures   *prometheus.CounterVec
	planEntries          *prometheus.CounterVec
	evaluatedEmployees   prometheus.Gauge
	unevaluatedEmployees prometheus.Gauge
	activeCriteria       prometheus.Gauge

	// Store Metrics
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	breakerState *prometheus.GaugeVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "appraise",
		subsystem:        "evaluation",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.submissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("submissions_total"),
		Help:        "Total number of evaluation submissions applied",
		ConstLabels: labels,
	})

	m.submissionFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("submission_failures_total"),
		Help:        "Evaluation submissions rejected, by failure kind",
		ConstLabels: labels,
	}, []string{"kind"})

	m.planEntries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("plan_entries_total"),
		Help:        "Upsert plan entries applied, split into creates and updates",
		ConstLabels: labels,
	}, []string{"op"})

	m.evaluatedEmployees = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("evaluated_employees"),
		Help:        "Employees with at least one stored score",
		ConstLabels: labels,
	})

	m.unevaluatedEmployees = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("unevaluated_employees"),
		Help:        "Employees in the directory without any stored score",
		ConstLabels: labels,
	})

	m.activeCriteria = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("active_criteria"),
		Help:        "Criteria in the last fetched snapshot",
		ConstLabels: labels,
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_latency_milliseconds"),
		Help:        "Store operation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"operation"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_errors_total"),
		Help:        "Store operation failures",
		ConstLabels: labels,
	}, []string{"operation"})

	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_breaker_state"),
		Help:        "Store circuit breaker state (0 closed, 1 half-open, 2 open)",
		ConstLabels: labels,
	}, []string{"name"})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_type_total"),
		Help:        "Errors by type and severity",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_endpoint_total"),
		Help:        "Errors by endpoint",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("error_latency_milliseconds"),
		Help:        "Latency of failed operations in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// RecordSubmission increments the applied submissions counter.
func RecordSubmission() {
	if !globalManager.enabled {
		return
	}
	globalManager.submissions.Inc()
}

// RecordSubmissionFailure counts a rejected submission by failure kind.
func RecordSubmissionFailure(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.submissionFailures.WithLabelValues(kind).Inc()
}

// RecordPlan counts the creates and updates of an applied plan.
func RecordPlan(creates, updates int) {
	if !globalManager.enabled {
		return
	}
	globalManager.planEntries.WithLabelValues("create").Add(float64(creates))
	globalManager.planEntries.WithLabelValues("update").Add(float64(updates))
}

// UpdateEvaluatedEmployees sets the evaluated employees gauge.
func UpdateEvaluatedEmployees(count int) {
	globalManager.evaluatedEmployees.Set(float64(count))
}

// UpdateUnevaluatedEmployees sets the unevaluated employees gauge.
func UpdateUnevaluatedEmployees(count int) {
	globalManager.unevaluatedEmployees.Set(float64(count))
}

// UpdateActiveCriteria sets the active criteria gauge.
func UpdateActiveCriteria(count int) {
	globalManager.activeCriteria.Set(float64(count))
}

// RecordStoreLatency records a store operation latency in milliseconds.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// UpdateBreakerState publishes a circuit breaker state.
func UpdateBreakerState(name string, state int) {
	globalManager.breakerState.WithLabelValues(name).Set(float64(state))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage updates the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval is how often gauge updaters should refresh m's gauges.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// RefreshInterval is the gauge refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

// GetRegistry returns the custom registry the global metrics live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
