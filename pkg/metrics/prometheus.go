// Package metrics provides Prometheus metrics for the kickscore service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets cover sub-millisecond scoring up to slow database reads.
var defaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // immutable defaults

// Manager owns all Prometheus collectors of the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	constLabels    prometheus.Labels
	registry       prometheus.Registerer

	// Scoring
	stationScores    *prometheus.CounterVec
	scoreMapLoads    *prometheus.CounterVec
	performanceBuild prometheus.Histogram
	playersScored    prometheus.Counter

	// Capture
	measurementsRecorded  prometheus.Counter
	measurementsDuplicate prometheus.Counter

	// Refresh pipeline
	refreshQueueSize prometheus.Gauge
	refreshJobs      *prometheus.CounterVec
	refreshLatency   prometheus.Histogram
	workerCount      prometheus.Gauge

	// Live updates
	liveClients  prometheus.Gauge
	liveMessages *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "kickscore",
		subsystem:      "",
		latencyBuckets: defaultLatencyBuckets,
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.latencyBuckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.stationScores = auto.NewCounterVec(
		m.counterOpts("station_scores_total", "Station scores computed, by station kind and scoring method"),
		[]string{"kind", "method"},
	)
	m.scoreMapLoads = auto.NewCounterVec(
		m.counterOpts("score_map_loads_total", "Score table lookups by table and outcome (loaded, absent, empty, error, cache_hit)"),
		[]string{"table", "outcome"},
	)
	m.performanceBuild = auto.NewHistogram(
		m.histogramOpts("performance_build_milliseconds", "Time to build all player performances of a project"),
	)
	m.playersScored = auto.NewCounter(
		m.counterOpts("players_scored_total", "Player performance entries built"),
	)

	m.measurementsRecorded = auto.NewCounter(
		m.counterOpts("measurements_recorded_total", "Measurements accepted and stored"),
	)
	m.measurementsDuplicate = auto.NewCounter(
		m.counterOpts("measurements_duplicate_total", "Measurement submissions rejected as already seen"),
	)

	m.refreshQueueSize = auto.NewGauge(
		m.gaugeOpts("refresh_queue_size", "Pending project refresh jobs"),
	)
	m.refreshJobs = auto.NewCounterVec(
		m.counterOpts("refresh_jobs_total", "Project refresh jobs by outcome"),
		[]string{"outcome"},
	)
	m.refreshLatency = auto.NewHistogram(
		m.histogramOpts("refresh_latency_milliseconds", "Time from enqueue to finished refresh"),
	)
	m.workerCount = auto.NewGauge(
		m.gaugeOpts("worker_count", "Refresh workers running"),
	)

	m.liveClients = auto.NewGauge(
		m.gaugeOpts("live_clients", "Connected live leaderboard clients"),
	)
	m.liveMessages = auto.NewCounterVec(
		m.counterOpts("live_messages_total", "Live update messages by outcome (sent, dropped)"),
		[]string{"outcome"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by route, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_bytes", "Allocated heap bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutines", "Running goroutines"),
	)
}

// RecordStationScore counts one computed station score.
func RecordStationScore(kind, method string) {
	globalManager.stationScores.WithLabelValues(kind, method).Inc()
}

// RecordScoreMapLoad counts one score table lookup.
func RecordScoreMapLoad(table, outcome string) {
	globalManager.scoreMapLoads.WithLabelValues(table, outcome).Inc()
}

// RecordPerformanceBuild records a project build of n players.
func RecordPerformanceBuild(players int, latencyMs float64) {
	globalManager.performanceBuild.Observe(latencyMs)
	if players > 0 {
		globalManager.playersScored.Add(float64(players))
	}
}

// RecordMeasurement counts a stored measurement.
func RecordMeasurement() {
	globalManager.measurementsRecorded.Inc()
}

// RecordMeasurementDuplicate counts a duplicate submission.
func RecordMeasurementDuplicate() {
	globalManager.measurementsDuplicate.Inc()
}

// UpdateRefreshQueueSize sets the pending refresh job count.
func UpdateRefreshQueueSize(size int) {
	globalManager.refreshQueueSize.Set(float64(size))
}

// RecordRefreshJob counts a finished refresh job.
func RecordRefreshJob(outcome string, latencyMs float64) {
	globalManager.refreshJobs.WithLabelValues(outcome).Inc()
	globalManager.refreshLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the running worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateLiveClients sets the connected live client count.
func UpdateLiveClients(count int) {
	globalManager.liveClients.Set(float64(count))
}

// RecordLiveMessage counts a live message delivery attempt.
func RecordLiveMessage(outcome string) {
	globalManager.liveMessages.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest counts a request and observes its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
