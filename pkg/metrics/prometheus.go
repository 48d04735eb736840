package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Reports
	reportsBuilt     prometheus.Counter
	reportsFailed    prometheus.Counter
	reportsStale     prometheus.Counter
	batchesDuplicate prometheus.Counter
	batchesRejected  *prometheus.CounterVec
	buildLatency     prometheus.Histogram
	cohortSize       prometheus.Gauge
	batchRows        prometheus.Histogram

	// Repository
	repositoryReports         prometheus.Gauge
	repositorySnapshotBuildMs prometheus.Histogram
	repositoryQueryLatency    prometheus.Histogram
	leaderboardQueries        *prometheus.CounterVec

	// Queue
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "spd",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.reportsBuilt = m.counter("reports_built_total", "Total number of reports built and published")
	m.reportsFailed = m.counter("reports_failed_total", "Total number of batches whose report could not be built")
	m.reportsStale = m.counter("reports_stale_total", "Reports that arrived after a newer one was already latest")
	m.batchesDuplicate = m.counter("batches_duplicate_total", "Batches resubmitted with identical content")
	m.batchesRejected = m.counterVec("batches_rejected_total", "Batches rejected before scoring", "reason")
	m.buildLatency = m.histogram("build_latency_milliseconds", "Time to build one report in milliseconds", m.histogramBuckets)
	m.cohortSize = m.gauge("cohort_size", "Number of people in the latest report")
	m.batchRows = m.histogram("batch_rows", "Rows per accepted batch", prometheus.ExponentialBuckets(1, 4, 8))

	m.repositoryReports = m.gauge("repository_reports", "Reports held in the repository history")
	m.repositorySnapshotBuildMs = m.histogram("repository_snapshot_build_duration_milliseconds",
		"Time to precompute leaderboard snapshots at publish", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Repository read latency in milliseconds", m.histogramBuckets)
	m.leaderboardQueries = m.counterVec("leaderboard_queries_total", "Leaderboard reads by score kind", "score")

	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued batches")
	m.queueSize = m.gauge("queue_size", "Current number of queued batches")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Batches enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Batches dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Batches that could not be enqueued")

	m.workerCount = m.gauge("worker_count", "Configured number of workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently building a report")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time from dequeue to publish in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Worker failures")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// Report metrics.

// RecordReportBuilt counts a published report and records its build time and size.
func RecordReportBuilt(latencyMs float64, users int) {
	globalManager.reportsBuilt.Inc()
	globalManager.buildLatency.Observe(latencyMs)
	globalManager.cohortSize.Set(float64(users))
}

// RecordReportFailed counts a batch that could not be turned into a report.
func RecordReportFailed() {
	globalManager.reportsFailed.Inc()
}

// RecordReportStale counts a report that lost the race to a newer one.
func RecordReportStale() {
	globalManager.reportsStale.Inc()
}

// RecordBatchDuplicate counts a resubmitted batch.
func RecordBatchDuplicate() {
	globalManager.batchesDuplicate.Inc()
}

// RecordBatchRejected counts a batch refused before scoring.
func RecordBatchRejected(reason string) {
	globalManager.batchesRejected.WithLabelValues(reason).Inc()
}

// RecordBatchRows observes the size of an accepted batch.
func RecordBatchRows(rows int) {
	globalManager.batchRows.Observe(float64(rows))
}

// Repository metrics.

// UpdateRepositoryReports sets the number of reports held.
func UpdateRepositoryReports(count int) {
	globalManager.repositoryReports.Set(float64(count))
}

// RecordRepositorySnapshotBuild records the time spent precomputing snapshots.
func RecordRepositorySnapshotBuild(durationMs float64) {
	globalManager.repositorySnapshotBuildMs.Observe(durationMs)
}

// RecordRepositoryQueryLatency records repository read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordLeaderboardQuery counts a leaderboard read for a score kind.
func RecordLeaderboardQuery(score string) {
	globalManager.leaderboardQueries.WithLabelValues(score).Inc()
}

// Queue metrics.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size and derived utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker metrics.

// UpdateWorkerCount sets the configured number of workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive adjusts the number of busy workers by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP metrics.

// RecordHTTPRequest counts a request and records its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics.

// SampleSystem refreshes the memory and goroutine gauges.
func SampleSystem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemoryUsage.Set(float64(ms.Alloc))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
