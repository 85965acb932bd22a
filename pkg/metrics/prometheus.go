// Package metrics provides Prometheus metrics for the battrend engine and its service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default buckets. Engine latencies are observed in milliseconds, HTTP and
// batch durations in seconds.
var (
	defaultLatencyBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000}
	defaultSecondsBuckets = prometheus.DefBuckets
)

// Manager manages all Prometheus metrics for the battrend service.
type Manager struct {
	namespace      string
	subsystem      string
	prefix         string
	latencyBuckets []float64
	secondsBuckets []float64
	constLabels    prometheus.Labels
	enabled        bool
	registry       prometheus.Registerer

	// Engine Metrics - what each evaluation produced
	reportsGenerated  prometheus.Counter
	reportFailures    *prometheus.CounterVec
	signalsEmitted    *prometheus.CounterVec
	signalsSuppressed *prometheus.CounterVec
	recommendations   *prometheus.CounterVec
	confidence        *prometheus.CounterVec
	baselineFallbacks prometheus.Counter
	evaluationLatency prometheus.Histogram

	// Batch Metrics - multi-player scans
	batchRuns     prometheus.Counter
	batchSize     prometheus.Gauge
	batchLatency  prometheus.Histogram
	digestEntries *prometheus.GaugeVec

	// Worker Metrics - processing performance
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Ingest Queue Metrics - record batches waiting for a worker
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueEnqueued   prometheus.Counter
	queueRejected   *prometheus.CounterVec
	queueDequeued   prometheus.Counter
	recordsIngested prometheus.Counter

	// Store Metrics - season record persistence
	storeRecordsTotal prometheus.Gauge
	storeLatency      *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Refresh Metrics - scheduled digest refresh
	refreshRuns     *prometheus.CounterVec
	refreshLastUnix prometheus.Gauge

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec

	// System Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "battrend",
		subsystem:      "engine",
		latencyBuckets: defaultLatencyBuckets,
		secondsBuckets: defaultSecondsBuckets,
		constLabels:    prometheus.Labels{},
		enabled:        true,
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string { return m.prefix + n }

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.reportsGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("reports_generated_total"),
		Help:        "Total number of player reports assembled",
		ConstLabels: m.constLabels,
	})

	m.reportFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("report_failures_total"),
		Help:        "Report assembly failures by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.signalsEmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("signals_emitted_total"),
		Help:        "Active regression signals by metric, tier and direction",
		ConstLabels: m.constLabels,
	}, []string{"metric", "tier", "direction"})

	m.signalsSuppressed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("signals_suppressed_total"),
		Help:        "Regression signals withheld as established skill changes",
		ConstLabels: m.constLabels,
	}, []string{"metric"})

	m.recommendations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("recommendations_total"),
		Help:        "Net recommendations issued",
		ConstLabels: m.constLabels,
	}, []string{"recommendation"})

	m.confidence = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("projection_confidence_total"),
		Help:        "Projections by confidence level",
		ConstLabels: m.constLabels,
	}, []string{"level"})

	m.baselineFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("baseline_fallbacks_total"),
		Help:        "League baselines back-filled from an earlier season",
		ConstLabels: m.constLabels,
	})

	m.evaluationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("evaluation_latency_milliseconds"),
		Help:        "Time to assemble one report in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	})

	m.batchRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("batch_runs_total"),
		Help:        "Completed multi-player scans",
		ConstLabels: m.constLabels,
	})

	m.batchSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("batch_size"),
		Help:        "Players in the most recent scan",
		ConstLabels: m.constLabels,
	})

	m.batchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("batch_latency_seconds"),
		Help:        "Wall time of a multi-player scan in seconds",
		Buckets:     m.secondsBuckets,
		ConstLabels: m.constLabels,
	})

	m.digestEntries = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("digest_entries"),
		Help:        "Players per alert digest category in the latest digest",
		ConstLabels: m.constLabels,
	}, []string{"category"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_count"),
		Help:        "Configured evaluation workers",
		ConstLabels: m.constLabels,
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_active_count"),
		Help:        "Workers currently evaluating a player",
		ConstLabels: m.constLabels,
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_processing_latency_milliseconds"),
		Help:        "Per-player processing time inside a worker in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_errors_total"),
		Help:        "Players a worker failed to evaluate",
		ConstLabels: m.constLabels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("ingest_queue_size"),
		Help:        "Record batches waiting in the ingest queue",
		ConstLabels: m.constLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("ingest_queue_capacity"),
		Help:        "Maximum batches the ingest queue holds",
		ConstLabels: m.constLabels,
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("ingest_enqueued_total"),
		Help:        "Record batches accepted by the ingest queue",
		ConstLabels: m.constLabels,
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("ingest_rejected_total"),
		Help:        "Record batches refused by the ingest queue by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.queueDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("ingest_dequeued_total"),
		Help:        "Record batches handed to a worker",
		ConstLabels: m.constLabels,
	})

	m.recordsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("records_ingested_total"),
		Help:        "Season records written by ingest workers",
		ConstLabels: m.constLabels,
	})

	m.storeRecordsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_records_total"),
		Help:        "Season records held in the store",
		ConstLabels: m.constLabels,
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_latency_milliseconds"),
		Help:        "Season store operation latency in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}, []string{"operation"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_seconds"),
		Help:        "HTTP request duration in seconds",
		Buckets:     m.secondsBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.refreshRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("refresh_runs_total"),
		Help:        "Scheduled digest refreshes by outcome",
		ConstLabels: m.constLabels,
	}, []string{"status"})

	m.refreshLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("refresh_last_unix_seconds"),
		Help:        "Completion time of the last successful refresh",
		ConstLabels: m.constLabels,
	})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_component_total"),
		Help:        "Errors by component and type",
		ConstLabels: m.constLabels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      m.name("system_memory_usage_bytes"),
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      m.name("system_goroutine_count"),
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      m.name("system_gc_pause_time_milliseconds"),
		Help:      "GC pause time in milliseconds",
		Buckets:   m.latencyBuckets,
	})
}

// Enabled reports whether recording is on.
func (m *Manager) Enabled() bool { return m.enabled }

// RecordReport records a successfully assembled report.
func (m *Manager) RecordReport(recommendation, confidence string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.reportsGenerated.Inc()
	m.recommendations.WithLabelValues(recommendation).Inc()
	m.confidence.WithLabelValues(confidence).Inc()
	m.evaluationLatency.Observe(latencyMs)
}

// RecordReport records a successfully assembled report on the global manager.
func RecordReport(recommendation, confidence string, latencyMs float64) {
	globalManager.RecordReport(recommendation, confidence, latencyMs)
}

// RecordReportFailure counts a failed assembly.
func RecordReportFailure(reason string) {
	if globalManager.enabled {
		globalManager.reportFailures.WithLabelValues(reason).Inc()
	}
}

// RecordSignal counts an active regression signal.
func RecordSignal(metric, tier, direction string) {
	if globalManager.enabled {
		globalManager.signalsEmitted.WithLabelValues(metric, tier, direction).Inc()
	}
}

// RecordSuppressedSignal counts a signal withheld as a skill change.
func RecordSuppressedSignal(metric string) {
	if globalManager.enabled {
		globalManager.signalsSuppressed.WithLabelValues(metric).Inc()
	}
}

// RecordBaselineFallback counts a back-filled league baseline.
func RecordBaselineFallback() {
	if globalManager.enabled {
		globalManager.baselineFallbacks.Inc()
	}
}

// RecordBatch records a finished scan of size players.
func RecordBatch(size int, elapsed time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.batchRuns.Inc()
	globalManager.batchSize.Set(float64(size))
	globalManager.batchLatency.Observe(elapsed.Seconds())
}

// UpdateDigestEntries sets the size of one digest category.
func UpdateDigestEntries(category string, count int) {
	if globalManager.enabled {
		globalManager.digestEntries.WithLabelValues(category).Set(float64(count))
	}
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// UpdateWorkerActiveCount adjusts the busy worker gauge by delta.
func UpdateWorkerActiveCount(delta int) {
	if globalManager.enabled {
		globalManager.workerActiveCount.Add(float64(delta))
	}
}

// RecordWorkerProcessingLatency records per-player processing time in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError counts a player a worker failed to evaluate.
func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

// UpdateQueueSize sets the ingest queue depth.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the ingest queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue counts an accepted batch.
func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueRejected counts a refused batch.
func RecordQueueRejected(reason string) {
	if globalManager.enabled {
		globalManager.queueRejected.WithLabelValues(reason).Inc()
	}
}

// RecordQueueDequeue counts a batch handed to a worker.
func RecordQueueDequeue() {
	if globalManager.enabled {
		globalManager.queueDequeued.Inc()
	}
}

// RecordRecordsIngested counts records written by an ingest worker.
func RecordRecordsIngested(n int) {
	if globalManager.enabled {
		globalManager.recordsIngested.Add(float64(n))
	}
}

// UpdateStoreRecordsTotal sets the number of stored records.
func UpdateStoreRecordsTotal(count int) {
	if globalManager.enabled {
		globalManager.storeRecordsTotal.Set(float64(count))
	}
}

// RecordStoreLatency records a store operation's latency in milliseconds.
func RecordStoreLatency(operation string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordRefresh records the outcome of a scheduled refresh.
func RecordRefresh(status string, at time.Time) {
	if !globalManager.enabled {
		return
	}
	globalManager.refreshRuns.WithLabelValues(status).Inc()
	if status == "ok" {
		globalManager.refreshLastUnix.Set(float64(at.Unix()))
	}
}

// RecordErrorByComponent records errors by component and type.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the allocated heap in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom registry for use with promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
