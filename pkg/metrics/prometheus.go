// Package metrics provides Prometheus metrics for the vegetation cover pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Observation outcomes used as the "outcome" label.
const (
	OutcomeRetained       = "retained"
	OutcomeExcludedUnit   = "excluded_unit"
	OutcomeExcludedTaxon  = "excluded_taxon"
	OutcomeUnmatchedEvent = "unmatched_event"
	OutcomeDuplicate      = "duplicate"
)

// Manager owns every collector exported by the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pipeline
	runsTotal           *prometheus.CounterVec
	runDuration         prometheus.Histogram
	lastRunUnix         prometheus.Gauge
	stageLatency        *prometheus.HistogramVec
	observationsTotal   *prometheus.CounterVec
	coverRecords        *prometheus.GaugeVec
	tableRows           *prometheus.GaugeVec
	emptyGroups         *prometheus.GaugeVec
	sourceRowsTotal     *prometheus.CounterVec
	sinkWritesTotal     *prometheus.CounterVec
	sinkWriteLatency    *prometheus.HistogramVec
	repositoryRuns      prometheus.Gauge
	runQueueSize        prometheus.Gauge
	runQueueEnqueued    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // isolated registry without Go runtime collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vegcover",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
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

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	reg := m.registry
	if !m.enabled {
		reg = prometheus.NewRegistry()
	}
	auto := promauto.With(reg)
	constLabels := prometheus.Labels(m.customLabels)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("runs_total"),
		Help:        "Pipeline runs by final status",
		ConstLabels: constLabels,
	}, []string{"status"})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("run_duration_milliseconds"),
		Help:        "Wall time of a full pipeline run in milliseconds",
		Buckets:     []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		ConstLabels: constLabels,
	})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("last_run_timestamp_seconds"),
		Help:        "Unix time of the last successful run",
		ConstLabels: constLabels,
	})

	m.stageLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("stage_latency_milliseconds"),
		Help:        "Latency of individual pipeline stages in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"stage"})

	m.observationsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("observations_total"),
		Help:        "Raw observations by outcome (retained, excluded, unmatched, duplicate)",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.coverRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("cover_records"),
		Help:        "Cover records produced by the last run per scale",
		ConstLabels: constLabels,
	}, []string{"scale"})

	m.tableRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("table_rows"),
		Help:        "Rows in each result table of the last run",
		ConstLabels: constLabels,
	}, []string{"table"})

	m.emptyGroups = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("empty_groups"),
		Help:        "Groups left without retained taxa after filtering, per scale",
		ConstLabels: constLabels,
	}, []string{"scale"})

	m.sourceRowsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("source_rows_total"),
		Help:        "Rows read from the tabular source per table",
		ConstLabels: constLabels,
	}, []string{"table"})

	m.sinkWritesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sink_writes_total"),
		Help:        "Sink write attempts by sink and status",
		ConstLabels: constLabels,
	}, []string{"sink", "status"})

	m.sinkWriteLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sink_write_latency_milliseconds"),
		Help:        "Sink write latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"sink"})

	m.repositoryRuns = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("repository_runs"),
		Help:        "Runs retained in the in-memory results repository",
		ConstLabels: constLabels,
	})

	m.runQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("run_queue_size"),
		Help:        "Run requests waiting in the trigger queue",
		ConstLabels: constLabels,
	})

	m.runQueueEnqueued = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("run_queue_enqueued_total"),
		Help:        "Run requests offered to the trigger queue by result",
		ConstLabels: constLabels,
	}, []string{"status"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_total"),
		Help:        "Errors by component and kind",
		ConstLabels: constLabels,
	}, []string{"component", "kind"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "HTTP requests by endpoint, method and status code",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordRun counts a finished run and its duration.
func RecordRun(status string, duration time.Duration) {
	globalManager.runsTotal.WithLabelValues(status).Inc()
	globalManager.runDuration.Observe(float64(duration.Milliseconds()))
	if status == "success" {
		globalManager.lastRunUnix.Set(float64(time.Now().Unix()))
	}
}

// RecordStageLatency records the duration of one pipeline stage.
func RecordStageLatency(stage string, d time.Duration) {
	globalManager.stageLatency.WithLabelValues(stage).Observe(float64(d.Microseconds()) / 1000)
}

// AddObservations adds n observations under the given outcome.
func AddObservations(outcome string, n int) {
	if n <= 0 {
		return
	}
	globalManager.observationsTotal.WithLabelValues(outcome).Add(float64(n))
}

// UpdateCoverRecords sets the record count of a scale.
func UpdateCoverRecords(scale string, n int) {
	globalManager.coverRecords.WithLabelValues(scale).Set(float64(n))
}

// UpdateTableRows sets the row count of a result table.
func UpdateTableRows(table string, n int) {
	globalManager.tableRows.WithLabelValues(table).Set(float64(n))
}

// UpdateEmptyGroups sets the number of empty groups of a scale.
func UpdateEmptyGroups(scale string, n int) {
	globalManager.emptyGroups.WithLabelValues(scale).Set(float64(n))
}

// AddSourceRows counts rows read from a source table.
func AddSourceRows(table string, n int) {
	globalManager.sourceRowsTotal.WithLabelValues(table).Add(float64(n))
}

// RecordSinkWrite counts a sink write and its latency.
func RecordSinkWrite(sink, status string, d time.Duration) {
	globalManager.sinkWritesTotal.WithLabelValues(sink, status).Inc()
	globalManager.sinkWriteLatency.WithLabelValues(sink).Observe(float64(d.Milliseconds()))
}

// UpdateRepositoryRuns sets the number of runs held by the repository.
func UpdateRepositoryRuns(n int) {
	globalManager.repositoryRuns.Set(float64(n))
}

// UpdateRunQueueSize sets the number of queued run requests.
func UpdateRunQueueSize(n int) {
	globalManager.runQueueSize.Set(float64(n))
}

// RecordRunEnqueue counts a run request offered to the queue.
func RecordRunEnqueue(status string) {
	globalManager.runQueueEnqueued.WithLabelValues(status).Inc()
}

// RecordErrorByComponent records an error with component and kind labels.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Configure rebuilds the global manager from opts on a fresh registry, so a
// namespace or constant labels from configuration apply to every collector.
// It must run before any metric is recorded.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	m := NewManager(append(opts, WithPrometheusRegistry(reg))...)
	customRegistry = reg
	globalManager = m
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
