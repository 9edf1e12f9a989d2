// Package metrics provides Prometheus metrics for the pitwall prediction service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pitwall service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Ingestion metrics - lap pipeline health
	lapsIngested    prometheus.Counter
	lapsDropped     prometheus.Counter
	sessionsFetched prometheus.Counter
	sessionsSkipped prometheus.Counter
	ingestDuration  prometheus.Histogram

	// Prediction metrics - the business path
	predictionsTotal  prometheus.Counter
	driversRanked     prometheus.Counter
	driversExcluded   prometheus.Counter
	inferenceLatency  prometheus.Histogram
	inferenceErrors   prometheus.Counter
	insufficientInput prometheus.Counter
	profileFallbacks  prometheus.Counter
	datasetLapsStored prometheus.Gauge
	knownDriverCount  prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "pitwall",
		subsystem:        "predictor",
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Register on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.lapsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "laps_ingested_total",
		Help:      "Total number of lap rows normalized and retained",
	})

	m.lapsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "laps_dropped_total",
		Help:      "Total number of lap rows dropped for a missing lap time",
	})

	m.sessionsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_fetched_total",
		Help:      "Total number of telemetry sessions fetched successfully",
	})

	m.sessionsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_skipped_total",
		Help:      "Total number of telemetry sessions skipped after fetch failure",
	})

	m.ingestDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_duration_milliseconds",
		Help:      "Histogram of full ingestion run duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.predictionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Total number of prediction requests served",
	})

	m.driversRanked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "drivers_ranked_total",
		Help:      "Total number of drivers ranked across all requests",
	})

	m.driversExcluded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "drivers_excluded_total",
		Help:      "Total number of drivers excluded for an absent qualifying time",
	})

	m.inferenceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inference_latency_milliseconds",
		Help:      "Histogram of model inference latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.inferenceErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inference_errors_total",
		Help:      "Total number of model inference failures",
	})

	m.insufficientInput = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "insufficient_input_total",
		Help:      "Total number of requests rejected with no valid qualifying entries",
	})

	m.profileFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_fallbacks_total",
		Help:      "Total number of profile lookups resolved by population-mean fallback",
	})

	m.datasetLapsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_laps_stored",
		Help:      "Number of lap records in the persisted dataset",
	})

	m.knownDriverCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "known_driver_count",
		Help:      "Number of drivers with a historical profile",
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
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers delegating to the global manager.

// RecordLapIngested increments the retained-lap counter.
func RecordLapIngested() {
	if globalManager.enabled {
		globalManager.lapsIngested.Inc()
	}
}

// RecordLapDropped increments the dropped-lap counter.
func RecordLapDropped() {
	if globalManager.enabled {
		globalManager.lapsDropped.Inc()
	}
}

// RecordSessionFetched increments the fetched-session counter.
func RecordSessionFetched() {
	if globalManager.enabled {
		globalManager.sessionsFetched.Inc()
	}
}

// RecordSessionSkipped increments the skipped-session counter.
func RecordSessionSkipped() {
	if globalManager.enabled {
		globalManager.sessionsSkipped.Inc()
	}
}

// RecordIngestDuration observes a full ingestion run duration in milliseconds.
func RecordIngestDuration(ms float64) {
	if globalManager.enabled {
		globalManager.ingestDuration.Observe(ms)
	}
}

// RecordPrediction increments the prediction-request counter.
func RecordPrediction() {
	if globalManager.enabled {
		globalManager.predictionsTotal.Inc()
	}
}

// RecordDriversRanked adds to the ranked-driver counter.
func RecordDriversRanked(n int) {
	if globalManager.enabled {
		globalManager.driversRanked.Add(float64(n))
	}
}

// RecordDriversExcluded adds to the excluded-driver counter.
func RecordDriversExcluded(n int) {
	if globalManager.enabled {
		globalManager.driversExcluded.Add(float64(n))
	}
}

// RecordInferenceLatency observes model inference latency in milliseconds.
func RecordInferenceLatency(ms float64) {
	if globalManager.enabled {
		globalManager.inferenceLatency.Observe(ms)
	}
}

// RecordInferenceError increments the inference-failure counter.
func RecordInferenceError() {
	if globalManager.enabled {
		globalManager.inferenceErrors.Inc()
	}
}

// RecordInsufficientInput increments the empty-valid-set counter.
func RecordInsufficientInput() {
	if globalManager.enabled {
		globalManager.insufficientInput.Inc()
	}
}

// RecordProfileFallback increments the population-mean fallback counter.
func RecordProfileFallback() {
	if globalManager.enabled {
		globalManager.profileFallbacks.Inc()
	}
}

// UpdateDatasetLapsStored sets the persisted-lap gauge.
func UpdateDatasetLapsStored(n int) {
	if globalManager.enabled {
		globalManager.datasetLapsStored.Set(float64(n))
	}
}

// UpdateKnownDriverCount sets the known-driver gauge.
func UpdateKnownDriverCount(n int) {
	if globalManager.enabled {
		globalManager.knownDriverCount.Set(float64(n))
	}
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
	}
}
