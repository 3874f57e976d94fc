// Package metrics provides Prometheus metrics for the motion engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the motion engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion hot path. Drops are split by reason so threshold tuning
	// can tell queue overflow from bad samples.
	samplesIngested *prometheus.CounterVec
	samplesDropped  *prometheus.CounterVec

	// Frame queue health.
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge

	// Detection outcomes.
	repetitions       *prometheus.CounterVec
	advisoryReversals prometheus.Counter
	romDegrees        prometheus.Histogram
	romClamps         prometheus.Counter
	degenerateROM     prometheus.Counter

	// Calibration flow.
	calibrationAttempts prometheus.Counter
	calibrationFailures prometheus.Counter

	// Background work.
	smoothnessRecomputeMS prometheus.Histogram
	sessionsStarted       prometheus.Counter
	sessionsEnded         prometheus.Counter
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
		namespace:        "motion",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.samplesIngested = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "samples_ingested_total",
		Help: "Samples accepted by kind (position, imu, keypoint).",
	}, []string{"kind"})

	m.samplesDropped = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "samples_dropped_total",
		Help: "Samples dropped by reason (overflow, nonfinite, stale_timestamp, closed).",
	}, []string{"reason"})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "frame_queue_size",
		Help: "Current frame queue depth.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "frame_queue_capacity",
		Help: "Configured frame queue capacity.",
	})
	m.queueUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "frame_queue_utilization",
		Help: "Frame queue fill ratio [0,1].",
	})

	m.repetitions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "repetitions_total",
		Help: "Completed repetitions by detection strategy.",
	}, []string{"strategy"})

	m.advisoryReversals = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "advisory_reversals_total",
		Help: "Reversals reported by the advisory gyro detector (never scored).",
	})

	m.romDegrees = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "rom_degrees",
		Help:    "Per-repetition range of motion in degrees.",
		Buckets: []float64{5, 10, 20, 30, 45, 60, 90, 120, 150, 180},
	})

	m.romClamps = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rom_clamp_triggers_total",
		Help: "ROM values clamped to the configured bound.",
	})

	m.degenerateROM = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rom_degenerate_segments_total",
		Help: "ROM computations on degenerate segments (reported as zero).",
	})

	m.calibrationAttempts = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "calibration_attempts_total",
		Help: "Posture capture attempts.",
	})
	m.calibrationFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "calibration_failures_total",
		Help: "Calibration flows that exhausted their recapture budget.",
	})

	m.smoothnessRecomputeMS = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "smoothness_recompute_ms",
		Help:    "Smoothness score recompute duration in milliseconds.",
		Buckets: m.histogramBuckets,
	})

	m.sessionsStarted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "sessions_started_total",
		Help: "Sessions started.",
	})
	m.sessionsEnded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "sessions_ended_total",
		Help: "Sessions ended.",
	})

	return m
}

// Handler exposes the custom registry for an optional /metrics listener.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// Package-level recording helpers against the global manager.

func RecordSampleIngested(kind string)  { globalManager.samplesIngested.WithLabelValues(kind).Inc() }
func RecordSampleDropped(reason string) { globalManager.samplesDropped.WithLabelValues(reason).Inc() }

func UpdateQueueSize(n int)            { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)        { globalManager.queueCapacity.Set(float64(n)) }
func UpdateQueueUtilization(f float64) { globalManager.queueUtilization.Set(f) }

func RecordRepetition(strategy string) { globalManager.repetitions.WithLabelValues(strategy).Inc() }
func RecordAdvisoryReversal()          { globalManager.advisoryReversals.Inc() }
func ObserveROM(degrees float64)       { globalManager.romDegrees.Observe(degrees) }
func RecordROMClamp()                  { globalManager.romClamps.Inc() }
func RecordDegenerateSegment()         { globalManager.degenerateROM.Inc() }

func RecordCalibrationAttempt() { globalManager.calibrationAttempts.Inc() }
func RecordCalibrationFailure() { globalManager.calibrationFailures.Inc() }

func RecordSmoothnessRecompute(ms float64) { globalManager.smoothnessRecomputeMS.Observe(ms) }

func RecordSessionStart() { globalManager.sessionsStarted.Inc() }
func RecordSessionEnd()   { globalManager.sessionsEnded.Inc() }
