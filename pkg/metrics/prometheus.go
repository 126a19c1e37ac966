// Package metrics provides Prometheus metrics for the taflow grading workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the workflow.
type Manager struct {
	namespace string
	subsystem string
	registry  *prometheus.Registry

	// Matcher metrics - one increment per processed submission file.
	filesMatched   prometheus.Counter
	filesRejected  prometheus.Counter
	filesDuplicate prometheus.Counter
	filesCopied    prometheus.Counter

	// Mailer metrics - dispatch outcomes per (assignment, student) pair.
	dispatches     *prometheus.CounterVec
	fallbackCopies prometheus.Counter
	sendInProgress prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "taflow",
		subsystem: "workflow",
		registry:  prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.filesMatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "files_matched_total",
		Help:      "Total number of submission files matched to a student",
	})

	m.filesRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "files_rejected_total",
		Help:      "Total number of submission files below the similarity threshold",
	})

	m.filesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "files_duplicate_total",
		Help:      "Total number of submission files skipped because the student was already matched",
	})

	m.filesCopied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "files_copied_total",
		Help:      "Total number of submission files copied into student directories",
	})

	m.dispatches = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "dispatches_total",
			Help:      "Total number of grade emails dispatched by outcome",
		},
		[]string{"outcome"},
	)

	m.fallbackCopies = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fallback_copies_total",
		Help:      "Total number of files rerouted to shared storage after an oversized rejection",
	})

	m.sendInProgress = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "send_in_progress",
		Help:      "1 while a paced send loop is running, 0 otherwise",
	})
}

// Handler returns an HTTP handler serving the custom registry, for the
// optional /metrics listener during long paced send runs.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// Package-level recording helpers backed by the global manager.

func RecordFileMatched() {
	globalManager.filesMatched.Inc()
}

func RecordFileRejected() {
	globalManager.filesRejected.Inc()
}

func RecordFileDuplicate() {
	globalManager.filesDuplicate.Inc()
}

func RecordFileCopied() {
	globalManager.filesCopied.Inc()
}

// RecordDispatch increments the dispatch counter for an outcome label
// (sent, sent_without_attachment, oversized_rejected, transport_error).
func RecordDispatch(outcome string) {
	globalManager.dispatches.WithLabelValues(outcome).Inc()
}

func RecordFallbackCopy() {
	globalManager.fallbackCopies.Inc()
}

func SetSendInProgress(running bool) {
	if running {
		globalManager.sendInProgress.Set(1)
		return
	}
	globalManager.sendInProgress.Set(0)
}
