package kernel

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics exposes the scheduler's (C8) runtime behavior for
// production monitoring, namespaced "agentkernel_". Grounded on the
// retrieved example's PrometheusMetrics, narrowed from the generic
// engine's concurrency/queue metrics to the signals this kernel's own
// components produce: step latency and retries (C8), cache hit rate (C3),
// loop detections (C5), budget blocks (C6), and pending approvals (C10).
type PrometheusMetrics struct {
	stepLatency *prometheus.HistogramVec
	retries     *prometheus.CounterVec
	cacheHits   *prometheus.CounterVec
	loopDetected *prometheus.CounterVec
	budgetBlocked *prometheus.CounterVec
	pendingApprovals prometheus.Gauge

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics registers the kernel's metrics with registry (use
// prometheus.DefaultRegisterer for the global registry).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		enabled: true,
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentkernel",
			Name:      "step_latency_ms",
			Help:      "Step handler execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000},
		}, []string{"run_id", "node_id", "status"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentkernel",
			Name:      "retries_total",
			Help:      "Cumulative step retry attempts",
		}, []string{"run_id", "node_id"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentkernel",
			Name:      "cache_lookups_total",
			Help:      "Step Execution Cache lookups by outcome",
		}, []string{"node_id", "outcome"}), // outcome: hit, miss
		loopDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentkernel",
			Name:      "loop_detections_total",
			Help:      "Loop detector triggers by kind",
		}, []string{"run_id", "detector"}),
		budgetBlocked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentkernel",
			Name:      "budget_blocked_total",
			Help:      "Budget Guard admission blocks by resource",
		}, []string{"run_id", "resource"}),
		pendingApprovals: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "agentkernel",
			Name:      "pending_approvals",
			Help:      "Approvals currently awaiting a decision",
		}),
	}
}

func (pm *PrometheusMetrics) RecordStepLatency(runID, nodeID string, latency time.Duration, status string) {
	if !pm.enabled {
		return
	}
	pm.stepLatency.WithLabelValues(runID, nodeID, status).Observe(float64(latency.Milliseconds()))
}

func (pm *PrometheusMetrics) IncrementRetries(runID, nodeID string) {
	if !pm.enabled {
		return
	}
	pm.retries.WithLabelValues(runID, nodeID).Inc()
}

func (pm *PrometheusMetrics) RecordCacheLookup(nodeID string, hit bool) {
	if !pm.enabled {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	pm.cacheHits.WithLabelValues(nodeID, outcome).Inc()
}

func (pm *PrometheusMetrics) IncrementLoopDetected(runID string, kind DetectorKind) {
	if !pm.enabled {
		return
	}
	pm.loopDetected.WithLabelValues(runID, kind.String()).Inc()
}

func (pm *PrometheusMetrics) IncrementBudgetBlocked(runID string, resource ResourceType) {
	if !pm.enabled {
		return
	}
	pm.budgetBlocked.WithLabelValues(runID, resource.String()).Inc()
}

func (pm *PrometheusMetrics) SetPendingApprovals(n int) {
	if !pm.enabled {
		return
	}
	pm.pendingApprovals.Set(float64(n))
}

// Disable temporarily stops metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
