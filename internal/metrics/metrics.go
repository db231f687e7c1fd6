// Package metrics exposes flexmon telemetry as Prometheus collectors.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing,
// so library callers can leave telemetry unwired.
type Metrics struct {
	registry *prometheus.Registry

	flexibilityScore  *prometheus.GaugeVec
	escalationLevel   *prometheus.GaugeVec
	sensorLevel       *prometheus.GaugeVec
	sensorFailures    *prometheus.CounterVec
	escapeAttempts    *prometheus.CounterVec
	decisions         prometheus.Counter
	dismissals        prometheus.Counter
	throttledCycles   prometheus.Counter
	monitoringLatency prometheus.Histogram
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Global returns the process-wide metrics instance
func Global() *Metrics {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}

// New creates a metrics instance with its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		flexibilityScore: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flexmon_flexibility_score",
			Help: "Current flexibility score by session",
		}, []string{"session"}),
		escalationLevel: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flexmon_escalation_level",
			Help: "Current escalation level (1-4) by session",
		}, []string{"session"}),
		sensorLevel: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flexmon_sensor_warning_level",
			Help: "Last warning level reported by a sensor (0=SAFE .. 3=CRITICAL)",
		}, []string{"sensor"}),
		sensorFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flexmon_sensor_failures_total",
			Help: "Sensor measurements that failed and were excluded from fusion",
		}, []string{"sensor"}),
		escapeAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flexmon_escape_attempts_total",
			Help: "Escape protocol executions by protocol and result",
		}, []string{"protocol", "result"}),
		decisions: f.NewCounter(prometheus.CounterOpts{
			Name: "flexmon_decisions_recorded_total",
			Help: "Decisions recorded into path memory",
		}),
		dismissals: f.NewCounter(prometheus.CounterOpts{
			Name: "flexmon_risk_dismissals_total",
			Help: "Risk assessments counted as dismissals",
		}),
		throttledCycles: f.NewCounter(prometheus.CounterOpts{
			Name: "flexmon_monitoring_throttled_total",
			Help: "Monitoring cycles answered from cache",
		}),
		monitoringLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "flexmon_monitoring_cycle_duration_seconds",
			Help:    "Duration of a full sensor fusion cycle",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}
}

// Registry returns the registry backing this instance
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordFlexibility sets the flexibility score gauge for a session
func (m *Metrics) RecordFlexibility(session string, score float64) {
	if m == nil {
		return
	}
	m.flexibilityScore.WithLabelValues(session).Set(score)
}

// RecordEscalation sets the escalation level gauge for a session
func (m *Metrics) RecordEscalation(session string, level int) {
	if m == nil {
		return
	}
	m.escalationLevel.WithLabelValues(session).Set(float64(level))
}

// RecordSensorLevel sets the last warning level of a sensor
func (m *Metrics) RecordSensorLevel(sensor string, level int) {
	if m == nil {
		return
	}
	m.sensorLevel.WithLabelValues(sensor).Set(float64(level))
}

// RecordSensorFailure counts a failed measurement
func (m *Metrics) RecordSensorFailure(sensor string) {
	if m == nil {
		return
	}
	m.sensorFailures.WithLabelValues(sensor).Inc()
}

// RecordEscape counts an escape protocol execution
func (m *Metrics) RecordEscape(protocol string, success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.escapeAttempts.WithLabelValues(protocol, result).Inc()
}

// RecordDecision counts a recorded decision
func (m *Metrics) RecordDecision() {
	if m == nil {
		return
	}
	m.decisions.Inc()
}

// RecordDismissal counts a dismissal
func (m *Metrics) RecordDismissal() {
	if m == nil {
		return
	}
	m.dismissals.Inc()
}

// RecordThrottled counts a cycle served from cache
func (m *Metrics) RecordThrottled() {
	if m == nil {
		return
	}
	m.throttledCycles.Inc()
}

// ObserveCycle records the duration of a monitoring cycle
func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.monitoringLatency.Observe(d.Seconds())
}
