package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsGlobal(t *testing.T) {
	assert.Same(t, Global(), Global())
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFlexibility("s", 0.5)
		m.RecordEscalation("s", 2)
		m.RecordSensorLevel("cognitive", 1)
		m.RecordSensorFailure("cognitive")
		m.RecordEscape("Pattern Interruption", true)
		m.RecordDecision()
		m.RecordDismissal()
		m.RecordThrottled()
		m.ObserveCycle(time.Millisecond)
	})
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordFlexibility("s1", 0.42)
	m.RecordEscalation("s1", 3)
	m.RecordSensorFailure("resource")
	m.RecordSensorFailure("resource")
	m.RecordEscape("Strategic Pivot", false)
	m.RecordDecision()
	m.RecordDismissal()

	body := scrape(t, m)
	assert.Contains(t, body, `flexmon_flexibility_score{session="s1"} 0.42`)
	assert.Contains(t, body, `flexmon_escalation_level{session="s1"} 3`)
	assert.Contains(t, body, `flexmon_sensor_failures_total{sensor="resource"} 2`)
	assert.Contains(t, body, `flexmon_escape_attempts_total{protocol="Strategic Pivot",result="failure"} 1`)
	assert.Contains(t, body, "flexmon_decisions_recorded_total 1")
	assert.Contains(t, body, "flexmon_risk_dismissals_total 1")
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RecordFlexibility("abc", 0.7)
	m.ObserveCycle(2 * time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `flexmon_flexibility_score{session="abc"} 0.7`)
	assert.Contains(t, body, "flexmon_monitoring_cycle_duration_seconds_count 1")
}
