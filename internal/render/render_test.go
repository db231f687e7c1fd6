package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/engine"
	"github.com/uddhav/creative-thinking/internal/escalation"
	"github.com/uddhav/creative-thinking/internal/escape"
	"github.com/uddhav/creative-thinking/internal/flexibility"
	"github.com/uddhav/creative-thinking/internal/warning"
)

func steps(n int) *int { return &n }

func activeWarnings(n int) []warning.ActiveWarning {
	out := make([]warning.ActiveWarning, n)
	for i := range out {
		out[i] = warning.ActiveWarning{
			Severity: domain.LevelWarning,
			Message:  "warning number " + string(rune('A'+i)),
		}
	}
	return out
}

func report(score float64) engine.FlexibilityReport {
	return engine.FlexibilityReport{
		Metrics: flexibility.Metrics{Score: score, Diversity: 0.5, Reversibility: 0.4, Commitment: 0.6, EventCount: 4},
		EscapeRoutes: []domain.EscapeRoute{
			{ID: "reframe", Name: "Reframe the problem", Feasibility: 1},
			{ID: "parallel", Name: "Run a parallel path", Feasibility: 0.857},
		},
		Constraints: 2,
	}
}

func TestStatus_TopWarningsAndImpact(t *testing.T) {
	ws := activeWarnings(5)
	ws[0].Severity = domain.LevelCritical
	ws[0].StepsToImpact = steps(3)

	out := New(false).Status(StatusView{
		SessionID:   "s1",
		Problem:     "pricing",
		Flexibility: report(0.6),
		EarlyWarning: &warning.State{
			OverallRisk:       domain.LevelCritical,
			RecommendedAction: warning.ActionEscape,
			CompoundRisk:      true,
			ActiveWarnings:    ws,
		},
	})

	assert.Contains(t, out, "Session s1: pricing")
	assert.Contains(t, out, "Flexibility: 0.60")
	assert.Contains(t, out, "Risk: ◉ CRITICAL  Action: ESCAPE  compound risk")
	assert.Contains(t, out, "◉ warning number A (impact in ~3 steps)")
	assert.Contains(t, out, "● warning number C")
	assert.NotContains(t, out, "warning number D")
	assert.Contains(t, out, "… 2 more")
	assert.NotContains(t, out, "Escape routes:", "routes are only listed at low flexibility")
}

func TestStatus_EscapeRoutesBelowThreshold(t *testing.T) {
	out := New(false).Status(StatusView{SessionID: "s1", Flexibility: report(0.35)})

	require.Contains(t, out, "Escape routes:")
	assert.Contains(t, out, "1. Reframe the problem  100% feasible")
	assert.Contains(t, out, "2. Run a parallel path  86% feasible")
	assert.Less(t, strings.Index(out, "Reframe"), strings.Index(out, "parallel path"))
}

func TestStatus_Prompt(t *testing.T) {
	out := New(false).Status(StatusView{
		SessionID:   "s1",
		Flexibility: report(0.8),
		Prompt: &escalation.Prompt{
			Level:              3,
			RequiredConfidence: 0.5,
			Title:              "RE-ENGAGEMENT REQUIRED",
			Message:            "Several genuine risks were dismissed.",
			Questions:          []string{"What changed?"},
		},
	})

	assert.Contains(t, out, "Escalation 3: RE-ENGAGEMENT REQUIRED")
	assert.Contains(t, out, "  - What changed?")
	assert.Contains(t, out, "confidence >= 0.5")
}

func TestStatus_Pretty(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	out := New(true).Status(StatusView{SessionID: "s1", Flexibility: report(0.1)})
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "Session s1")
	assert.Contains(t, out, "0.10")
}

func TestLevelGlyph(t *testing.T) {
	assert.Equal(t, "○", LevelGlyph(domain.LevelSafe))
	assert.Equal(t, "◐", LevelGlyph(domain.LevelCaution))
	assert.Equal(t, "●", LevelGlyph(domain.LevelWarning))
	assert.Equal(t, "◉", LevelGlyph(domain.LevelCritical))
}

func TestLists(t *testing.T) {
	var buf bytes.Buffer
	l := NewLists(&buf)

	l.History(nil)
	assert.Contains(t, buf.String(), "No decisions recorded")

	buf.Reset()
	l.History([]domain.PathEvent{
		{Timestamp: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), Step: 1, Technique: "po", Decision: "go direct", OptionsClosed: []string{"partner"}, FlexibilityImpact: -0.12},
		{Timestamp: time.Date(2026, 5, 1, 9, 5, 0, 0, time.UTC), Step: 2, Technique: domain.TechniqueEscape, Decision: "Pattern Interruption", FlexibilityImpact: 0.15},
	})
	out := buf.String()
	assert.Contains(t, out, "PATH (2 events)")
	assert.Contains(t, out, "• [09:00:00] step 1 po: go direct (-0.12)")
	assert.Contains(t, out, "└─ closed [partner]")
	assert.Contains(t, out, "↺ [09:05:00]")

	buf.Reset()
	l.Protocols(escape.Catalog(), 0.3)
	out = buf.String()
	assert.Contains(t, out, "✓ 1. Pattern Interruption")
	assert.Contains(t, out, "✗ 5. Strategic Pivot")

	buf.Reset()
	l.Stats(escape.Monitoring{})
	assert.Contains(t, buf.String(), "No escape attempts recorded")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500ms", FormatDuration(500*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
}
