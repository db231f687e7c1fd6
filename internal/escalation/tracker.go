package escalation

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/logging"
	"github.com/uddhav/creative-thinking/internal/metrics"
)

const (
	dismissalConfidence   = 0.3
	substantiveConfidence = 0.5
	maxRecords            = 20
)

// ErrUnlockRejected is returned when an unlock request does not show
// enough engagement for the current level.
var ErrUnlockRejected = errors.New("escalation unlock rejected")

// UnlockRejectedError carries the level and the confidence it needs.
type UnlockRejectedError struct {
	Level    int
	Required float64
	Given    float64
	Reason   string
}

func (e *UnlockRejectedError) Error() string {
	return fmt.Sprintf("escalation unlock rejected at level %d: %s (required confidence %.2f, given %.2f)",
		e.Level, e.Reason, e.Required, e.Given)
}

func (e *UnlockRejectedError) Unwrap() error {
	return ErrUnlockRejected
}

// Assessment is the caller's risk assessment of a proposed action.
type Assessment struct {
	Confidence     float64         `json:"confidence" validate:"gte=0,lte=1"`
	Irreversible   bool            `json:"irreversible,omitempty"`
	SurvivalThreat bool            `json:"survival_threat,omitempty"`
	TimePressure   domain.Pressure `json:"time_pressure,omitempty" validate:"omitempty,oneof=low medium high critical"`
	// ImpactRadius is local, team, organization or systemic.
	ImpactRadius string `json:"impact_radius,omitempty" validate:"omitempty,oneof=local team organization systemic"`
	Text         string `json:"text,omitempty"`
}

// AssessmentRecord is the retained trace of one assessment.
type AssessmentRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Confidence     float64   `json:"confidence"`
	ActualRisk     bool      `json:"actual_risk"`
	Dismissal      bool      `json:"dismissal"`
	Irreversible   bool      `json:"irreversible,omitempty"`
	SurvivalThreat bool      `json:"survival_threat,omitempty"`
}

// Metrics is the risk-engagement record of one session.
type Metrics struct {
	DismissalCount            int                `json:"dismissal_count"`
	AverageConfidence         float64            `json:"average_confidence"`
	EscalationLevel           int                `json:"escalation_level"`
	ConsecutiveLowConfidence  int                `json:"consecutive_low_confidence"`
	DiscoveredRiskIndicators  []string           `json:"discovered_risk_indicators"`
	LastSubstantiveEngagement *time.Time         `json:"last_substantive_engagement,omitempty"`
	TotalAssessments          int                `json:"total_assessments"`
	History                   []AssessmentRecord `json:"history,omitempty"`
}

// NewMetrics returns the starting record at level 1.
func NewMetrics() Metrics {
	return Metrics{EscalationLevel: LevelObserve, DiscoveredRiskIndicators: []string{}}
}

func (m Metrics) clone() Metrics {
	out := m
	out.DiscoveredRiskIndicators = append([]string{}, m.DiscoveredRiskIndicators...)
	out.History = append([]AssessmentRecord(nil), m.History...)
	if m.LastSubstantiveEngagement != nil {
		ts := *m.LastSubstantiveEngagement
		out.LastSubstantiveEngagement = &ts
	}
	return out
}

// Result is what one tracked assessment produced.
type Result struct {
	ActualRisk bool      `json:"actual_risk"`
	Dismissal  bool      `json:"dismissal"`
	HighStakes bool      `json:"high_stakes"`
	Indicators []string  `json:"indicators,omitempty"`
	Level      int       `json:"level"`
	Escalated  bool      `json:"escalated"`
	Patterns   []Pattern `json:"patterns,omitempty"`
	Prompt     *Prompt   `json:"prompt,omitempty"`
	Metrics    Metrics   `json:"metrics"`
}

// Tracker owns a session's engagement metrics. Not safe for concurrent use.
type Tracker struct {
	m       Metrics
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
	session string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithMetrics reports dismissals and levels to m under session.
func WithMetrics(m *metrics.Metrics, session string) Option {
	return func(t *Tracker) {
		t.metrics = m
		t.session = session
	}
}

// NewTracker creates a tracker starting from m.
func NewTracker(m Metrics, opts ...Option) *Tracker {
	if m.EscalationLevel < LevelObserve {
		m.EscalationLevel = LevelObserve
	}
	if m.DiscoveredRiskIndicators == nil {
		m.DiscoveredRiskIndicators = []string{}
	}
	t := &Tracker{
		m:      m,
		now:    time.Now,
		logger: logging.New("escalation"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Metrics returns a copy of the current record.
func (t *Tracker) Metrics() Metrics {
	return t.m.clone()
}

// TrackAssessment folds one assessment into the record. Only assessments
// that concern an actual risk can count as dismissals.
func (t *Tracker) TrackAssessment(a Assessment, sc domain.SessionContext, proposedAction string) (Result, error) {
	if err := domain.ValidateStruct(a); err != nil {
		return Result{}, err
	}
	now := t.now()

	indicators := ExtractIndicators(a.Text)
	if a.Irreversible {
		indicators = mergeIndicators(indicators, IndicatorIrreversible)
	}
	if a.SurvivalThreat {
		indicators = mergeIndicators(indicators, IndicatorSurvivalThreat)
	}
	if a.TimePressure.High() || sc.TimePressure.High() {
		indicators = mergeIndicators(indicators, IndicatorTimePressure)
	}
	if a.ImpactRadius == "systemic" {
		indicators = mergeIndicators(indicators, IndicatorSystemicImpact)
	}
	highStakesAction := HighStakesLanguage(proposedAction)
	if highStakesAction {
		indicators = mergeIndicators(indicators, IndicatorTotalCommitment)
	}
	for _, ind := range ExtractIndicators(proposedAction) {
		indicators = mergeIndicators(indicators, ind)
	}

	actual := len(indicators) > 0
	m := &t.m
	m.TotalAssessments++
	m.AverageConfidence += (a.Confidence - m.AverageConfidence) / float64(m.TotalAssessments)
	m.DiscoveredRiskIndicators = mergeIndicators(m.DiscoveredRiskIndicators, indicators...)

	dismissal := actual && a.Confidence < dismissalConfidence
	switch {
	case dismissal:
		m.DismissalCount++
		m.ConsecutiveLowConfidence++
		t.metrics.RecordDismissal()
	case a.Confidence > substantiveConfidence || !actual:
		m.ConsecutiveLowConfidence = 0
		if a.Confidence > substantiveConfidence {
			ts := now
			m.LastSubstantiveEngagement = &ts
		}
	}

	m.History = append(m.History, AssessmentRecord{
		Timestamp:      now,
		Confidence:     a.Confidence,
		ActualRisk:     actual,
		Dismissal:      dismissal,
		Irreversible:   a.Irreversible,
		SurvivalThreat: a.SurvivalThreat,
	})
	if len(m.History) > maxRecords {
		m.History = append([]AssessmentRecord(nil), m.History[len(m.History)-maxRecords:]...)
	}

	highStakes := highStakesAction || containsAny(indicators,
		IndicatorSurvivalThreat, IndicatorIrreversible, IndicatorSystemicImpact)

	prev := m.EscalationLevel
	if lvl := ComputeLevel(*m, highStakes); lvl > m.EscalationLevel {
		m.EscalationLevel = lvl
	}
	t.metrics.RecordEscalation(t.session, m.EscalationLevel)

	patterns := DetectPatterns(*m, a, now)
	res := Result{
		ActualRisk: actual,
		Dismissal:  dismissal,
		HighStakes: highStakes,
		Indicators: indicators,
		Level:      m.EscalationLevel,
		Escalated:  m.EscalationLevel > prev,
		Patterns:   patterns,
		Prompt:     GeneratePrompt(m.EscalationLevel, *m, patterns),
		Metrics:    t.m.clone(),
	}

	if res.Escalated {
		t.logger.Warn("escalation raised",
			slog.Int("from", prev),
			slog.Int("to", m.EscalationLevel),
			slog.Int("dismissals", m.DismissalCount),
			slog.Int("consecutive", m.ConsecutiveLowConfidence),
			slog.String("indicators", strings.Join(indicators, ",")),
		)
	}
	return res, nil
}

// Unlock lowers the escalation level back to 1 after an explicit,
// substantive re-engagement: a justification and a confidence at or above
// the current level's minimum. Dismissal counters restart; totals,
// indicators and history are kept.
func (t *Tracker) Unlock(confidence float64, justification string) error {
	level := t.m.EscalationLevel
	required := RequiredConfidence(level)
	if level <= LevelObserve {
		return nil
	}
	if strings.TrimSpace(justification) == "" {
		return &UnlockRejectedError{Level: level, Required: required, Given: confidence, Reason: "a justification is required"}
	}
	if confidence < required {
		return &UnlockRejectedError{Level: level, Required: required, Given: confidence, Reason: "confidence below the level minimum"}
	}

	now := t.now()
	t.m.EscalationLevel = LevelObserve
	t.m.DismissalCount = 0
	t.m.ConsecutiveLowConfidence = 0
	t.m.LastSubstantiveEngagement = &now
	t.metrics.RecordEscalation(t.session, LevelObserve)
	t.logger.Info("escalation unlocked", slog.Int("from", level), slog.Float64("confidence", confidence))
	return nil
}

// Reset restores the starting record.
func (t *Tracker) Reset() {
	t.m = NewMetrics()
	t.metrics.RecordEscalation(t.session, LevelObserve)
}

func containsAny(set []string, items ...string) bool {
	for _, s := range set {
		for _, it := range items {
			if s == it {
				return true
			}
		}
	}
	return false
}
