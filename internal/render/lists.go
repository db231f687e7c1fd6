package render

import (
	"io"
	"sort"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/escalation"
	"github.com/uddhav/creative-thinking/internal/escape"
	"github.com/uddhav/creative-thinking/internal/store"
	xstrings "github.com/uddhav/creative-thinking/internal/strings"
	"github.com/uddhav/creative-thinking/internal/warning"
)

// Lists renders the plain-text listings of the CLI.
type Lists struct {
	*Writer
}

// NewLists creates a Lists renderer writing to w.
func NewLists(w io.Writer) *Lists {
	return &Lists{Writer: NewWriter(w)}
}

// Sessions renders stored session summaries.
func (l *Lists) Sessions(list []store.Summary) {
	if len(list) == 0 {
		l.Empty("No sessions found")
		return
	}
	l.Header("SESSIONS (%d)", len(list))
	for _, s := range list {
		l.Println("%s  flex=%.2f  events=%-3d  %s  %s",
			s.ID, s.Flexibility, s.Events, s.UpdatedAt.Format("2006-01-02 15:04"), xstrings.Truncate(s.Problem, 40))
	}
}

// History renders the decision path.
func (l *Lists) History(events []domain.PathEvent) {
	if len(events) == 0 {
		l.Empty("No decisions recorded")
		return
	}
	l.Header("PATH (%d events)", len(events))
	for _, e := range events {
		marker := "•"
		if e.IsEscape() {
			marker = "↺"
		}
		l.Println("%s [%s] step %d %s: %s (%+.2f)",
			marker, e.Timestamp.Format("15:04:05"), e.Step, e.Technique, xstrings.Truncate(e.Decision, 50), e.FlexibilityImpact)
		if len(e.OptionsOpened) > 0 {
			l.Nested("opened %v", e.OptionsOpened)
		}
		if len(e.OptionsClosed) > 0 {
			l.Nested("closed %v", e.OptionsClosed)
		}
		for _, c := range e.ConstraintsCreated {
			l.Nested("constraint %s %q (%.2f)", c.Type, c.Description, c.Strength)
		}
	}
}

// Warnings renders the warning history, newest first.
func (l *Lists) Warnings(list []warning.ActiveWarning) {
	if len(list) == 0 {
		l.Empty("No warnings recorded")
		return
	}
	sorted := append([]warning.ActiveWarning(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	l.Header("WARNINGS (%d)", len(sorted))
	for _, w := range sorted {
		l.Println("%s [%s] %s", LevelGlyph(w.Severity), w.Timestamp.Format("2006-01-02 15:04:05"), w.Message)
	}
}

// Protocols renders escape protocols, marking those out of reach.
func (l *Lists) Protocols(list []escape.Protocol, flexibility float64) {
	l.Header("ESCAPE PROTOCOLS (flexibility %.2f)", flexibility)
	for _, p := range list {
		l.Println("%s %d. %-24s requires %.2f  success %s  %s",
			BoolIcon(p.RequiredFlexibility <= flexibility), p.Level, p.Name,
			p.RequiredFlexibility, xstrings.Percent(p.SuccessProbability), p.Duration)
	}
}

// Requirements renders an escape plan.
func (l *Lists) Requirements(p escape.Protocol, req escape.Requirements) {
	l.Header("%s (level %d)", p.Name, p.Level)
	l.Println("%s", p.Description)
	l.Section("requirements")
	l.Item("Constraint strength: %.2f", req.ConstraintStrength)
	l.Item("Escape force needed: %.2f", req.EscapeForceNeeded)
	l.Item("Available resources: %.2f", req.AvailableResources)
	l.Item("Feasibility:         %s", xstrings.Percent(req.Feasibility))
	l.Item("Success probability: %s", xstrings.Percent(req.SuccessProbability))
	if len(p.Steps) > 0 {
		l.Section("steps")
		for i, s := range p.Steps {
			l.Item("%d. %s", i+1, s)
		}
	}
	if len(req.Warnings) > 0 {
		l.Section("warnings")
		for _, w := range req.Warnings {
			l.Item("! %s", w)
		}
	}
}

// Attempt renders the outcome of an escape execution.
func (l *Lists) Attempt(res escape.AttemptResult) {
	l.Println("%s %s: flexibility %.2f -> %.2f (%s)",
		BoolIcon(res.Success), res.Protocol, res.FlexibilityBefore, res.FlexibilityAfter, FormatDuration(res.Duration))
	for _, n := range res.ExecutionNotes {
		l.Nested("%s", n)
	}
}

// Stats renders the escape monitoring aggregate.
func (l *Lists) Stats(m escape.Monitoring) {
	if m.AttemptCount == 0 {
		l.Empty("No escape attempts recorded")
		return
	}
	l.Header("ESCAPE EFFECTIVENESS")
	l.Item("Attempts:     %d", m.AttemptCount)
	l.Item("Success rate: %s", xstrings.Percent(m.SuccessRate()))
	l.Item("Average gain: %.3f", m.AverageFlexibilityGain)
	if m.MostEffectiveProtocol != "" {
		l.Item("Most effective: %s (%.3f)", m.MostEffectiveProtocol, m.BestGain)
	}
	names := make([]string, 0, len(m.ByProtocol))
	for name := range m.ByProtocol {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := m.ByProtocol[name]
		l.Nested("%s: %d/%d", name, s.Successes, s.Attempts)
	}
}

// Assessment renders a tracked risk assessment.
func (l *Lists) Assessment(res escalation.Result) {
	l.Println("Escalation level %d  dismissals=%d  consecutive=%d",
		res.Level, res.Metrics.DismissalCount, res.Metrics.ConsecutiveLowConfidence)
	if len(res.Indicators) > 0 {
		l.Item("Risk indicators: %v", res.Indicators)
	}
	if res.Dismissal {
		l.Item("! low confidence on a genuine risk counts as a dismissal")
	}
	for _, p := range res.Patterns {
		l.Item("pattern %s: %s", p.Kind, p.Description)
	}
}
