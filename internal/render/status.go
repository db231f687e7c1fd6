package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/engine"
	"github.com/uddhav/creative-thinking/internal/escalation"
	"github.com/uddhav/creative-thinking/internal/flexibility"
	xstrings "github.com/uddhav/creative-thinking/internal/strings"
	"github.com/uddhav/creative-thinking/internal/warning"
)

// Display limits of the status block.
const (
	MaxWarnings       = 3
	RouteDisplayBelow = flexibility.CautionThreshold
	messageWidth      = 72
)

// StatusView is everything the status block shows.
type StatusView struct {
	SessionID    string                   `json:"session_id"`
	Problem      string                   `json:"problem,omitempty"`
	Flexibility  engine.FlexibilityReport `json:"flexibility"`
	EarlyWarning *warning.State           `json:"early_warning,omitempty"`
	Prompt       *escalation.Prompt       `json:"prompt,omitempty"`
}

// Renderer handles status output. Pretty output is coloured and boxed.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

var box = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

// Status renders the session status block: a metrics summary, the top
// active warnings, escape routes when flexibility is low and the current
// escalation prompt.
func (r *Renderer) Status(v StatusView) string {
	var sb strings.Builder

	title := "Session " + v.SessionID
	if v.Problem != "" {
		title += ": " + xstrings.Truncate(v.Problem, 48)
	}
	sb.WriteString(r.title(title) + "\n")

	m := v.Flexibility.Metrics
	fmt.Fprintf(&sb, "Flexibility: %s  (diversity %.2f, reversibility %.2f, commitment %.2f, velocity %+.2f)\n",
		r.score(m.Score), m.Diversity, m.Reversibility, m.Commitment, m.OptionVelocity)
	fmt.Fprintf(&sb, "Decisions: %d  Constraints: %d  Divergence: %.2f\n",
		m.EventCount, v.Flexibility.Constraints, m.PathDivergence)

	for _, w := range v.Flexibility.Warnings {
		sb.WriteString(r.threshold(w) + "\n")
	}

	if st := v.EarlyWarning; st != nil {
		compound := ""
		if st.CompoundRisk {
			compound = "  " + r.paint(domain.LevelCritical, "compound risk")
		}
		fmt.Fprintf(&sb, "Risk: %s %s  Action: %s%s\n",
			r.paint(st.OverallRisk, LevelGlyph(st.OverallRisk)), r.paint(st.OverallRisk, st.OverallRisk.String()),
			strings.ToUpper(string(st.RecommendedAction)), compound)

		shown := st.ActiveWarnings
		if len(shown) > MaxWarnings {
			shown = shown[:MaxWarnings]
		}
		for _, w := range shown {
			line := fmt.Sprintf("%s %s", r.paint(w.Severity, LevelGlyph(w.Severity)), w.Message)
			if w.StepsToImpact != nil {
				line += fmt.Sprintf(" (impact in ~%d steps)", *w.StepsToImpact)
			}
			sb.WriteString(xstrings.Indent(xstrings.WordWrap(line, messageWidth), "  ") + "\n")
		}
		if more := len(st.ActiveWarnings) - len(shown); more > 0 {
			fmt.Fprintf(&sb, "  … %d more\n", more)
		}
	}

	if m.Score < RouteDisplayBelow && len(v.Flexibility.EscapeRoutes) > 0 {
		sb.WriteString("Escape routes:\n")
		for i, route := range v.Flexibility.EscapeRoutes {
			fmt.Fprintf(&sb, "  %d. %s  %s feasible\n", i+1, route.Name, xstrings.Percent(route.Feasibility))
		}
	}

	if p := v.Prompt; p != nil {
		sb.WriteString(r.paint(domain.LevelWarning, fmt.Sprintf("Escalation %d: %s", p.Level, p.Title)) + "\n")
		sb.WriteString(xstrings.Indent(xstrings.WordWrap(p.Message, messageWidth), "  ") + "\n")
		for _, q := range p.Questions {
			fmt.Fprintf(&sb, "  - %s\n", q)
		}
		if p.RequiredConfidence > 0 {
			fmt.Fprintf(&sb, "  Unlock with confidence >= %.1f and a justification.\n", p.RequiredConfidence)
		}
	}

	out := strings.TrimRight(sb.String(), "\n")
	if r.pretty {
		return box.Render(out)
	}
	return out
}

func (r *Renderer) title(s string) string {
	if r.pretty {
		return color.New(color.FgCyan, color.Bold).Sprint(s)
	}
	return s
}

func (r *Renderer) score(s float64) string {
	text := fmt.Sprintf("%.2f", s)
	switch {
	case s < flexibility.CriticalThreshold:
		return r.paint(domain.LevelCritical, text)
	case s < flexibility.CautionThreshold:
		return r.paint(domain.LevelWarning, text)
	default:
		return r.paint(domain.LevelSafe, text)
	}
}

func (r *Renderer) threshold(w flexibility.Warning) string {
	level := domain.LevelCaution
	if w.Severity == flexibility.SeverityCritical {
		level = domain.LevelCritical
	}
	return fmt.Sprintf("%s %s", r.paint(level, "!"), w.Message)
}

func (r *Renderer) paint(level domain.WarningLevel, s string) string {
	if !r.pretty {
		return s
	}
	switch level {
	case domain.LevelCaution:
		return color.YellowString(s)
	case domain.LevelWarning:
		return color.HiYellowString(s)
	case domain.LevelCritical:
		return color.RedString(s)
	default:
		return color.GreenString(s)
	}
}
