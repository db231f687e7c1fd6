package escalation

import (
	"fmt"
	"strings"
)

// Prompt is the behavioral feedback shown at an escalation level.
// Level 3 and above ask for re-engagement but never block progress.
type Prompt struct {
	Level                int      `json:"level"`
	RequiredConfidence   float64  `json:"required_confidence"`
	Title                string   `json:"title"`
	Message              string   `json:"message"`
	Questions            []string `json:"questions,omitempty"`
	RequiresReengagement bool     `json:"requires_reengagement"`
	LocksProgress        bool     `json:"locks_progress"`
}

// GeneratePrompt renders feedback for level. Level 1 has no prompt.
func GeneratePrompt(level int, m Metrics, patterns []Pattern) *Prompt {
	if level <= LevelObserve {
		return nil
	}
	p := &Prompt{
		Level:              level,
		RequiredConfidence: RequiredConfidence(level),
	}

	var b strings.Builder
	switch {
	case level >= LevelHighStake:
		p.Title = "HIGH-STAKES RISK: RE-ENGAGEMENT REQUIRED"
		fmt.Fprintf(&b, "You are proposing a high-stakes action after dismissing %d genuine risk(s). ", m.DismissalCount)
		b.WriteString("Before the next step, state the worst realistic outcome and how you would survive it.")
		p.Questions = []string{
			"What is the worst realistic outcome of this action?",
			"Could you recover from it? How, and how long would it take?",
			"What would you need to see to stop?",
			"Who else is affected if this fails?",
		}
		p.RequiresReengagement = true
	case level == LevelReengage:
		p.Title = "RE-ENGAGEMENT REQUIRED"
		fmt.Fprintf(&b, "%d risk assessments have been dismissed with low confidence. ", m.DismissalCount)
		b.WriteString("Take the next risk assessment seriously before continuing.")
		p.Questions = []string{
			"Which of the discovered risks are you least sure about?",
			"What evidence would change your assessment?",
		}
		p.RequiresReengagement = true
	default:
		p.Title = "Risk engagement check"
		fmt.Fprintf(&b, "Several risks were assessed with low confidence (%d so far). ", m.DismissalCount)
		b.WriteString("Consider revisiting them before committing further.")
		p.Questions = []string{"Which risk would hurt most if it materialised?"}
	}

	if len(m.DiscoveredRiskIndicators) > 0 {
		fmt.Fprintf(&b, " Discovered risk indicators: %s.", strings.Join(m.DiscoveredRiskIndicators, ", "))
	}
	for _, pat := range patterns {
		fmt.Fprintf(&b, " Pattern (%s, %s): %s.", pat.Kind, pat.Severity, pat.Description)
	}
	fmt.Fprintf(&b, " Minimum confidence for the next assessment: %.0f%%.", p.RequiredConfidence*100)

	p.Message = b.String()
	return p
}
