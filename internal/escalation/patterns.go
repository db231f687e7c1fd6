package escalation

import (
	"fmt"
	"time"
)

// PatternKind names a dismissal pattern.
type PatternKind string

const (
	PatternConsecutive   PatternKind = "consecutive"
	PatternRapid         PatternKind = "rapid"
	PatternContradictory PatternKind = "contradictory"
)

// Pattern is a detected dismissal pattern.
type Pattern struct {
	Kind        PatternKind `json:"kind"`
	Severity    string      `json:"severity"`
	Count       int         `json:"count"`
	Description string      `json:"description"`
}

const (
	rapidWindow = 60 * time.Second
	rapidCount  = 3
)

// DetectPatterns looks for consecutive, rapid and contradictory dismissals
// given the updated metrics and the latest assessment.
func DetectPatterns(m Metrics, latest Assessment, now time.Time) []Pattern {
	var out []Pattern

	if n := m.ConsecutiveLowConfidence; n >= 3 {
		sev := "medium"
		switch {
		case n >= 6:
			sev = "critical"
		case n >= 4:
			sev = "high"
		}
		out = append(out, Pattern{
			Kind:        PatternConsecutive,
			Severity:    sev,
			Count:       n,
			Description: fmt.Sprintf("%d risk assessments in a row with low confidence", n),
		})
	}

	var rapid int
	for _, r := range m.History {
		if r.Dismissal && now.Sub(r.Timestamp) <= rapidWindow {
			rapid++
		}
	}
	if rapid >= rapidCount {
		out = append(out, Pattern{
			Kind:        PatternRapid,
			Severity:    "high",
			Count:       rapid,
			Description: fmt.Sprintf("%d dismissals within %s", rapid, rapidWindow),
		})
	}

	switch {
	case latest.SurvivalThreat && latest.Confidence < 0.3:
		out = append(out, Pattern{
			Kind:        PatternContradictory,
			Severity:    "critical",
			Count:       1,
			Description: fmt.Sprintf("survival threat acknowledged with only %.0f%% confidence", latest.Confidence*100),
		})
	case latest.Irreversible && latest.Confidence < 0.5:
		out = append(out, Pattern{
			Kind:        PatternContradictory,
			Severity:    "high",
			Count:       1,
			Description: fmt.Sprintf("irreversible action acknowledged with only %.0f%% confidence", latest.Confidence*100),
		})
	}
	return out
}
