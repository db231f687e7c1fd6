package flexibility

import (
	"fmt"

	"github.com/uddhav/creative-thinking/internal/domain"
)

// Thresholds below which the score raises a warning.
const (
	CautionThreshold  = 0.4
	CriticalThreshold = 0.2
)

// Severity of a threshold warning.
type Severity string

const (
	SeverityCaution  Severity = "caution"
	SeverityCritical Severity = "critical"
)

// Warning is a threshold-based warning about the current state.
type Warning struct {
	Severity  Severity `json:"severity"`
	Kind      string   `json:"kind"` // flexibility, barrier
	Message   string   `json:"message"`
	Value     float64  `json:"value"`
	Threshold float64  `json:"threshold"`
	BarrierID string   `json:"barrier_id,omitempty"`
}

// GenerateWarnings reports the thresholds the current state is below.
// It reflects the present only: one flexibility warning at most, at the
// deepest threshold crossed, and one per barrier at or past its threshold.
func GenerateWarnings(metrics Metrics, barriers []domain.Barrier, proximity map[string]float64) []Warning {
	var warnings []Warning

	switch {
	case metrics.Score < CriticalThreshold:
		warnings = append(warnings, Warning{
			Severity:  SeverityCritical,
			Kind:      "flexibility",
			Message:   fmt.Sprintf("Flexibility critically low (%.0f%%): most options are foreclosed", metrics.Score*100),
			Value:     metrics.Score,
			Threshold: CriticalThreshold,
		})
	case metrics.Score < CautionThreshold:
		warnings = append(warnings, Warning{
			Severity:  SeverityCaution,
			Kind:      "flexibility",
			Message:   fmt.Sprintf("Flexibility declining (%.0f%%): consider keeping options open", metrics.Score*100),
			Value:     metrics.Score,
			Threshold: CautionThreshold,
		})
	}

	for _, b := range barriers {
		p, ok := proximity[b.ID]
		if !ok || p < b.WarningThreshold {
			continue
		}
		sev := SeverityCaution
		if b.Impact == domain.ImpactIrreversible || p >= 0.8 {
			sev = SeverityCritical
		}
		warnings = append(warnings, Warning{
			Severity:  sev,
			Kind:      "barrier",
			Message:   fmt.Sprintf("Approaching %s (%.0f%% proximity)", b.Name, p*100),
			Value:     p,
			Threshold: b.WarningThreshold,
			BarrierID: b.ID,
		})
	}

	return warnings
}
