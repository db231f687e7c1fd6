// Package escalation tracks how seriously risk assessments are taken and
// raises escalation levels when genuine risks are repeatedly dismissed.
package escalation

// Escalation thresholds.
const (
	warmupAssessments     = 5
	level2Dismissals      = 5
	level3Dismissals      = 8
	level4Dismissals      = 6
	consecutiveEscalation = 4
)

// Levels are 1 (observe) to 4 (high-stakes intervention).
const (
	LevelObserve   = 1
	LevelNudge     = 2
	LevelReengage  = 3
	LevelHighStake = 4
)

// ComputeLevel derives the escalation level from cumulative engagement
// metrics. highStakes is set when the assessment or the proposed action
// carries survival, irreversibility, systemic or total-commitment signals.
func ComputeLevel(m Metrics, highStakes bool) int {
	if highStakes && (m.ConsecutiveLowConfidence >= consecutiveEscalation || m.DismissalCount >= level4Dismissals) {
		return LevelHighStake
	}
	if m.TotalAssessments < warmupAssessments || len(m.DiscoveredRiskIndicators) == 0 {
		return LevelObserve
	}
	if m.DismissalCount >= level3Dismissals {
		return LevelReengage
	}
	if m.DismissalCount >= level2Dismissals ||
		(m.ConsecutiveLowConfidence >= consecutiveEscalation && len(m.DiscoveredRiskIndicators) > 0) {
		return LevelNudge
	}
	return LevelObserve
}

// RequiredConfidence is the minimum confidence a level asks for. Level 1
// asks for nothing.
func RequiredConfidence(level int) float64 {
	switch {
	case level >= LevelHighStake:
		return 0.7
	case level == LevelReengage:
		return 0.5
	case level == LevelNudge:
		return 0.3
	default:
		return 0
	}
}
