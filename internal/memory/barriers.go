package memory

import "github.com/uddhav/creative-thinking/internal/domain"

// DefaultBarriers is the registry every new session starts with.
func DefaultBarriers() []domain.Barrier {
	return []domain.Barrier{
		{
			ID:               "creative-" + domain.SubtypeCognitiveLockIn,
			Category:         domain.BarrierCreative,
			Subtype:          domain.SubtypeCognitiveLockIn,
			Name:             "Cognitive Lock-in",
			Description:      "Thinking collapses onto one frame and stops generating alternatives",
			Impact:           domain.ImpactDifficult,
			WarningThreshold: 0.6,
			AvoidanceStrategies: []string{
				"Switch to a technique you have not used yet",
				"Argue the opposite of the current favourite",
			},
			Indicators: []string{"repeated technique", "no new options", "shrinking option set"},
		},
		{
			ID:               "creative-" + domain.SubtypeAnalysisParalysis,
			Category:         domain.BarrierCreative,
			Subtype:          domain.SubtypeAnalysisParalysis,
			Name:             "Analysis Paralysis",
			Description:      "Evaluation never ends and no option is ever committed to",
			Impact:           domain.ImpactReversible,
			WarningThreshold: 0.7,
			AvoidanceStrategies: []string{
				"Set a decision deadline",
				"Pick a reversible option and learn from it",
			},
			Indicators: []string{"long sessions without commitment", "option velocity near zero"},
		},
		{
			ID:               "creative-" + domain.SubtypePerfectionism,
			Category:         domain.BarrierCreative,
			Subtype:          domain.SubtypePerfectionism,
			Name:             "Perfectionism",
			Description:      "Refinement of one option crowds out exploration",
			Impact:           domain.ImpactReversible,
			WarningThreshold: 0.7,
			AvoidanceStrategies: []string{
				"Define good enough before refining",
				"Timebox polishing",
			},
			Indicators: []string{"many steps on a single option"},
		},
		{
			ID:               "critical-" + domain.SubtypeResourceDepletion,
			Category:         domain.BarrierCritical,
			Subtype:          domain.SubtypeResourceDepletion,
			Name:             "Resource Depletion",
			Description:      "Budget, time or energy runs out before a viable path is found",
			Impact:           domain.ImpactIrreversible,
			WarningThreshold: 0.5,
			AvoidanceStrategies: []string{
				"Reserve a fixed share of resources for recovery",
				"Stage commitments so each can be stopped",
			},
			Indicators: []string{"high commitment", "low resources remaining"},
		},
		{
			ID:               "critical-" + domain.SubtypeTechnicalDebt,
			Category:         domain.BarrierCritical,
			Subtype:          domain.SubtypeTechnicalDebt,
			Name:             "Technical Debt Spiral",
			Description:      "Shortcuts compound until every change is expensive",
			Impact:           domain.ImpactDifficult,
			WarningThreshold: 0.6,
			AvoidanceStrategies: []string{
				"Pay down the most constraining shortcut first",
				"Refuse new workarounds on top of old ones",
			},
			Indicators: []string{"quick fixes", "accumulating constraints", "falling reversibility"},
		},
		{
			ID:               "critical-" + domain.SubtypeReputationCollapse,
			Category:         domain.BarrierCritical,
			Subtype:          domain.SubtypeReputationCollapse,
			Name:             "Reputation Collapse",
			Description:      "Trust with stakeholders is lost and cannot be rebuilt quickly",
			Impact:           domain.ImpactIrreversible,
			WarningThreshold: 0.5,
			AvoidanceStrategies: []string{
				"Communicate changes of direction early",
				"Avoid public commitments you cannot reverse",
			},
			Indicators: []string{"public commitments", "irreversible announcements"},
		},
	}
}
