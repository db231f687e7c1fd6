package domain

// BarrierCategory groups absorbing barriers by the kind of failure.
type BarrierCategory string

const (
	BarrierCreative BarrierCategory = "creative"
	BarrierCritical BarrierCategory = "critical"
)

// BarrierImpact describes how hard it is to come back from a barrier.
type BarrierImpact string

const (
	ImpactReversible   BarrierImpact = "reversible"
	ImpactDifficult    BarrierImpact = "difficult"
	ImpactIrreversible BarrierImpact = "irreversible"
)

// Barrier subtypes watched by the built-in sensors.
const (
	SubtypeCognitiveLockIn    = "cognitive_lock_in"
	SubtypeAnalysisParalysis  = "analysis_paralysis"
	SubtypePerfectionism      = "perfectionism"
	SubtypeResourceDepletion  = "resource_depletion"
	SubtypeTechnicalDebt      = "technical_debt_spiral"
	SubtypeReputationCollapse = "reputation_collapse"
)

// Barrier is a modeled failure state. Only Proximity changes over time.
type Barrier struct {
	ID                  string          `json:"id"`
	Category            BarrierCategory `json:"category"`
	Subtype             string          `json:"subtype"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Proximity           float64         `json:"proximity"`
	Impact              BarrierImpact   `json:"impact"`
	WarningThreshold    float64         `json:"warning_threshold"`
	AvoidanceStrategies []string        `json:"avoidance_strategies,omitempty"`
	Indicators          []string        `json:"indicators,omitempty"`
}

// Approaching reports whether proximity has reached the warning threshold.
func (b Barrier) Approaching() bool {
	return b.Proximity >= b.WarningThreshold
}
