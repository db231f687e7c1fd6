// Package flexibility derives the flexibility score and its warnings from a
// path memory. Everything here is a pure function of its input.
package flexibility

import (
	"math"

	"github.com/uddhav/creative-thinking/internal/domain"
)

// Scoring weights.
const (
	// OpenGainPerOption is added per net option when a decision opens more
	// options than it closes.
	OpenGainPerOption = 0.08
	// MaxOpenGain caps the gain of a single opening decision.
	MaxOpenGain = 0.25
	// CommitmentPenalty scales reversibilityCost*commitmentLevel.
	CommitmentPenalty = 0.3
	// ClosedOptionPenalty is charged per closed option.
	ClosedOptionPenalty = 0.02
	// ConstraintPenalty scales strength*(1-flexibility) of each declared constraint.
	ConstraintPenalty = 0.1

	commitmentDecay = 0.85
	velocityWindow  = 5
)

// Metrics is the score plus its named components.
type Metrics struct {
	Score          float64 `json:"score"`
	Diversity      float64 `json:"diversity"`
	Reversibility  float64 `json:"reversibility"`
	Commitment     float64 `json:"commitment"`
	OptionVelocity float64 `json:"option_velocity"`
	PathDivergence float64 `json:"path_divergence"`
	EventCount     int     `json:"event_count"`
}

// EventDelta is the signed contribution of one event to the running score.
func EventDelta(e domain.PathEvent) float64 {
	if e.IsEscape() {
		return e.FlexibilityImpact
	}

	var delta float64
	if net := e.NetOptions(); net > 0 {
		delta = math.Min(MaxOpenGain, OpenGainPerOption*float64(net))
	} else {
		delta = -(CommitmentPenalty*e.ReversibilityCost*e.CommitmentLevel +
			ClosedOptionPenalty*float64(len(e.OptionsClosed)))
	}

	for _, c := range e.ConstraintsCreated {
		delta -= ConstraintPenalty * c.Strength * (1 - c.Flexibility)
	}
	return delta
}

// Score folds every event's delta over the history, starting at 1.0 and
// clamping to [0,1] after each step.
func Score(history []domain.PathEvent) float64 {
	score := 1.0
	for _, e := range history {
		score = domain.Clamp01(score + EventDelta(e))
	}
	return score
}

// Trajectory returns the score after each event, in order.
func Trajectory(history []domain.PathEvent) []float64 {
	out := make([]float64, 0, len(history))
	score := 1.0
	for _, e := range history {
		score = domain.Clamp01(score + EventDelta(e))
		out = append(out, score)
	}
	return out
}

// Calculate derives the metrics for a memory.
func Calculate(m *domain.PathMemory) Metrics {
	return Metrics{
		Score:          Score(m.History),
		Diversity:      diversity(m),
		Reversibility:  reversibility(m.History),
		Commitment:     commitment(m.History),
		OptionVelocity: optionVelocity(m.History),
		PathDivergence: pathDivergence(m.History),
		EventCount:     len(m.History),
	}
}

// State converts metrics into the persisted flexibility state, including
// the proximity of every registered barrier.
func State(metrics Metrics, barriers []domain.Barrier) domain.FlexibilityState {
	state := domain.FlexibilityState{
		FlexibilityScore:   metrics.Score,
		ReversibilityIndex: metrics.Reversibility,
		PathDivergence:     metrics.PathDivergence,
		OptionVelocity:     metrics.OptionVelocity,
		CommitmentDepth:    metrics.Commitment,
		BarrierProximity:   make(map[string]float64, len(barriers)),
	}
	for _, b := range barriers {
		state.BarrierProximity[b.ID] = BarrierProximity(b, metrics)
	}
	return state
}

// BarrierProximity estimates how close the path is to a barrier.
// Creative barriers track lost option diversity; critical barriers track
// deep commitment.
func BarrierProximity(b domain.Barrier, metrics Metrics) float64 {
	if metrics.EventCount == 0 {
		return 0
	}
	lost := 1 - metrics.Score

	var p float64
	switch b.Category {
	case domain.BarrierCreative:
		p = 0.5*lost + 0.5*(1-metrics.Diversity)
	default:
		p = 0.6*lost + 0.4*metrics.Commitment
	}
	if b.Impact == domain.ImpactIrreversible {
		p *= 1.1
	}
	return domain.Clamp01(p)
}

func diversity(m *domain.PathMemory) float64 {
	total := len(m.AvailableOptions) + len(m.ForeclosedOptions)
	if total == 0 {
		return 1
	}
	return float64(len(m.AvailableOptions)) / float64(total)
}

func reversibility(history []domain.PathEvent) float64 {
	var sum float64
	var n int
	for _, e := range history {
		if e.IsEscape() {
			continue
		}
		sum += e.ReversibilityCost
		n++
	}
	if n == 0 {
		return 1
	}
	return 1 - sum/float64(n)
}

// commitment is an exponentially time-decayed mean: recent decisions weigh most.
func commitment(history []domain.PathEvent) float64 {
	var num, den float64
	w := 1.0
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		if !e.IsEscape() {
			num += w * e.CommitmentLevel
			den += w
		}
		w *= commitmentDecay
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func optionVelocity(history []domain.PathEvent) float64 {
	start := len(history) - velocityWindow
	if start < 0 {
		start = 0
	}
	window := history[start:]
	if len(window) == 0 {
		return 0
	}
	var net int
	for _, e := range window {
		net += e.NetOptions()
	}
	return float64(net) / float64(len(window))
}

func pathDivergence(history []domain.PathEvent) float64 {
	var closing, n int
	for _, e := range history {
		if e.IsEscape() {
			continue
		}
		n++
		if len(e.OptionsClosed) > 0 {
			closing++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(closing) / float64(n)
}
