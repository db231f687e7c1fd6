package sensor

import (
	"context"
	"math"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/flexibility"
)

const cognitiveWindow = 5

// Cognitive watches for lock-in and paralysis: one technique used over and
// over, a collapsing option set, or long stretches without commitment.
type Cognitive struct {
	*base
}

// NewCognitive creates a cognitive sensor.
func NewCognitive(opts ...Option) *Cognitive {
	return &Cognitive{base: newBase(TypeCognitive,
		[]string{domain.SubtypeCognitiveLockIn, domain.SubtypeAnalysisParalysis}, opts)}
}

// Measure estimates proximity to cognitive lock-in or analysis paralysis.
func (s *Cognitive) Measure(ctx context.Context, mem *domain.PathMemory, sc domain.SessionContext) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}

	metrics := flexibility.Calculate(mem)
	window := recent(mem.History, cognitiveWindow)

	repetition := techniqueRepetition(window)
	lowDiversity := 1 - metrics.Diversity
	shrinking := domain.Clamp01(-metrics.OptionVelocity / 2)

	var paralysis float64
	if len(mem.History) >= cognitiveWindow && metrics.Commitment < 0.2 && math.Abs(metrics.OptionVelocity) < 0.5 {
		paralysis = 0.6 + 0.4*sc.Progress()
	}

	lockIn := 0.4*repetition + 0.35*lowDiversity + 0.25*shrinking

	m := measurement{
		raw:        math.Max(lockIn, paralysis),
		confidence: historyConfidence(len(mem.History)),
		context: map[string]float64{
			"repetition":    repetition,
			"low_diversity": lowDiversity,
			"shrinking":     shrinking,
			"paralysis":     paralysis,
		},
	}
	if repetition >= 0.75 {
		m.indicators = append(m.indicators, "technique repetition")
	}
	if lowDiversity > 0.6 {
		m.indicators = append(m.indicators, "low option diversity")
	}
	if shrinking > 0.3 {
		m.indicators = append(m.indicators, "shrinking option space")
	}
	if paralysis > 0 {
		m.indicators = append(m.indicators, "analysis paralysis")
	}
	return s.finish(m), nil
}

// techniqueRepetition is 0 when every event used a different technique and
// 1 when all used the same one.
func techniqueRepetition(events []domain.PathEvent) float64 {
	if len(events) < 2 {
		return 0
	}
	counts := make(map[string]int)
	var most int
	for _, e := range events {
		counts[e.Technique]++
		if counts[e.Technique] > most {
			most = counts[e.Technique]
		}
	}
	return float64(most-1) / float64(len(events)-1)
}
