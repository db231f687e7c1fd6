package sensor

import (
	"context"
	"math"

	"github.com/uddhav/creative-thinking/internal/domain"
)

var resourceConstraintTypes = map[string]bool{
	"resource": true,
	"budget":   true,
	"time":     true,
	"staff":    true,
}

// Resource watches for resource depletion: deep commitment, a shrinking
// budget and resource-type constraints.
type Resource struct {
	*base
}

// NewResource creates a resource sensor.
func NewResource(opts ...Option) *Resource {
	return &Resource{base: newBase(TypeResource, []string{domain.SubtypeResourceDepletion}, opts)}
}

// Measure estimates proximity to resource depletion.
func (s *Resource) Measure(ctx context.Context, mem *domain.PathMemory, sc domain.SessionContext) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}

	commitment := mem.CurrentFlexibility.CommitmentDepth
	confidence := historyConfidence(len(mem.History))

	var usage float64
	if sc.ResourcesRemaining != nil {
		usage = 1 - domain.Clamp01(*sc.ResourcesRemaining)
	} else {
		// Without a budget figure, progress is the best proxy for spend.
		usage = 0.5 * sc.Progress()
		confidence *= 0.7
	}

	var load float64
	for _, c := range mem.Constraints {
		if resourceConstraintTypes[c.Type] {
			load += c.Strength
		}
	}
	load = math.Min(1, load/2)

	m := measurement{
		raw:        0.35*commitment + 0.4*usage + 0.25*load,
		confidence: confidence,
		context: map[string]float64{
			"commitment":      commitment,
			"usage":           usage,
			"constraint_load": load,
		},
	}
	if sc.TimePressure.High() {
		m.context["time_pressure"] = 1
		m.indicators = append(m.indicators, "time pressure")
	}
	if usage > 0.7 {
		m.indicators = append(m.indicators, "low resources remaining")
	}
	if commitment > 0.7 {
		m.indicators = append(m.indicators, "high commitment")
	}
	if load > 0.5 {
		m.indicators = append(m.indicators, "resource constraints accumulating")
	}
	return s.finish(m), nil
}
