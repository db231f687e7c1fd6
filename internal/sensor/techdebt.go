package sensor

import (
	"context"
	"math"
	"strings"

	"github.com/uddhav/creative-thinking/internal/domain"
)

const techDebtWindow = 10

var quickFixWords = []string{"quick", "hack", "temporary", "workaround", "later", "shortcut", "patch"}

// TechnicalDebt watches for a technical-debt spiral: quick fixes, falling
// reversibility and piling constraints.
type TechnicalDebt struct {
	*base
}

// NewTechnicalDebt creates a technical-debt sensor.
func NewTechnicalDebt(opts ...Option) *TechnicalDebt {
	return &TechnicalDebt{base: newBase(TypeTechnicalDebt, []string{domain.SubtypeTechnicalDebt}, opts)}
}

// Measure estimates proximity to a technical-debt spiral.
func (s *TechnicalDebt) Measure(ctx context.Context, mem *domain.PathMemory, _ domain.SessionContext) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}

	window := recent(mem.History, techDebtWindow)
	var quick int
	for _, e := range window {
		if isQuickFix(e.Decision) {
			quick++
		}
	}
	var quickShare float64
	if len(window) > 0 {
		quickShare = float64(quick) / float64(len(window))
	}

	reversibilityLoss := 0.0
	if len(mem.History) > 0 {
		reversibilityLoss = 1 - mem.CurrentFlexibility.ReversibilityIndex
	}
	load := math.Min(1, mem.TotalConstraintStrength()/3)

	m := measurement{
		raw:        0.4*quickShare + 0.35*reversibilityLoss + 0.25*load,
		confidence: historyConfidence(len(mem.History)),
		context: map[string]float64{
			"quick_fix_share":    quickShare,
			"reversibility_loss": reversibilityLoss,
			"constraint_load":    load,
		},
	}
	if quickShare >= 0.3 {
		m.indicators = append(m.indicators, "quick fixes")
	}
	if reversibilityLoss > 0.6 {
		m.indicators = append(m.indicators, "falling reversibility")
	}
	if load > 0.5 {
		m.indicators = append(m.indicators, "accumulating constraints")
	}
	return s.finish(m), nil
}

func isQuickFix(decision string) bool {
	d := strings.ToLower(decision)
	for _, w := range quickFixWords {
		if strings.Contains(d, w) {
			return true
		}
	}
	return false
}
