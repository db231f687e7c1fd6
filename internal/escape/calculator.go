package escape

import (
	"fmt"
	"math"

	"github.com/uddhav/creative-thinking/internal/domain"
)

const (
	maxSuccessProbability = 0.95
	// largeGap is the force-vs-resources gap above which a warning is attached.
	largeGap = 0.3
)

// Requirements estimates what escaping the current path will take.
type Requirements struct {
	Protocol           string   `json:"protocol"`
	ConstraintStrength float64  `json:"constraint_strength"`
	EscapeForceNeeded  float64  `json:"escape_force_needed"`
	AvailableResources float64  `json:"available_resources"`
	Feasibility        float64  `json:"feasibility"`
	SuccessProbability float64  `json:"success_probability"`
	Warnings           []string `json:"warnings,omitempty"`
}

// ConstraintStrength combines active constraints and foreclosed options
// into one bounded figure.
func ConstraintStrength(mem *domain.PathMemory) float64 {
	return math.Min(1, 0.15*mem.TotalConstraintStrength()+0.05*float64(len(mem.ForeclosedOptions)))
}

// CalculateRequirements estimates force, feasibility and success chance
// of running the protocol at level against mem.
func CalculateRequirements(mem *domain.PathMemory, level Level) (Requirements, error) {
	p, err := Lookup(level)
	if err != nil {
		return Requirements{}, err
	}

	available := mem.Score()
	strength := ConstraintStrength(mem)
	// A rigid path needs more force; spare flexibility lowers it.
	force := domain.Clamp01(strength * (1.5 - available))

	feasibility := 1.0
	if force > 0 {
		feasibility = math.Min(1, available/force)
	}

	req := Requirements{
		Protocol:           p.Name,
		ConstraintStrength: strength,
		EscapeForceNeeded:  force,
		AvailableResources: available,
		Feasibility:        feasibility,
		SuccessProbability: math.Min(maxSuccessProbability, p.SuccessProbability*(0.5+0.5*feasibility)),
	}

	if gap := force - available; gap > largeGap {
		req.Warnings = append(req.Warnings, fmt.Sprintf(
			"escape force needed (%.2f) exceeds available flexibility (%.2f) by %.2f", force, available, gap))
	}
	if available < p.RequiredFlexibility {
		req.Warnings = append(req.Warnings, fmt.Sprintf(
			"%s requires flexibility %.2f, only %.2f available", p.Name, p.RequiredFlexibility, available))
	}
	if strength >= 0.8 {
		req.Warnings = append(req.Warnings, "path is heavily constrained; expect partial results")
	}
	return req, nil
}
