package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/uddhav/creative-thinking/internal/domain"
)

// routeReach is how far above the current score a route may require and
// still be proposed.
const routeReach = 0.2

// GenerateEscapeRoutes proposes routes whose requirement is within reach of
// the current score, ranked by feasibility then by requirement. It does not
// modify mem.
func GenerateEscapeRoutes(mem *domain.PathMemory) []domain.EscapeRoute {
	score := mem.Score()

	candidates := []domain.EscapeRoute{
		{
			ID:                  "reframe",
			Name:                "Reframe the problem",
			Description:         "Restate the goal without the assumptions the recent decisions baked in",
			RequiredFlexibility: 0.1,
			Cost:                0.1,
			Steps: []string{
				"Write the goal in one sentence without naming a solution",
				"List the assumptions behind the last three decisions",
				"Drop one assumption and generate options again",
			},
		},
	}

	if n := len(mem.ForeclosedOptions); n > 0 {
		names := mem.ForeclosedOptions
		if len(names) > 3 {
			names = names[:3]
		}
		candidates = append(candidates, domain.EscapeRoute{
			ID:                  "reopen",
			Name:                "Reopen a foreclosed option",
			Description:         fmt.Sprintf("Revisit %d closed option(s): %s", n, strings.Join(names, ", ")),
			RequiredFlexibility: 0.15,
			Cost:                0.2,
			Steps: []string{
				"Pick the closed option with the lowest switching cost",
				"Check what changed since it was closed",
				"Record it as opened again if it still fits",
			},
		})
	}

	if strongest, ok := strongestConstraint(mem.Constraints); ok {
		candidates = append(candidates, domain.EscapeRoute{
			ID:                  "relax-constraint",
			Name:                "Relax the strongest constraint",
			Description:         fmt.Sprintf("Negotiate or remove %q (strength %.2f)", strongest.Description, strongest.Strength),
			RequiredFlexibility: 0.25,
			Cost:                0.3,
			Steps: []string{
				"Identify who or what imposes the constraint",
				"Find the smallest change that loosens it",
				"Apply it and re-measure flexibility",
			},
		})
	}

	candidates = append(candidates, domain.EscapeRoute{
		ID:                  "parallel",
		Name:                "Explore in parallel",
		Description:         "Keep the current path but run a cheap experiment on an alternative",
		RequiredFlexibility: 0.35,
		Cost:                0.4,
		Steps: []string{
			"Reserve a small budget for the alternative",
			"Define the signal that would justify switching",
		},
	})

	if len(mem.CriticalDecisions) > 0 {
		candidates = append(candidates, domain.EscapeRoute{
			ID:                  "step-back",
			Name:                "Step back to the last reversible decision",
			Description:         fmt.Sprintf("Undo work since decision %s", mem.CriticalDecisions[len(mem.CriticalDecisions)-1]),
			RequiredFlexibility: 0.45,
			Cost:                0.6,
			Steps: []string{
				"Find the last decision that can still be reversed",
				"Estimate the cost of undoing everything after it",
				"Roll back if the cost is below the cost of continuing",
			},
		})
	}

	candidates = append(candidates, domain.EscapeRoute{
		ID:                  "fresh-start",
		Name:                "Fresh start",
		Description:         "Restart from the original problem keeping only the lessons learned",
		RequiredFlexibility: 0.7,
		Cost:                0.9,
		Steps: []string{
			"Write down what was learned",
			"Archive the current path",
			"Begin again with a different technique",
		},
	})

	routes := make([]domain.EscapeRoute, 0, len(candidates))
	for _, r := range candidates {
		if r.RequiredFlexibility > score+routeReach {
			continue
		}
		r.Feasibility = score / r.RequiredFlexibility
		if r.Feasibility > 1 {
			r.Feasibility = 1
		}
		routes = append(routes, r)
	}

	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Feasibility != routes[j].Feasibility {
			return routes[i].Feasibility > routes[j].Feasibility
		}
		return routes[i].RequiredFlexibility < routes[j].RequiredFlexibility
	})
	return routes
}

func strongestConstraint(cs []domain.Constraint) (domain.Constraint, bool) {
	if len(cs) == 0 {
		return domain.Constraint{}, false
	}
	best := cs[0]
	for _, c := range cs[1:] {
		if c.Strength > best.Strength {
			best = c
		}
	}
	return best, true
}
