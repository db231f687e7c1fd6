// Package escape holds the tiered escape-protocol catalog, the calculator
// that estimates what an escape will take, and the executor that applies
// protocols and tracks how well they work.
package escape

import "sort"

// Level orders protocols from least to most disruptive.
type Level int

const (
	PatternInterruption Level = iota + 1
	ResourceReallocation
	StakeholderReset
	TechnicalRefactoring
	StrategicPivot
)

// Protocol is an immutable catalog entry.
type Protocol struct {
	Level               Level    `json:"level"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	RequiredFlexibility float64  `json:"required_flexibility"`
	SuccessProbability  float64  `json:"success_probability"`
	Duration            string   `json:"duration"`
	Steps               []string `json:"steps"`
	Risks               []string `json:"risks"`
	GainMin             float64  `json:"gain_min"`
	GainMax             float64  `json:"gain_max"`
	// RemovesConstraints lists the constraint types a success removes;
	// "all" matches every type.
	RemovesConstraints []string `json:"removes_constraints"`
	MaxRemovals        int      `json:"max_removals"`
	OpensOptions       []string `json:"opens_options"`
}

var catalog = map[Level]Protocol{
	PatternInterruption: {
		Level:               PatternInterruption,
		Name:                "Pattern Interruption",
		Description:         "Break the current thinking pattern with a deliberate change of frame",
		RequiredFlexibility: 0.15,
		SuccessProbability:  0.9,
		Duration:            "minutes",
		Steps: []string{
			"Stop and name the pattern you are repeating",
			"Apply a technique you have not used in this session",
			"Generate three options that contradict the current direction",
		},
		Risks:              []string{"Momentary loss of focus"},
		GainMin:            0.1,
		GainMax:            0.2,
		RemovesConstraints: []string{"cognitive"},
		MaxRemovals:        1,
		OpensOptions:       []string{"alternative-framing"},
	},
	ResourceReallocation: {
		Level:               ResourceReallocation,
		Name:                "Resource Reallocation",
		Description:         "Free committed resources and redirect them to open alternatives",
		RequiredFlexibility: 0.25,
		SuccessProbability:  0.8,
		Duration:            "hours to days",
		Steps: []string{
			"List every resource committed to the current path",
			"Release the commitments with the lowest sunk cost",
			"Fund a small alternative with the freed budget",
		},
		Risks:              []string{"Sunk costs are written off", "Short-term slowdown"},
		GainMin:            0.15,
		GainMax:            0.25,
		RemovesConstraints: []string{"resource", "budget", "time"},
		MaxRemovals:        2,
		OpensOptions:       []string{"reallocated-budget"},
	},
	StakeholderReset: {
		Level:               StakeholderReset,
		Name:                "Stakeholder Reset",
		Description:         "Renegotiate expectations and commitments with the people involved",
		RequiredFlexibility: 0.35,
		SuccessProbability:  0.7,
		Duration:            "days to weeks",
		Steps: []string{
			"Identify the commitments made to stakeholders",
			"Explain what changed and why the path must change",
			"Agree on new success criteria",
		},
		Risks:              []string{"Damaged trust", "Stakeholders may leave"},
		GainMin:            0.2,
		GainMax:            0.35,
		RemovesConstraints: []string{"stakeholder", "social"},
		MaxRemovals:        2,
		OpensOptions:       []string{"renegotiated-expectations"},
	},
	TechnicalRefactoring: {
		Level:               TechnicalRefactoring,
		Name:                "Technical Refactoring",
		Description:         "Pay down the structural shortcuts that lock the path in place",
		RequiredFlexibility: 0.45,
		SuccessProbability:  0.6,
		Duration:            "weeks",
		Steps: []string{
			"Map the technical constraints by how much they block change",
			"Refactor the most constraining component first",
			"Re-measure flexibility before continuing",
		},
		Risks:              []string{"Regressions", "Delivery delay"},
		GainMin:            0.25,
		GainMax:            0.4,
		RemovesConstraints: []string{"technical"},
		MaxRemovals:        3,
		OpensOptions:       []string{"refactored-architecture"},
	},
	StrategicPivot: {
		Level:               StrategicPivot,
		Name:                "Strategic Pivot",
		Description:         "Change direction at the strategic level and keep only what transfers",
		RequiredFlexibility: 0.6,
		SuccessProbability:  0.5,
		Duration:            "months",
		Steps: []string{
			"Write down the assets and lessons that transfer",
			"Choose a new direction that uses them",
			"Retire the old path explicitly",
		},
		Risks:              []string{"High cost", "Loss of accumulated position", "Team disruption"},
		GainMin:            0.35,
		GainMax:            0.5,
		RemovesConstraints: []string{"all"},
		MaxRemovals:        5,
		OpensOptions:       []string{"new-strategic-direction", "adjacent-opportunity"},
	},
}

// Catalog returns every protocol in ascending level order.
func Catalog() []Protocol {
	out := make([]Protocol, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

// Lookup returns the protocol for level.
func Lookup(level Level) (Protocol, error) {
	p, ok := catalog[level]
	if !ok {
		return Protocol{}, &UnknownProtocolError{Level: level}
	}
	return p, nil
}

// AvailableProtocols returns the protocols whose requirement is met, in
// ascending requirement order.
func AvailableProtocols(flexibility float64) []Protocol {
	var out []Protocol
	for _, p := range Catalog() {
		if p.RequiredFlexibility <= flexibility {
			out = append(out, p)
		}
	}
	return out
}

// Recommend picks a protocol available at flexibility: the least disruptive
// one, or the strongest one when strongest is set.
func Recommend(flexibility float64, strongest bool) (Protocol, bool) {
	avail := AvailableProtocols(flexibility)
	if len(avail) == 0 {
		return Protocol{}, false
	}
	if strongest {
		return avail[len(avail)-1], true
	}
	return avail[0], true
}
