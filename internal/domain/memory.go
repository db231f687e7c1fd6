package domain

// PathMemory is the aggregate root of a session's decision history.
// It is owned by exactly one session and mutated only by recording.
type PathMemory struct {
	History            []PathEvent      `json:"history"`
	Constraints        []Constraint     `json:"constraints"`
	ForeclosedOptions  []string         `json:"foreclosed_options"`
	AvailableOptions   []string         `json:"available_options"`
	AbsorbingBarriers  []Barrier        `json:"absorbing_barriers"`
	CurrentFlexibility FlexibilityState `json:"current_flexibility"`
	CriticalDecisions  []string         `json:"critical_decisions,omitempty"`
	EscapeRoutes       []EscapeRoute    `json:"escape_routes,omitempty"`
}

// NewPathMemory returns an empty memory at full flexibility.
func NewPathMemory() *PathMemory {
	return &PathMemory{
		History:           make([]PathEvent, 0),
		Constraints:       make([]Constraint, 0),
		ForeclosedOptions: make([]string, 0),
		AvailableOptions:  make([]string, 0),
		AbsorbingBarriers: make([]Barrier, 0),
		CurrentFlexibility: FlexibilityState{
			FlexibilityScore:   1.0,
			ReversibilityIndex: 1.0,
			BarrierProximity:   make(map[string]float64),
		},
	}
}

// Score is a shorthand for the current flexibility score.
func (m *PathMemory) Score() float64 {
	return m.CurrentFlexibility.FlexibilityScore
}

// TotalConstraintStrength sums the strength of every active constraint.
func (m *PathMemory) TotalConstraintStrength() float64 {
	var sum float64
	for _, c := range m.Constraints {
		sum += c.Strength
	}
	return sum
}

// Barrier returns the registered barrier with the given subtype.
func (m *PathMemory) Barrier(subtype string) (Barrier, bool) {
	for _, b := range m.AbsorbingBarriers {
		if b.Subtype == subtype {
			return b, true
		}
	}
	return Barrier{}, false
}

// Clone returns a deep copy safe to hand to concurrent readers.
func (m *PathMemory) Clone() *PathMemory {
	out := &PathMemory{
		History:            make([]PathEvent, len(m.History)),
		Constraints:        append([]Constraint(nil), m.Constraints...),
		ForeclosedOptions:  append([]string(nil), m.ForeclosedOptions...),
		AvailableOptions:   append([]string(nil), m.AvailableOptions...),
		AbsorbingBarriers:  append([]Barrier(nil), m.AbsorbingBarriers...),
		CurrentFlexibility: m.CurrentFlexibility,
		CriticalDecisions:  append([]string(nil), m.CriticalDecisions...),
		EscapeRoutes:       append([]EscapeRoute(nil), m.EscapeRoutes...),
	}
	copy(out.History, m.History)
	out.CurrentFlexibility.BarrierProximity = make(map[string]float64, len(m.CurrentFlexibility.BarrierProximity))
	for k, v := range m.CurrentFlexibility.BarrierProximity {
		out.CurrentFlexibility.BarrierProximity[k] = v
	}
	return out
}
