// Package domain defines the records of path-dependency tracking.
// Every type here is plain data so a session can be persisted and restored
// without loss.
package domain

import (
	"sort"
	"time"
)

// TechniqueEscape tags path events appended by an escape protocol execution.
const TechniqueEscape = "escape_protocol"

// Constraint is a commitment that narrows future options.
type Constraint struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	Description       string    `json:"description"`
	Strength          float64   `json:"strength"`
	Flexibility       float64   `json:"flexibility"`
	ReversibilityCost float64   `json:"reversibility_cost"`
	EventID           string    `json:"event_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// PathEvent is an immutable record of one decision.
type PathEvent struct {
	ID                 string       `json:"id"`
	Timestamp          time.Time    `json:"timestamp"`
	Technique          string       `json:"technique"`
	Step               int          `json:"step"`
	Decision           string       `json:"decision"`
	OptionsOpened      []string     `json:"options_opened,omitempty"`
	OptionsClosed      []string     `json:"options_closed,omitempty"`
	ReversibilityCost  float64      `json:"reversibility_cost"`
	CommitmentLevel    float64      `json:"commitment_level"`
	ConstraintsCreated []Constraint `json:"constraints_created,omitempty"`
	FlexibilityImpact  float64      `json:"flexibility_impact"`
}

// IsEscape reports whether the event was produced by an escape protocol.
func (e PathEvent) IsEscape() bool {
	return e.Technique == TechniqueEscape
}

// NetOptions is the number of options opened minus the number closed.
func (e PathEvent) NetOptions() int {
	return len(e.OptionsOpened) - len(e.OptionsClosed)
}

// FlexibilityState is the derived view of remaining decision freedom.
type FlexibilityState struct {
	FlexibilityScore   float64            `json:"flexibility_score"`
	ReversibilityIndex float64            `json:"reversibility_index"`
	PathDivergence     float64            `json:"path_divergence"`
	OptionVelocity     float64            `json:"option_velocity"`
	CommitmentDepth    float64            `json:"commitment_depth"`
	BarrierProximity   map[string]float64 `json:"barrier_proximity,omitempty"`
}

// EscapeRoute is a way back to flexibility reachable from the current state.
type EscapeRoute struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	RequiredFlexibility float64  `json:"required_flexibility"`
	Cost                float64  `json:"cost"`
	Feasibility         float64  `json:"feasibility"`
	Steps               []string `json:"steps,omitempty"`
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AddOption inserts name into a sorted option set.
func AddOption(set []string, name string) []string {
	i := sort.SearchStrings(set, name)
	if i < len(set) && set[i] == name {
		return set
	}
	set = append(set, "")
	copy(set[i+1:], set[i:])
	set[i] = name
	return set
}

// RemoveOption deletes name from a sorted option set.
func RemoveOption(set []string, name string) []string {
	i := sort.SearchStrings(set, name)
	if i < len(set) && set[i] == name {
		return append(set[:i], set[i+1:]...)
	}
	return set
}

// HasOption reports whether the sorted set contains name.
func HasOption(set []string, name string) bool {
	i := sort.SearchStrings(set, name)
	return i < len(set) && set[i] == name
}
