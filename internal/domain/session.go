package domain

import "time"

// Pressure is a coarse time-pressure rating supplied by the caller.
type Pressure string

const (
	PressureLow      Pressure = "low"
	PressureMedium   Pressure = "medium"
	PressureHigh     Pressure = "high"
	PressureCritical Pressure = "critical"
)

// High reports whether the pressure counts as a risk signal on its own.
func (p Pressure) High() bool {
	return p == PressureHigh || p == PressureCritical
}

// SessionContext carries caller-supplied facts about the session that the
// path history alone cannot tell.
type SessionContext struct {
	SessionID      string    `json:"session_id"`
	Problem        string    `json:"problem,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	CurrentStep    int       `json:"current_step"`
	TotalSteps     int       `json:"total_steps"`
	TechniquesUsed []string  `json:"techniques_used,omitempty"`

	// ResourcesRemaining is the remaining fraction of budget/energy, nil when unknown.
	ResourcesRemaining *float64          `json:"resources_remaining,omitempty"`
	TimePressure       Pressure          `json:"time_pressure,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// Progress returns CurrentStep/TotalSteps bounded to [0,1], or 0 when unknown.
func (c SessionContext) Progress() float64 {
	if c.TotalSteps <= 0 {
		return 0
	}
	return Clamp01(float64(c.CurrentStep) / float64(c.TotalSteps))
}
