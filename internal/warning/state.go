// Package warning fuses independent sensor readings into one early-warning
// assessment per monitoring cycle.
package warning

import (
	"time"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/sensor"
)

// Action is the fused recommendation for the caller.
type Action string

const (
	ActionContinue Action = "continue"
	ActionCaution  Action = "caution"
	ActionPivot    Action = "pivot"
	ActionEscape   Action = "escape"
)

// ActiveWarning is one sensor/barrier pair above CAUTION.
type ActiveWarning struct {
	ID          string              `json:"id"`
	SessionID   string              `json:"session_id,omitempty"`
	Sensor      sensor.Type         `json:"sensor"`
	BarrierID   string              `json:"barrier_id"`
	BarrierName string              `json:"barrier_name"`
	Severity    domain.WarningLevel `json:"severity"`
	Message     string              `json:"message"`
	Reading     sensor.Reading      `json:"reading"`
	// StepsToImpact estimates how many more steps at the current approach
	// rate reach the barrier. Nil when the sensor is not approaching.
	StepsToImpact *int      `json:"steps_to_impact,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// State is the result of a monitoring cycle.
type State struct {
	Timestamp             time.Time                      `json:"timestamp"`
	SessionID             string                         `json:"session_id,omitempty"`
	OverallRisk           domain.WarningLevel            `json:"overall_risk"`
	ActiveWarnings        []ActiveWarning                `json:"active_warnings"`
	CompoundRisk          bool                           `json:"compound_risk"`
	CriticalBarriers      []domain.Barrier               `json:"critical_barriers,omitempty"`
	EscapeRoutesAvailable []domain.EscapeRoute           `json:"escape_routes_available,omitempty"`
	RecommendedAction     Action                         `json:"recommended_action"`
	SensorReadings        map[sensor.Type]sensor.Reading `json:"sensor_readings"`
}

// Clone returns a copy that shares no slices or maps with s.
func (s State) Clone() State {
	out := s
	out.ActiveWarnings = append([]ActiveWarning(nil), s.ActiveWarnings...)
	out.CriticalBarriers = append([]domain.Barrier(nil), s.CriticalBarriers...)
	out.EscapeRoutesAvailable = append([]domain.EscapeRoute(nil), s.EscapeRoutesAvailable...)
	out.SensorReadings = make(map[sensor.Type]sensor.Reading, len(s.SensorReadings))
	for k, v := range s.SensorReadings {
		out.SensorReadings[k] = v
	}
	return out
}

// ErrorInfo identifies the sensor that failed.
type ErrorInfo struct {
	Sensor sensor.Type
}

// Config bounds history and measurement cost.
type Config struct {
	MaxHistorySize      int                            `validate:"gt=0"`
	HistoryTTL          time.Duration                  `validate:"gt=0"`
	MeasurementThrottle time.Duration                  `validate:"gte=0"`
	OnError             func(err error, info ErrorInfo) `validate:"-"`
}

// DefaultConfig returns the default bounds.
func DefaultConfig() Config {
	return Config{
		MaxHistorySize:      100,
		HistoryTTL:          time.Hour,
		MeasurementThrottle: 5 * time.Second,
	}
}
