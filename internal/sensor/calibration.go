package sensor

import "github.com/uddhav/creative-thinking/internal/domain"

// Thresholds are raw-risk values at which a reading reaches each level.
type Thresholds struct {
	Caution  float64 `json:"caution" yaml:"caution" validate:"gt=0,lt=1"`
	Warning  float64 `json:"warning" yaml:"warning" validate:"gtfield=Caution,lt=1"`
	Critical float64 `json:"critical" yaml:"critical" validate:"gtfield=Warning,lte=1"`
}

// Level maps a raw risk value to a warning level.
func (t Thresholds) Level(raw float64) domain.WarningLevel {
	switch {
	case raw >= t.Critical:
		return domain.LevelCritical
	case raw >= t.Warning:
		return domain.LevelWarning
	case raw >= t.Caution:
		return domain.LevelCaution
	default:
		return domain.LevelSafe
	}
}

// Calibration tunes how a sensor turns its estimate into a reading.
//
// Sensitivity multiplies the raw estimate. ContextFactors add
// factor*context[key] for every context key the sensor reports.
// NoiseFilter holds the previous value when the change is smaller than it,
// and HistoricalWeight blends the previous value into the new one.
type Calibration struct {
	Sensitivity       float64            `json:"sensitivity" yaml:"sensitivity" validate:"gt=0,lte=3"`
	WarningThresholds Thresholds         `json:"warning_thresholds" yaml:"warning_thresholds"`
	NoiseFilter       float64            `json:"noise_filter" yaml:"noise_filter" validate:"gte=0,lt=1"`
	HistoricalWeight  float64            `json:"historical_weight" yaml:"historical_weight" validate:"gte=0,lt=1"`
	ContextFactors    map[string]float64 `json:"context_factors,omitempty" yaml:"context_factors"`
}

// Validate checks the calibration ranges.
func (c Calibration) Validate() error {
	return domain.ValidateStruct(c)
}

// DefaultCalibration returns the calibration a sensor starts with.
func DefaultCalibration(t Type) Calibration {
	c := Calibration{
		Sensitivity: 1,
		WarningThresholds: Thresholds{
			Caution:  0.4,
			Warning:  0.65,
			Critical: 0.85,
		},
		NoiseFilter:      0.02,
		HistoricalWeight: 0.3,
	}
	if t == TypeResource {
		c.ContextFactors = map[string]float64{"time_pressure": 0.1}
	}
	return c
}
