// Package sensor estimates distance to absorbing barriers from a path memory.
// Each sensor owns its own state; nothing is shared between sensors.
package sensor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/uddhav/creative-thinking/internal/domain"
)

// Type identifies a sensor.
type Type string

const (
	TypeResource      Type = "resource"
	TypeCognitive     Type = "cognitive"
	TypeTechnicalDebt Type = "technical_debt"
)

// Reading is the result of one measurement.
type Reading struct {
	SensorType   Type                `json:"sensor_type"`
	Timestamp    time.Time           `json:"timestamp"`
	RawValue     float64             `json:"raw_value"`
	WarningLevel domain.WarningLevel `json:"warning_level"`
	Distance     float64             `json:"distance"`
	ApproachRate float64             `json:"approach_rate"`
	Confidence   float64             `json:"confidence"`
	Indicators   []string            `json:"indicators,omitempty"`
	Context      map[string]float64  `json:"context,omitempty"`
}

// Sensor is the contract the fusion engine depends on.
type Sensor interface {
	Type() Type
	Measure(ctx context.Context, mem *domain.PathMemory, sc domain.SessionContext) (Reading, error)
	Calibrate(c Calibration) error
	Reset()
	MonitoredBarriers() []string
	Status() Status
}

// Status describes a sensor's current state.
type Status struct {
	Type              Type        `json:"type"`
	Active            bool        `json:"active"`
	Measurements      int         `json:"measurements"`
	LastReading       *Reading    `json:"last_reading,omitempty"`
	Calibration       Calibration `json:"calibration"`
	MonitoredBarriers []string    `json:"monitored_barriers"`
}

// Option configures a sensor.
type Option func(*base)

// WithClock overrides the clock used to timestamp readings.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// New builds a built-in sensor by type.
func New(t Type, opts ...Option) (Sensor, error) {
	switch t {
	case TypeResource:
		return NewResource(opts...), nil
	case TypeCognitive:
		return NewCognitive(opts...), nil
	case TypeTechnicalDebt:
		return NewTechnicalDebt(opts...), nil
	default:
		return nil, fmt.Errorf("unknown sensor type %q", t)
	}
}

// Defaults returns one of each built-in sensor.
func Defaults(opts ...Option) []Sensor {
	return []Sensor{NewResource(opts...), NewCognitive(opts...), NewTechnicalDebt(opts...)}
}

// measurement is what a concrete sensor computes before calibration.
type measurement struct {
	raw        float64
	confidence float64
	indicators []string
	context    map[string]float64
}

// base carries the calibration and the last reading. Concrete sensors
// embed it and only supply the raw estimate.
type base struct {
	mu          sync.Mutex
	typ         Type
	barriers    []string
	calibration Calibration
	last        *Reading
	count       int
	now         func() time.Time
}

func newBase(t Type, barriers []string, opts []Option) *base {
	b := &base{
		typ:         t,
		barriers:    barriers,
		calibration: DefaultCalibration(t),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *base) Type() Type { return b.typ }

func (b *base) MonitoredBarriers() []string {
	return append([]string(nil), b.barriers...)
}

// Calibrate replaces the calibration after validating it.
func (b *base) Calibrate(c Calibration) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("calibrate %s: %w", b.typ, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calibration = c
	return nil
}

// Reset forgets previous readings but keeps the calibration.
func (b *base) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = nil
	b.count = 0
}

func (b *base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := Status{
		Type:              b.typ,
		Active:            true,
		Measurements:      b.count,
		Calibration:       b.calibration,
		MonitoredBarriers: append([]string(nil), b.barriers...),
	}
	if b.last != nil {
		last := *b.last
		st.LastReading = &last
	}
	return st
}

// finish applies calibration to a raw estimate and produces the reading.
func (b *base) finish(m measurement) Reading {
	b.mu.Lock()
	defer b.mu.Unlock()
	cal := b.calibration

	raw := m.raw * cal.Sensitivity
	for key, factor := range cal.ContextFactors {
		raw += factor * m.context[key]
	}
	raw = domain.Clamp01(raw)

	if b.last != nil {
		prev := b.last.RawValue
		if math.Abs(raw-prev) < cal.NoiseFilter {
			raw = prev
		} else {
			raw = cal.HistoricalWeight*prev + (1-cal.HistoricalWeight)*raw
		}
	}

	distance := 1 - raw
	var approach float64
	if b.last != nil {
		approach = b.last.Distance - distance
	}

	// Confidence grows with the number of readings this sensor has seen.
	warmup := math.Min(1, 0.6+0.1*float64(b.count))

	r := Reading{
		SensorType:   b.typ,
		Timestamp:    b.now(),
		RawValue:     raw,
		WarningLevel: cal.WarningThresholds.Level(raw),
		Distance:     distance,
		ApproachRate: approach,
		Confidence:   domain.Clamp01(m.confidence * warmup),
		Indicators:   m.indicators,
		Context:      m.context,
	}
	b.last = &r
	b.count++
	return r
}

// historyConfidence is the base confidence a sensor has in a memory of n events.
func historyConfidence(n int) float64 {
	return math.Min(1, 0.3+0.1*float64(n))
}

// recent returns the last n non-escape events.
func recent(history []domain.PathEvent, n int) []domain.PathEvent {
	out := make([]domain.PathEvent, 0, n)
	for i := len(history) - 1; i >= 0 && len(out) < n; i-- {
		if !history[i].IsEscape() {
			out = append(out, history[i])
		}
	}
	return out
}
