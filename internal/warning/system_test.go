package warning

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/logging"
	"github.com/uddhav/creative-thinking/internal/memory"
	"github.com/uddhav/creative-thinking/internal/sensor"
)

// stubSensor reports a fixed level, or fails/panics on demand.
type stubSensor struct {
	typ      sensor.Type
	level    domain.WarningLevel
	approach float64
	err      error
	panics   bool
	barriers []string
	now      func() time.Time

	mu     sync.Mutex
	calls  int
	resets int
}

func (s *stubSensor) Type() sensor.Type { return s.typ }

func (s *stubSensor) Measure(_ context.Context, _ *domain.PathMemory, _ domain.SessionContext) (sensor.Reading, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.panics {
		panic("sensor exploded")
	}
	if s.err != nil {
		return sensor.Reading{}, s.err
	}
	raw := []float64{0.1, 0.5, 0.7, 0.9}[s.level]
	return sensor.Reading{
		SensorType:   s.typ,
		Timestamp:    s.now(),
		RawValue:     raw,
		WarningLevel: s.level,
		Distance:     1 - raw,
		ApproachRate: s.approach,
		Confidence:   0.8,
	}, nil
}

func (s *stubSensor) Calibrate(sensor.Calibration) error { return nil }

func (s *stubSensor) Reset() {
	s.mu.Lock()
	s.resets++
	s.mu.Unlock()
}

func (s *stubSensor) MonitoredBarriers() []string { return s.barriers }

func (s *stubSensor) Status() sensor.Status { return sensor.Status{Type: s.typ} }

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func stubs(c *clock, levels ...domain.WarningLevel) []sensor.Sensor {
	types := []sensor.Type{sensor.TypeResource, sensor.TypeCognitive, sensor.TypeTechnicalDebt}
	barriers := [][]string{
		{domain.SubtypeResourceDepletion},
		{domain.SubtypeCognitiveLockIn, domain.SubtypeAnalysisParalysis},
		{domain.SubtypeTechnicalDebt},
	}
	out := make([]sensor.Sensor, len(levels))
	for i, l := range levels {
		out[i] = &stubSensor{typ: types[i], level: l, barriers: barriers[i], now: c.now}
	}
	return out
}

func newSystem(t *testing.T, c *clock, sensors []sensor.Sensor, mutate func(*Config)) *System {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewSystem(sensors, cfg, WithClock(c.now), WithLogger(logging.Discard()))
	require.NoError(t, err)
	return s
}

func testMemory() *domain.PathMemory {
	return memory.NewManager(nil, memory.WithLogger(logging.Discard())).Memory()
}

func TestContinuousMonitoring_AllSafe(t *testing.T) {
	c := newClock()
	s := newSystem(t, c, stubs(c, domain.LevelSafe, domain.LevelSafe, domain.LevelSafe), nil)

	state := s.ContinuousMonitoring(context.Background(), testMemory(), domain.SessionContext{SessionID: "s1"})

	assert.Equal(t, domain.LevelSafe, state.OverallRisk)
	assert.False(t, state.CompoundRisk)
	assert.Equal(t, ActionContinue, state.RecommendedAction)
	assert.Empty(t, state.ActiveWarnings)
	assert.Len(t, state.SensorReadings, 3)
}

func TestContinuousMonitoring_RecommendedAction(t *testing.T) {
	tests := []struct {
		name     string
		levels   []domain.WarningLevel
		action   Action
		compound bool
		warnings int
	}{
		{"caution only", []domain.WarningLevel{domain.LevelCaution, domain.LevelSafe, domain.LevelSafe}, ActionCaution, false, 0},
		{"single warning pivots", []domain.WarningLevel{domain.LevelWarning, domain.LevelCaution, domain.LevelSafe}, ActionPivot, false, 1},
		{"single critical escapes", []domain.WarningLevel{domain.LevelSafe, domain.LevelSafe, domain.LevelCritical}, ActionEscape, false, 1},
		{"two warnings are compound", []domain.WarningLevel{domain.LevelWarning, domain.LevelWarning, domain.LevelSafe}, ActionEscape, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClock()
			s := newSystem(t, c, stubs(c, tt.levels...), nil)
			state := s.ContinuousMonitoring(context.Background(), testMemory(), domain.SessionContext{})
			assert.Equal(t, tt.action, state.RecommendedAction)
			assert.Equal(t, tt.compound, state.CompoundRisk)
			assert.Len(t, state.ActiveWarnings, tt.warnings)
		})
	}
}

func TestContinuousMonitoring_CriticalBarriersAndImpactEstimate(t *testing.T) {
	c := newClock()
	sensors := stubs(c, domain.LevelSafe, domain.LevelSafe, domain.LevelCritical)
	sensors[2].(*stubSensor).approach = 0.05
	s := newSystem(t, c, sensors, nil)

	state := s.ContinuousMonitoring(context.Background(), testMemory(), domain.SessionContext{})

	require.Len(t, state.CriticalBarriers, 1)
	assert.Equal(t, domain.SubtypeTechnicalDebt, state.CriticalBarriers[0].Subtype)
	require.Len(t, state.ActiveWarnings, 1)
	w := state.ActiveWarnings[0]
	assert.Equal(t, "Technical Debt Spiral", w.BarrierName)
	require.NotNil(t, w.StepsToImpact)
	assert.Equal(t, 2, *w.StepsToImpact)
}

func TestContinuousMonitoring_SensorFailureIsolated(t *testing.T) {
	c := newClock()
	sensors := stubs(c, domain.LevelSafe, domain.LevelWarning, domain.LevelSafe)
	boom := errors.New("boom")
	sensors[0].(*stubSensor).err = boom

	var calls []ErrorInfo
	var got error
	s := newSystem(t, c, sensors, func(cfg *Config) {
		cfg.OnError = func(err error, info ErrorInfo) {
			got = err
			calls = append(calls, info)
		}
	})

	state := s.ContinuousMonitoring(context.Background(), testMemory(), domain.SessionContext{})

	require.Len(t, calls, 1)
	assert.Equal(t, sensor.TypeResource, calls[0].Sensor)
	assert.ErrorIs(t, got, boom)
	assert.NotContains(t, state.SensorReadings, sensor.TypeResource)
	assert.Len(t, state.SensorReadings, 2)
	assert.Equal(t, ActionPivot, state.RecommendedAction)
}

func TestContinuousMonitoring_SensorPanicIsolated(t *testing.T) {
	c := newClock()
	sensors := stubs(c, domain.LevelSafe, domain.LevelSafe)
	sensors[1].(*stubSensor).panics = true

	var infos []ErrorInfo
	s := newSystem(t, c, sensors, func(cfg *Config) {
		cfg.OnError = func(_ error, info ErrorInfo) { infos = append(infos, info) }
	})

	state := s.ContinuousMonitoring(context.Background(), testMemory(), domain.SessionContext{})
	assert.Equal(t, []ErrorInfo{{Sensor: sensor.TypeCognitive}}, infos)
	assert.Len(t, state.SensorReadings, 1)
}

func TestContinuousMonitoring_AllFailDefaultsSafe(t *testing.T) {
	c := newClock()
	sensors := stubs(c, domain.LevelCritical)
	sensors[0].(*stubSensor).err = errors.New("down")
	s := newSystem(t, c, sensors, nil)

	state := s.ContinuousMonitoring(context.Background(), testMemory(), domain.SessionContext{})
	assert.Equal(t, domain.LevelSafe, state.OverallRisk)
	assert.Empty(t, state.SensorReadings)
	assert.Equal(t, ActionContinue, state.RecommendedAction)
}

func TestContinuousMonitoring_Throttle(t *testing.T) {
	c := newClock()
	sensors := stubs(c, domain.LevelCaution, domain.LevelSafe, domain.LevelSafe)
	s := newSystem(t, c, sensors, nil)
	mem := testMemory()

	first := s.ContinuousMonitoring(context.Background(), mem, domain.SessionContext{})
	c.advance(time.Second)
	second := s.ContinuousMonitoring(context.Background(), mem, domain.SessionContext{})

	for typ, r := range first.SensorReadings {
		assert.Equal(t, r.Timestamp, second.SensorReadings[typ].Timestamp)
	}
	assert.Equal(t, 1, sensors[0].(*stubSensor).calls)

	c.advance(5 * time.Second)
	third := s.ContinuousMonitoring(context.Background(), mem, domain.SessionContext{})
	assert.Equal(t, 2, sensors[0].(*stubSensor).calls)
	assert.True(t, third.SensorReadings[sensor.TypeResource].Timestamp.After(first.SensorReadings[sensor.TypeResource].Timestamp))
}

func TestContinuousMonitoring_HistoryBounded(t *testing.T) {
	c := newClock()
	sensors := stubs(c, domain.LevelWarning)
	s := newSystem(t, c, sensors, func(cfg *Config) {
		cfg.MaxHistorySize = 3
		cfg.HistoryTTL = 10 * time.Minute
		cfg.MeasurementThrottle = 0
	})
	mem := testMemory()

	for i := 0; i < 5; i++ {
		s.ContinuousMonitoring(context.Background(), mem, domain.SessionContext{SessionID: "a"})
		c.advance(time.Minute)
	}
	assert.Len(t, s.SensorHistory(sensor.TypeResource), 3)
	assert.Len(t, s.WarningHistory(""), 3)

	c.advance(20 * time.Minute)
	s.ContinuousMonitoring(context.Background(), mem, domain.SessionContext{SessionID: "b"})
	history := s.SensorHistory(sensor.TypeResource)
	require.Len(t, history, 1)
	assert.Equal(t, c.now(), history[0].Timestamp)

	assert.Len(t, s.WarningHistory("b"), 1)
	assert.Empty(t, s.WarningHistory("a"))
}

func TestReset(t *testing.T) {
	c := newClock()
	sensors := stubs(c, domain.LevelWarning, domain.LevelSafe)
	s := newSystem(t, c, sensors, nil)

	s.ContinuousMonitoring(context.Background(), testMemory(), domain.SessionContext{})
	_, ok := s.LastState()
	require.True(t, ok)

	s.Reset()
	_, ok = s.LastState()
	assert.False(t, ok)
	assert.Empty(t, s.SensorHistory(sensor.TypeResource))
	assert.Empty(t, s.WarningHistory(""))
	assert.Equal(t, 1, sensors[0].(*stubSensor).resets)

	s.ContinuousMonitoring(context.Background(), testMemory(), domain.SessionContext{})
	assert.Equal(t, 2, sensors[0].(*stubSensor).calls)
}

func TestEscapeRoutesFilteredByScore(t *testing.T) {
	c := newClock()
	s := newSystem(t, c, stubs(c, domain.LevelSafe), nil)
	mem := domain.NewPathMemory()
	mem.CurrentFlexibility.FlexibilityScore = 0.3
	mem.EscapeRoutes = []domain.EscapeRoute{
		{ID: "low", RequiredFlexibility: 0.1},
		{ID: "high", RequiredFlexibility: 0.45},
	}

	state := s.ContinuousMonitoring(context.Background(), mem, domain.SessionContext{})
	require.Len(t, state.EscapeRoutesAvailable, 1)
	assert.Equal(t, "low", state.EscapeRoutesAvailable[0].ID)
}

func TestNewSystem_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistorySize = 0
	_, err := NewSystem(nil, cfg)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPrune(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)
	var ts []time.Time
	for i := 0; i < 10; i++ {
		ts = append(ts, now.Add(-time.Duration(9-i)*time.Minute))
	}
	id := func(t time.Time) time.Time { return t }

	assert.Len(t, prune(ts, id, now, time.Hour, 4), 4)
	assert.Len(t, prune(ts, id, now, 150*time.Second, 100), 3)
	assert.Len(t, prune(ts, id, now, time.Hour, 100), 10)
}
