package warning

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/logging"
	"github.com/uddhav/creative-thinking/internal/metrics"
	"github.com/uddhav/creative-thinking/internal/sensor"
)

var tracer = otel.Tracer("flexmon.warning")

// System runs the registered sensors and fuses their readings. One System
// belongs to one session. Reset must not run concurrently with a cycle.
type System struct {
	mu      sync.Mutex
	sensors []sensor.Sensor
	cfg     Config

	history      map[sensor.Type][]sensor.Reading
	warnings     []ActiveWarning
	last         *State
	lastMeasured time.Time

	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a System.
type Option func(*System)

// WithClock overrides the clock used for throttling and TTL pruning.
func WithClock(now func() time.Time) Option {
	return func(s *System) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *System) { s.logger = l }
}

// WithMetrics reports cycle telemetry to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *System) { s.metrics = m }
}

// NewSystem creates a fusion engine over sensors.
func NewSystem(sensors []sensor.Sensor, cfg Config, opts ...Option) (*System, error) {
	if err := domain.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("warning config: %w", err)
	}
	s := &System{
		sensors: sensors,
		cfg:     cfg,
		history: make(map[sensor.Type][]sensor.Reading),
		now:     time.Now,
		logger:  logging.New("warning"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sensors returns the registered sensors.
func (s *System) Sensors() []sensor.Sensor {
	return append([]sensor.Sensor(nil), s.sensors...)
}

// Calibrate applies a calibration to the sensor of type t.
func (s *System) Calibrate(t sensor.Type, c sensor.Calibration) error {
	for _, sn := range s.sensors {
		if sn.Type() == t {
			return sn.Calibrate(c)
		}
	}
	return fmt.Errorf("no sensor of type %q", t)
}

type outcome struct {
	reading sensor.Reading
	err     error
}

// ContinuousMonitoring runs one monitoring cycle. It never fails: sensors
// that error or panic are reported through OnError and left out of the
// fused state. Within MeasurementThrottle of the last cycle the cached
// state is returned unchanged.
func (s *System) ContinuousMonitoring(ctx context.Context, mem *domain.PathMemory, sc domain.SessionContext) State {
	now := s.now()

	s.mu.Lock()
	if s.last != nil && s.cfg.MeasurementThrottle > 0 && now.Sub(s.lastMeasured) < s.cfg.MeasurementThrottle {
		cached := s.last.Clone()
		s.mu.Unlock()
		s.metrics.RecordThrottled()
		return cached
	}
	s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "warning.ContinuousMonitoring",
		trace.WithAttributes(
			attribute.String("session.id", sc.SessionID),
			attribute.Int("sensors", len(s.sensors)),
			attribute.Int("history.events", len(mem.History)),
		),
	)
	defer span.End()

	outcomes := make([]outcome, len(s.sensors))
	var g errgroup.Group
	for i, sn := range s.sensors {
		g.Go(func() error {
			err := logging.Guard(s.logger, "sensor."+string(sn.Type()), func() error {
				r, err := sn.Measure(ctx, mem, sc)
				outcomes[i] = outcome{reading: r, err: err}
				return err
			})
			outcomes[i].err = err
			return nil
		})
	}
	_ = g.Wait()

	readings := make(map[sensor.Type]sensor.Reading, len(s.sensors))
	for i, sn := range s.sensors {
		o := outcomes[i]
		if o.err != nil {
			s.reportFailure(sn.Type(), o.err)
			span.RecordError(o.err, trace.WithAttributes(attribute.String("sensor", string(sn.Type()))))
			continue
		}
		readings[sn.Type()] = o.reading
		s.metrics.RecordSensorLevel(string(sn.Type()), int(o.reading.WarningLevel))
	}

	state := s.fuse(now, mem, sc, readings)

	s.mu.Lock()
	for t, r := range readings {
		s.history[t] = prune(append(s.history[t], r), readingTime, now, s.cfg.HistoryTTL, s.cfg.MaxHistorySize)
	}
	s.warnings = prune(append(s.warnings, state.ActiveWarnings...), warningTime, now, s.cfg.HistoryTTL, s.cfg.MaxHistorySize)
	if len(readings) > 0 {
		cached := state.Clone()
		s.last = &cached
		s.lastMeasured = now
	}
	s.mu.Unlock()

	if len(readings) == 0 && len(s.sensors) > 0 {
		span.SetStatus(codes.Error, "no sensor produced a reading")
	}
	span.SetAttributes(
		attribute.String("overall_risk", state.OverallRisk.String()),
		attribute.String("recommended_action", string(state.RecommendedAction)),
		attribute.Bool("compound_risk", state.CompoundRisk),
	)
	s.metrics.ObserveCycle(s.now().Sub(now))

	s.logger.Debug("monitoring cycle",
		slog.String("session", sc.SessionID),
		slog.String("risk", state.OverallRisk.String()),
		slog.String("action", string(state.RecommendedAction)),
		slog.Int("readings", len(readings)),
		slog.Int("active_warnings", len(state.ActiveWarnings)),
	)
	return state
}

func (s *System) reportFailure(t sensor.Type, err error) {
	s.logger.Warn("sensor measurement failed",
		slog.String("sensor", string(t)),
		slog.String("error", err.Error()),
	)
	s.metrics.RecordSensorFailure(string(t))
	if s.cfg.OnError != nil {
		s.cfg.OnError(err, ErrorInfo{Sensor: t})
	}
}

// fuse derives the early-warning state from the successful readings.
func (s *System) fuse(now time.Time, mem *domain.PathMemory, sc domain.SessionContext, readings map[sensor.Type]sensor.Reading) State {
	state := State{
		Timestamp:         now,
		SessionID:         sc.SessionID,
		OverallRisk:       domain.LevelSafe,
		ActiveWarnings:    []ActiveWarning{},
		RecommendedAction: ActionContinue,
		SensorReadings:    readings,
	}

	var elevated, atWarning int
	var anyCaution bool
	seenCritical := make(map[string]bool)

	for _, sn := range s.sensors {
		r, ok := readings[sn.Type()]
		if !ok {
			continue
		}
		state.OverallRisk = domain.MaxLevel(state.OverallRisk, r.WarningLevel)
		if r.WarningLevel == domain.LevelCaution {
			anyCaution = true
		}
		if r.WarningLevel <= domain.LevelCaution {
			continue
		}
		elevated++
		if r.WarningLevel >= domain.LevelWarning {
			atWarning++
		}

		for _, subtype := range sn.MonitoredBarriers() {
			b, registered := mem.Barrier(subtype)
			if !registered {
				b = domain.Barrier{ID: subtype, Subtype: subtype, Name: subtype}
			}
			state.ActiveWarnings = append(state.ActiveWarnings, ActiveWarning{
				ID:            ulid.Make().String(),
				SessionID:     sc.SessionID,
				Sensor:        sn.Type(),
				BarrierID:     b.ID,
				BarrierName:   b.Name,
				Severity:      r.WarningLevel,
				Message:       warningMessage(b, r),
				Reading:       r,
				StepsToImpact: stepsToImpact(r),
				Timestamp:     now,
			})
			if r.WarningLevel == domain.LevelCritical && registered && !seenCritical[b.ID] {
				seenCritical[b.ID] = true
				state.CriticalBarriers = append(state.CriticalBarriers, b)
			}
		}
	}

	state.CompoundRisk = elevated >= 2

	switch {
	case state.OverallRisk == domain.LevelCritical || (state.CompoundRisk && atWarning >= 2):
		state.RecommendedAction = ActionEscape
	case state.OverallRisk == domain.LevelWarning:
		state.RecommendedAction = ActionPivot
	case anyCaution:
		state.RecommendedAction = ActionCaution
	}

	score := mem.Score()
	for _, route := range mem.EscapeRoutes {
		if route.RequiredFlexibility <= score {
			state.EscapeRoutesAvailable = append(state.EscapeRoutesAvailable, route)
		}
	}

	sort.SliceStable(state.ActiveWarnings, func(i, j int) bool {
		return state.ActiveWarnings[i].Severity > state.ActiveWarnings[j].Severity
	})
	return state
}

func warningMessage(b domain.Barrier, r sensor.Reading) string {
	msg := fmt.Sprintf("%s: %s risk from %s sensor (distance %.0f%%)",
		r.WarningLevel, b.Name, r.SensorType, r.Distance*100)
	if len(r.Indicators) > 0 {
		msg += fmt.Sprintf(", indicators: %v", r.Indicators)
	}
	return msg
}

// stepsToImpact extrapolates the approach rate to distance zero.
func stepsToImpact(r sensor.Reading) *int {
	if r.ApproachRate <= 0 {
		return nil
	}
	n := int(math.Ceil(r.Distance / r.ApproachRate))
	return &n
}

// WarningHistory returns retained warnings, filtered by session when
// sessionID is not empty.
func (s *System) WarningHistory(sessionID string) []ActiveWarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActiveWarning, 0, len(s.warnings))
	for _, w := range s.warnings {
		if sessionID == "" || w.SessionID == sessionID {
			out = append(out, w)
		}
	}
	return out
}

// SensorHistory returns the retained readings of one sensor.
func (s *System) SensorHistory(t sensor.Type) []sensor.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sensor.Reading(nil), s.history[t]...)
}

// LastState returns the most recent fused state, if any.
func (s *System) LastState() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return State{}, false
	}
	return s.last.Clone(), true
}

// Restore seeds the cache and warning history from persisted data. The
// restored state is not used for throttling.
func (s *System) Restore(last *State, warnings []ActiveWarning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last != nil {
		cached := last.Clone()
		s.last = &cached
		s.lastMeasured = time.Time{}
	}
	s.warnings = append([]ActiveWarning(nil), warnings...)
}

// Reset clears every sensor, the reading history and the cached state.
func (s *System) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sn := range s.sensors {
		sn.Reset()
	}
	s.history = make(map[sensor.Type][]sensor.Reading)
	s.warnings = nil
	s.last = nil
	s.lastMeasured = time.Time{}
	s.logger.Info("early warning reset")
}

// Status reports every sensor's status.
func (s *System) Status() []sensor.Status {
	out := make([]sensor.Status, 0, len(s.sensors))
	for _, sn := range s.sensors {
		out = append(out, sn.Status())
	}
	return out
}

func readingTime(r sensor.Reading) time.Time { return r.Timestamp }

func warningTime(w ActiveWarning) time.Time { return w.Timestamp }
