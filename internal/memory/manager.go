// Package memory owns a session's path memory: it records decisions,
// keeps the option sets and constraint list in step with the history, and
// recomputes the derived flexibility state after every event.
package memory

import (
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/flexibility"
	"github.com/uddhav/creative-thinking/internal/logging"
)

// criticalThreshold is the reversibilityCost*commitmentLevel above which a
// decision is remembered as critical.
const criticalThreshold = 0.5

// Manager mutates one PathMemory. It is not safe for concurrent use; the
// engine serializes calls per session so events are folded in call order.
type Manager struct {
	mem    *domain.PathMemory
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the clock used to timestamp events.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDs overrides the ID generator.
func WithIDs(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager wraps mem. A nil mem starts a fresh memory with the default
// barrier registry.
func NewManager(mem *domain.PathMemory, opts ...Option) *Manager {
	if mem == nil {
		mem = domain.NewPathMemory()
		mem.AbsorbingBarriers = DefaultBarriers()
	}
	if mem.CurrentFlexibility.BarrierProximity == nil {
		mem.CurrentFlexibility.BarrierProximity = make(map[string]float64)
	}
	m := &Manager{
		mem:    mem,
		now:    time.Now,
		newID:  func() string { return ulid.Make().String() },
		logger: logging.New("memory"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.recompute()
	return m
}

// Memory returns the managed memory. Callers must not mutate it.
func (m *Manager) Memory() *domain.PathMemory {
	return m.mem
}

// Metrics recalculates the metrics for the current memory.
func (m *Manager) Metrics() flexibility.Metrics {
	return flexibility.Calculate(m.mem)
}

// RecordEvent appends a decision to the history and recomputes every
// derived aggregate. Identical calls record distinct events.
func (m *Manager) RecordEvent(technique string, step int, decision string, impact domain.DecisionImpact) (domain.PathEvent, flexibility.Metrics, error) {
	if err := impact.Validate(); err != nil {
		return domain.PathEvent{}, flexibility.Metrics{}, err
	}

	ts := m.now()
	event := domain.PathEvent{
		ID:                m.newID(),
		Timestamp:         ts,
		Technique:         technique,
		Step:              step,
		Decision:          decision,
		OptionsOpened:     append([]string(nil), impact.OptionsOpened...),
		OptionsClosed:     append([]string(nil), impact.OptionsClosed...),
		ReversibilityCost: impact.ReversibilityCost,
		CommitmentLevel:   impact.CommitmentLevel,
	}
	for _, spec := range impact.Constraints {
		event.ConstraintsCreated = append(event.ConstraintsCreated, domain.Constraint{
			ID:                m.newID(),
			Type:              spec.Type,
			Description:       spec.Description,
			Strength:          spec.Strength,
			Flexibility:       spec.Flexibility,
			ReversibilityCost: spec.ReversibilityCost,
			EventID:           event.ID,
			CreatedAt:         ts,
		})
	}
	event.FlexibilityImpact = flexibility.EventDelta(event)

	m.apply(event)
	if impact.ReversibilityCost*impact.CommitmentLevel >= criticalThreshold {
		m.mem.CriticalDecisions = append(m.mem.CriticalDecisions, event.ID)
	}
	metrics := m.recompute()

	m.logger.Debug("event recorded",
		slog.String("event_id", event.ID),
		slog.String("technique", technique),
		slog.Int("step", step),
		slog.Float64("impact", event.FlexibilityImpact),
		slog.Float64("score", metrics.Score),
	)
	return event, metrics, nil
}

// EscapeOutcome describes the state change of a successful escape.
type EscapeOutcome struct {
	Protocol       string
	Gain           float64
	OptionsCreated []string
	RemoveTypes    []string // "all" removes every type
	MaxRemovals    int
}

// RecordEscape appends an escape event carrying the gain and removes up to
// MaxRemovals constraints whose type is listed. It returns the event and
// the removed constraints.
func (m *Manager) RecordEscape(out EscapeOutcome) (domain.PathEvent, []domain.Constraint) {
	event := domain.PathEvent{
		ID:                m.newID(),
		Timestamp:         m.now(),
		Technique:         domain.TechniqueEscape,
		Step:              len(m.mem.History) + 1,
		Decision:          out.Protocol,
		OptionsOpened:     append([]string(nil), out.OptionsCreated...),
		FlexibilityImpact: out.Gain,
	}
	m.apply(event)
	removed := m.removeConstraints(out.RemoveTypes, out.MaxRemovals)
	metrics := m.recompute()

	m.logger.Info("escape recorded",
		slog.String("protocol", out.Protocol),
		slog.Float64("gain", out.Gain),
		slog.Int("constraints_removed", len(removed)),
		slog.Float64("score", metrics.Score),
	)
	return event, removed
}

// RegisterBarrier adds a barrier discovered during the session. A barrier
// with an existing ID replaces the old definition but keeps its proximity.
func (m *Manager) RegisterBarrier(b domain.Barrier) {
	for i, existing := range m.mem.AbsorbingBarriers {
		if existing.ID == b.ID {
			b.Proximity = existing.Proximity
			m.mem.AbsorbingBarriers[i] = b
			m.recompute()
			return
		}
	}
	m.mem.AbsorbingBarriers = append(m.mem.AbsorbingBarriers, b)
	m.recompute()
}

// apply appends the event and merges its option changes. A closed option
// that is opened again moves back from foreclosed to available.
func (m *Manager) apply(event domain.PathEvent) {
	m.mem.History = append(m.mem.History, event)
	for _, o := range event.OptionsOpened {
		m.mem.ForeclosedOptions = domain.RemoveOption(m.mem.ForeclosedOptions, o)
		m.mem.AvailableOptions = domain.AddOption(m.mem.AvailableOptions, o)
	}
	for _, o := range event.OptionsClosed {
		m.mem.AvailableOptions = domain.RemoveOption(m.mem.AvailableOptions, o)
		m.mem.ForeclosedOptions = domain.AddOption(m.mem.ForeclosedOptions, o)
	}
	m.mem.Constraints = append(m.mem.Constraints, event.ConstraintsCreated...)
}

func (m *Manager) removeConstraints(types []string, limit int) []domain.Constraint {
	if len(types) == 0 || limit <= 0 {
		return nil
	}
	match := func(t string) bool {
		for _, want := range types {
			if want == "all" || want == t {
				return true
			}
		}
		return false
	}

	var removed []domain.Constraint
	kept := m.mem.Constraints[:0]
	for _, c := range m.mem.Constraints {
		if len(removed) < limit && match(c.Type) {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	m.mem.Constraints = kept
	return removed
}

// recompute refreshes the flexibility state, barrier proximities and escape routes.
func (m *Manager) recompute() flexibility.Metrics {
	metrics := flexibility.Calculate(m.mem)
	m.mem.CurrentFlexibility = flexibility.State(metrics, m.mem.AbsorbingBarriers)
	for i := range m.mem.AbsorbingBarriers {
		b := &m.mem.AbsorbingBarriers[i]
		b.Proximity = m.mem.CurrentFlexibility.BarrierProximity[b.ID]
	}
	m.mem.EscapeRoutes = GenerateEscapeRoutes(m.mem)
	return metrics
}
