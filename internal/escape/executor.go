package escape

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/logging"
	"github.com/uddhav/creative-thinking/internal/memory"
	"github.com/uddhav/creative-thinking/internal/metrics"
)

var tracer = otel.Tracer("flexmon.escape")

// Target is the path an escape acts on. *memory.Manager satisfies it.
type Target interface {
	Memory() *domain.PathMemory
	RecordEscape(out memory.EscapeOutcome) (domain.PathEvent, []domain.Constraint)
}

// AttemptResult is the outcome of one execution.
type AttemptResult struct {
	ID                 string        `json:"id"`
	Protocol           string        `json:"protocol"`
	Level              Level         `json:"level"`
	Success            bool          `json:"success"`
	FlexibilityBefore  float64       `json:"flexibility_before"`
	FlexibilityAfter   float64       `json:"flexibility_after"`
	FlexibilityGained  float64       `json:"flexibility_gained"`
	NewOptionsCreated  []string      `json:"new_options_created,omitempty"`
	ConstraintsRemoved int           `json:"constraints_removed"`
	ExecutionNotes     []string      `json:"execution_notes,omitempty"`
	Duration           time.Duration `json:"duration"`
	EventID            string        `json:"event_id,omitempty"`
}

// ProtocolStats aggregates attempts of one protocol.
type ProtocolStats struct {
	Attempts  int     `json:"attempts"`
	Successes int     `json:"successes"`
	TotalGain float64 `json:"total_gain"`
}

// Monitoring aggregates every attempt made through an Executor.
type Monitoring struct {
	AttemptCount           int                      `json:"attempt_count"`
	SuccessCount           int                      `json:"success_count"`
	AverageFlexibilityGain float64                  `json:"average_flexibility_gain"`
	MostEffectiveProtocol  string                   `json:"most_effective_protocol,omitempty"`
	BestGain               float64                  `json:"best_gain"`
	ByProtocol             map[string]ProtocolStats `json:"by_protocol,omitempty"`
}

// SuccessRate is SuccessCount/AttemptCount, or 0 before any attempt.
func (m Monitoring) SuccessRate() float64 {
	if m.AttemptCount == 0 {
		return 0
	}
	return float64(m.SuccessCount) / float64(m.AttemptCount)
}

// Executor runs protocols and keeps the monitoring aggregate.
type Executor struct {
	mu         sync.Mutex
	rng        *rand.Rand
	monitoring Monitoring
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures an Executor.
type Option func(*Executor)

// WithRand sets the source for success rolls and gain draws.
func WithRand(r *rand.Rand) Option {
	return func(e *Executor) { e.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithMetrics reports executions to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor creates an executor with an empty monitoring aggregate.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		logger: logging.New("escape"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the protocol at level against target. It fails without
// touching target when the level is unknown or the current flexibility is
// below the requirement. A failed roll gains nothing and leaves target as is.
func (e *Executor) Execute(ctx context.Context, level Level, target Target) (AttemptResult, error) {
	p, err := Lookup(level)
	if err != nil {
		return AttemptResult{}, err
	}

	before := target.Memory().Score()
	if before < p.RequiredFlexibility {
		return AttemptResult{}, &InsufficientFlexibilityError{
			Protocol:  p.Name,
			Level:     p.Level,
			Required:  p.RequiredFlexibility,
			Available: before,
			Gap:       p.RequiredFlexibility - before,
		}
	}

	_, span := tracer.Start(ctx, "escape.Execute",
		trace.WithAttributes(
			attribute.String("protocol", p.Name),
			attribute.Int("level", int(p.Level)),
			attribute.Float64("flexibility.before", before),
		),
	)
	defer span.End()

	start := time.Now()
	e.mu.Lock()
	roll := e.rng.Float64()
	draw := e.rng.Float64()
	e.mu.Unlock()

	result := AttemptResult{
		ID:                ulid.Make().String(),
		Protocol:          p.Name,
		Level:             p.Level,
		FlexibilityBefore: before,
		FlexibilityAfter:  before,
	}

	if roll < p.SuccessProbability {
		gain := p.GainMin + draw*(p.GainMax-p.GainMin)
		event, removed := target.RecordEscape(memory.EscapeOutcome{
			Protocol:       p.Name,
			Gain:           gain,
			OptionsCreated: p.OpensOptions,
			RemoveTypes:    p.RemovesConstraints,
			MaxRemovals:    p.MaxRemovals,
		})
		result.Success = true
		result.FlexibilityGained = gain
		result.FlexibilityAfter = math.Min(1, before+gain)
		result.NewOptionsCreated = append([]string(nil), p.OpensOptions...)
		result.ConstraintsRemoved = len(removed)
		result.EventID = event.ID
		result.ExecutionNotes = append(result.ExecutionNotes,
			fmt.Sprintf("%s took hold: flexibility %.2f -> %.2f", p.Name, before, result.FlexibilityAfter))
		for _, c := range removed {
			result.ExecutionNotes = append(result.ExecutionNotes,
				fmt.Sprintf("removed %s constraint %q", c.Type, c.Description))
		}
	} else {
		result.ExecutionNotes = append(result.ExecutionNotes,
			fmt.Sprintf("%s did not take hold; no flexibility gained", p.Name))
		span.SetStatus(codes.Error, "protocol did not take hold")
	}
	result.Duration = time.Since(start)

	e.record(result)
	span.SetAttributes(
		attribute.Bool("success", result.Success),
		attribute.Float64("flexibility.gained", result.FlexibilityGained),
	)
	e.metrics.RecordEscape(p.Name, result.Success)
	e.logger.Info("escape protocol executed",
		slog.String("protocol", p.Name),
		slog.Bool("success", result.Success),
		slog.Float64("before", before),
		slog.Float64("after", result.FlexibilityAfter),
		slog.Int("constraints_removed", result.ConstraintsRemoved),
	)
	return result, nil
}

func (e *Executor) record(r AttemptResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := &e.monitoring
	m.AttemptCount++
	if r.Success {
		m.SuccessCount++
	}
	m.AverageFlexibilityGain += (r.FlexibilityGained - m.AverageFlexibilityGain) / float64(m.AttemptCount)
	if r.Success && r.FlexibilityGained > m.BestGain {
		m.BestGain = r.FlexibilityGained
		m.MostEffectiveProtocol = r.Protocol
	}
	if m.ByProtocol == nil {
		m.ByProtocol = make(map[string]ProtocolStats)
	}
	st := m.ByProtocol[r.Protocol]
	st.Attempts++
	if r.Success {
		st.Successes++
	}
	st.TotalGain += r.FlexibilityGained
	m.ByProtocol[r.Protocol] = st
}

// Monitoring returns a copy of the aggregate.
func (e *Executor) Monitoring() Monitoring {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.monitoring
	if e.monitoring.ByProtocol != nil {
		out.ByProtocol = make(map[string]ProtocolStats, len(e.monitoring.ByProtocol))
		for k, v := range e.monitoring.ByProtocol {
			out.ByProtocol[k] = v
		}
	}
	return out
}

// RestoreMonitoring replaces the aggregate with persisted data.
func (e *Executor) RestoreMonitoring(m Monitoring) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitoring = m
}

// ResetMonitoring zeroes the aggregate.
func (e *Executor) ResetMonitoring() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitoring = Monitoring{}
}
