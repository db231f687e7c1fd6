// Package engine is the per-session facade over path memory, early
// warning, escape protocols and escalation tracking. It serializes every
// operation on a session so the path history is folded in call order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/uddhav/creative-thinking/internal/alerts"
	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/escalation"
	"github.com/uddhav/creative-thinking/internal/escape"
	"github.com/uddhav/creative-thinking/internal/flexibility"
	"github.com/uddhav/creative-thinking/internal/logging"
	"github.com/uddhav/creative-thinking/internal/memory"
	"github.com/uddhav/creative-thinking/internal/metrics"
	"github.com/uddhav/creative-thinking/internal/sensor"
	"github.com/uddhav/creative-thinking/internal/warning"
)

// ErrConfirmationRequired is returned when an escape protocol is requested
// without explicit confirmation.
var ErrConfirmationRequired = errors.New("escape protocol requires explicit user confirmation")

// AlertSink receives alerts raised by the engine. *alerts.Manager satisfies it.
type AlertSink interface {
	Send(level alerts.Level, component, session, title, message string, ctx map[string]any) alerts.Alert
}

// Config is the caller-supplied configuration of a session.
type Config struct {
	Warning      warning.Config
	Calibrations map[sensor.Type]sensor.Calibration
}

// DefaultConfig returns the default warning bounds and sensor calibration.
func DefaultConfig() Config {
	return Config{Warning: warning.DefaultConfig()}
}

// Engine is one session.
type Engine struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	session   domain.SessionContext

	mem     *memory.Manager
	warn    *warning.System
	exec    *escape.Executor
	tracker *escalation.Tracker

	alerts  AlertSink
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

type options struct {
	sensors []sensor.Sensor
	alerts  AlertSink
	metrics *metrics.Metrics
	rng     *rand.Rand
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithSensors replaces the built-in sensors.
func WithSensors(s ...sensor.Sensor) Option {
	return func(o *options) { o.sensors = s }
}

// WithAlerts raises alerts on escape recommendations and escalation.
func WithAlerts(sink AlertSink) Option {
	return func(o *options) { o.alerts = sink }
}

// WithMetrics reports telemetry to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRand seeds escape protocol rolls.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

// WithClock overrides the clock of every component.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the base logger; components add their own attribute.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New starts a fresh session.
func New(sc domain.SessionContext, cfg Config, opts ...Option) (*Engine, error) {
	return build(Snapshot{
		SessionID:  sc.SessionID,
		Context:    sc,
		Engagement: escalation.NewMetrics(),
	}, cfg, opts...)
}

// Restore rebuilds a session from a snapshot.
func Restore(snap Snapshot, cfg Config, opts ...Option) (*Engine, error) {
	if snap.SessionID == "" {
		return nil, fmt.Errorf("restore: %w", &domain.ValidationError{Field: "SessionID", Value: "", Rule: "required"})
	}
	if snap.Memory == nil {
		return nil, fmt.Errorf("restore %s: %w", snap.SessionID, &domain.ValidationError{Field: "Memory", Value: nil, Rule: "required"})
	}
	return build(snap, cfg, opts...)
}

func build(snap Snapshot, cfg Config, opts ...Option) (*Engine, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	base := o.logger
	if base == nil {
		base = logging.New("engine")
	}
	component := func(name string) *slog.Logger {
		return base.With(slog.String("component", name), slog.String("session", snap.SessionID))
	}

	sensors := o.sensors
	if sensors == nil {
		sensors = sensor.Defaults(sensor.WithClock(o.now))
	}
	for _, s := range sensors {
		if cal, ok := cfg.Calibrations[s.Type()]; ok {
			if err := s.Calibrate(cal); err != nil {
				return nil, err
			}
		}
	}

	warn, err := warning.NewSystem(sensors, cfg.Warning,
		warning.WithClock(o.now),
		warning.WithLogger(component("warning")),
		warning.WithMetrics(o.metrics),
	)
	if err != nil {
		return nil, err
	}
	warn.Restore(snap.EarlyWarning, snap.WarningHistory)

	execOpts := []escape.Option{
		escape.WithLogger(component("escape")),
		escape.WithMetrics(o.metrics),
	}
	if o.rng != nil {
		execOpts = append(execOpts, escape.WithRand(o.rng))
	}
	exec := escape.NewExecutor(execOpts...)
	exec.RestoreMonitoring(snap.EscapeMonitoring)

	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = o.now()
	}
	session := snap.Context
	session.SessionID = snap.SessionID
	if session.StartedAt.IsZero() {
		session.StartedAt = createdAt
	}

	e := &Engine{
		id:        snap.SessionID,
		createdAt: createdAt,
		session:   session,
		mem: memory.NewManager(snap.Memory,
			memory.WithClock(o.now),
			memory.WithLogger(component("memory")),
		),
		warn: warn,
		exec: exec,
		tracker: escalation.NewTracker(snap.Engagement,
			escalation.WithClock(o.now),
			escalation.WithLogger(component("escalation")),
			escalation.WithMetrics(o.metrics, snap.SessionID),
		),
		alerts:  o.alerts,
		metrics: o.metrics,
		logger:  component("engine"),
		now:     o.now,
	}
	e.metrics.RecordFlexibility(e.id, e.mem.Memory().Score())
	return e, nil
}

// SessionID returns the session identifier.
func (e *Engine) SessionID() string {
	return e.id
}

// Context returns the stored session context.
func (e *Engine) Context() domain.SessionContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// UpdateContext replaces the stored session context. The session ID is kept.
func (e *Engine) UpdateContext(sc domain.SessionContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sc.SessionID = e.id
	if sc.StartedAt.IsZero() {
		sc.StartedAt = e.session.StartedAt
	}
	e.session = sc
}

// Memory returns a copy of the path memory.
func (e *Engine) Memory() *domain.PathMemory {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mem.Memory().Clone()
}

// Decision is one decision to record.
type Decision struct {
	Technique string                `json:"technique"`
	Step      int                   `json:"step"`
	Decision  string                `json:"decision"`
	Impact    domain.DecisionImpact `json:"impact"`
}

// Recommendation nominates an escape protocol for the current state.
type Recommendation struct {
	Protocol     escape.Protocol     `json:"protocol"`
	Requirements escape.Requirements `json:"requirements"`
	Reason       string              `json:"reason"`
}

// DecisionResult is what recording a decision produced.
type DecisionResult struct {
	Event                domain.PathEvent      `json:"event"`
	Metrics              flexibility.Metrics   `json:"metrics"`
	Warnings             []flexibility.Warning `json:"warnings,omitempty"`
	EarlyWarning         *warning.State        `json:"early_warning,omitempty"`
	EscapeRecommendation *Recommendation       `json:"escape_recommendation,omitempty"`
}

// RecordDecision appends a decision to the path. When sc is given the
// early-warning system runs too, and a pivot or escape recommendation
// nominates a protocol.
func (e *Engine) RecordDecision(ctx context.Context, d Decision, sc *domain.SessionContext) (DecisionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	event, m, err := e.mem.RecordEvent(d.Technique, d.Step, d.Decision, d.Impact)
	if err != nil {
		return DecisionResult{}, err
	}
	e.metrics.RecordDecision()
	e.metrics.RecordFlexibility(e.id, m.Score)

	mem := e.mem.Memory()
	res := DecisionResult{
		Event:    event,
		Metrics:  m,
		Warnings: flexibility.GenerateWarnings(m, mem.AbsorbingBarriers, mem.CurrentFlexibility.BarrierProximity),
	}
	if sc == nil {
		return res, nil
	}

	session := *sc
	session.SessionID = e.id
	if d.Step > session.CurrentStep {
		session.CurrentStep = d.Step
	}
	session.TechniquesUsed = appendUnique(session.TechniquesUsed, d.Technique)
	e.session = session

	state := e.warn.ContinuousMonitoring(ctx, mem, session)
	res.EarlyWarning = &state
	res.EscapeRecommendation = e.recommend(mem, state)
	return res, nil
}

// recommend nominates the least disruptive protocol on pivot and the
// strongest one on escape.
func (e *Engine) recommend(mem *domain.PathMemory, state warning.State) *Recommendation {
	var strongest bool
	switch state.RecommendedAction {
	case warning.ActionPivot:
	case warning.ActionEscape:
		strongest = true
	default:
		return nil
	}

	p, ok := escape.Recommend(mem.Score(), strongest)
	if !ok {
		e.raise(alerts.LevelCritical, "No escape protocol available",
			fmt.Sprintf("Early warning recommends %s but flexibility %.2f is below every protocol requirement",
				state.RecommendedAction, mem.Score()),
			map[string]any{"risk": state.OverallRisk.String(), "flexibility": mem.Score()})
		return nil
	}
	req, err := escape.CalculateRequirements(mem, p.Level)
	if err != nil {
		e.logger.Error("escape requirements failed", slog.String("error", err.Error()))
		return nil
	}

	rec := &Recommendation{
		Protocol:     p,
		Requirements: req,
		Reason: fmt.Sprintf("%s recommended at %s risk (compound: %t)",
			state.RecommendedAction, state.OverallRisk, state.CompoundRisk),
	}
	level := alerts.LevelWarning
	if strongest {
		level = alerts.LevelCritical
	}
	e.raise(level, fmt.Sprintf("Early warning: %s", state.RecommendedAction), rec.Reason,
		map[string]any{"protocol": p.Name, "flexibility": mem.Score(), "active_warnings": len(state.ActiveWarnings)})
	return rec
}

// FlexibilityReport is the current flexibility picture.
type FlexibilityReport struct {
	Metrics      flexibility.Metrics     `json:"metrics"`
	State        domain.FlexibilityState `json:"state"`
	Warnings     []flexibility.Warning   `json:"warnings,omitempty"`
	EscapeRoutes []domain.EscapeRoute    `json:"escape_routes,omitempty"`
	Barriers     []domain.Barrier        `json:"barriers"`
	Constraints  int                     `json:"constraints"`
}

// CurrentFlexibility reports metrics, threshold warnings and escape routes.
func (e *Engine) CurrentFlexibility() FlexibilityReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	mem := e.mem.Memory()
	m := e.mem.Metrics()
	return FlexibilityReport{
		Metrics:      m,
		State:        mem.Clone().CurrentFlexibility,
		Warnings:     flexibility.GenerateWarnings(m, mem.AbsorbingBarriers, mem.CurrentFlexibility.BarrierProximity),
		EscapeRoutes: append([]domain.EscapeRoute(nil), mem.EscapeRoutes...),
		Barriers:     append([]domain.Barrier(nil), mem.AbsorbingBarriers...),
		Constraints:  len(mem.Constraints),
	}
}

// EarlyWarningState runs a monitoring cycle (subject to throttling).
func (e *Engine) EarlyWarningState(ctx context.Context, sc domain.SessionContext) warning.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	sc.SessionID = e.id
	return e.warn.ContinuousMonitoring(ctx, e.mem.Memory(), sc)
}

// LastEarlyWarning returns the most recent fused state without measuring.
func (e *Engine) LastEarlyWarning() (warning.State, bool) {
	return e.warn.LastState()
}

// ExecuteEscapeProtocol runs the protocol at level. It requires explicit
// confirmation because a successful escape rewrites part of the path.
func (e *Engine) ExecuteEscapeProtocol(ctx context.Context, level escape.Level, confirmed bool) (escape.AttemptResult, error) {
	if !confirmed {
		return escape.AttemptResult{}, ErrConfirmationRequired
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.exec.Execute(ctx, level, e.mem)
	if err != nil {
		return escape.AttemptResult{}, err
	}
	e.metrics.RecordFlexibility(e.id, e.mem.Memory().Score())
	return res, nil
}

// AvailableEscapeProtocols lists the protocols reachable at the current score.
func (e *Engine) AvailableEscapeProtocols() []escape.Protocol {
	e.mu.Lock()
	defer e.mu.Unlock()
	return escape.AvailableProtocols(e.mem.Memory().Score())
}

// EscapeRequirements estimates what the protocol at level would take now.
func (e *Engine) EscapeRequirements(level escape.Level) (escape.Requirements, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return escape.CalculateRequirements(e.mem.Memory(), level)
}

// EscapeMonitoring returns the escape attempt aggregate.
func (e *Engine) EscapeMonitoring() escape.Monitoring {
	return e.exec.Monitoring()
}

// ResetEscapeMonitoring zeroes the escape attempt aggregate.
func (e *Engine) ResetEscapeMonitoring() {
	e.exec.ResetMonitoring()
}

// WarningHistory returns retained warnings, optionally for one session.
func (e *Engine) WarningHistory(sessionID string) []warning.ActiveWarning {
	return e.warn.WarningHistory(sessionID)
}

// SensorStatus reports the status of every sensor.
func (e *Engine) SensorStatus() []sensor.Status {
	return e.warn.Status()
}

// ResetEarlyWarning clears sensor state, reading history and the cache.
func (e *Engine) ResetEarlyWarning() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.warn.Reset()
}

// TrackRiskAssessment folds a risk assessment into the engagement record
// and raises an alert when escalation reaches re-engagement.
func (e *Engine) TrackRiskAssessment(a escalation.Assessment, proposedAction string) (escalation.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.tracker.TrackAssessment(a, e.session, proposedAction)
	if err != nil {
		return escalation.Result{}, err
	}
	if res.Escalated && res.Level >= escalation.LevelReengage {
		level := alerts.LevelWarning
		if res.Level >= escalation.LevelHighStake {
			level = alerts.LevelCritical
		}
		title := fmt.Sprintf("Escalation level %d", res.Level)
		msg := title
		if res.Prompt != nil {
			title = res.Prompt.Title
			msg = res.Prompt.Message
		}
		e.raise(level, title, msg, map[string]any{
			"dismissals":  res.Metrics.DismissalCount,
			"consecutive": res.Metrics.ConsecutiveLowConfidence,
			"action":      proposedAction,
		})
	}
	return res, nil
}

// Engagement returns the current risk-engagement record.
func (e *Engine) Engagement() escalation.Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Metrics()
}

// UnlockEscalation lowers escalation after substantive re-engagement.
func (e *Engine) UnlockEscalation(confidence float64, justification string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Unlock(confidence, justification)
}

func (e *Engine) raise(level alerts.Level, title, message string, ctx map[string]any) {
	if e.alerts == nil {
		return
	}
	e.alerts.Send(level, "engine", e.id, title, message, ctx)
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(append([]string(nil), list...), s)
}
