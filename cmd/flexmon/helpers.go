package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/engine"
	"github.com/uddhav/creative-thinking/internal/escalation"
	"github.com/uddhav/creative-thinking/internal/render"
)

var errNoSession = errors.New("no session selected: pass --session or set FLEXMON_SESSION")

// requireSession returns the selected session ID.
func requireSession() (string, error) {
	if sessionFlag == "" {
		return "", errNoSession
	}
	return sessionFlag, nil
}

func engineConfig() engine.Config {
	return engine.Config{
		Warning:      state.cfg.WarningSystem(),
		Calibrations: state.cfg.Calibrations(),
	}
}

func engineOptions() []engine.Option {
	return []engine.Option{
		engine.WithAlerts(state.alerts),
		engine.WithMetrics(state.metrics),
		engine.WithLogger(slog.Default()),
	}
}

// loadEngine restores a persisted session.
func loadEngine(ctx context.Context, id string) (*engine.Engine, error) {
	snap, err := state.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return engine.Restore(snap, engineConfig(), engineOptions()...)
}

// loadSelected restores the session chosen by --session.
func loadSelected(ctx context.Context) (*engine.Engine, error) {
	id, err := requireSession()
	if err != nil {
		return nil, err
	}
	return loadEngine(ctx, id)
}

func saveEngine(ctx context.Context, e *engine.Engine) error {
	return state.store.Save(ctx, e.Snapshot())
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// output writes v as JSON with --json, otherwise calls plain.
func output(cmd *cobra.Command, v any, plain func(w io.Writer)) error {
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), v)
	}
	plain(cmd.OutOrStdout())
	return nil
}

// statusView assembles the status block of a session.
func statusView(e *engine.Engine) render.StatusView {
	sc := e.Context()
	v := render.StatusView{
		SessionID:   e.SessionID(),
		Problem:     sc.Problem,
		Flexibility: e.CurrentFlexibility(),
	}
	if st, ok := e.LastEarlyWarning(); ok {
		v.EarlyWarning = &st
	}
	m := e.Engagement()
	v.Prompt = escalation.GeneratePrompt(m.EscalationLevel, m, nil)
	return v
}

// parseConstraint parses "type:description:strength". Strength defaults to 0.5.
func parseConstraint(s string) (domain.ConstraintSpec, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return domain.ConstraintSpec{}, fmt.Errorf("constraint %q: want type:description[:strength]", s)
	}
	spec := domain.ConstraintSpec{Type: parts[0], Description: parts[1], Strength: 0.5}
	if len(parts) == 3 {
		v, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return domain.ConstraintSpec{}, fmt.Errorf("constraint %q: strength: %w", s, err)
		}
		spec.Strength = v
	}
	return spec, nil
}

// applyContextFlags updates the session context from --total-steps,
// --resources and --time-pressure when they were given.
func applyContextFlags(cmd *cobra.Command, sc *domain.SessionContext) error {
	flags := cmd.Flags()
	if flags.Changed("total-steps") {
		n, _ := flags.GetInt("total-steps")
		sc.TotalSteps = n
	}
	if flags.Changed("resources") {
		v, _ := flags.GetFloat64("resources")
		if v < 0 || v > 1 {
			return &domain.ValidationError{Field: "resources", Value: v, Rule: "gte=0,lte=1"}
		}
		sc.ResourcesRemaining = &v
	}
	if flags.Changed("time-pressure") {
		p, _ := flags.GetString("time-pressure")
		switch domain.Pressure(p) {
		case domain.PressureLow, domain.PressureMedium, domain.PressureHigh, domain.PressureCritical:
			sc.TimePressure = domain.Pressure(p)
		default:
			return &domain.ValidationError{Field: "time-pressure", Value: p, Rule: "oneof=low medium high critical"}
		}
	}
	return nil
}

func addContextFlags(cmd *cobra.Command) {
	cmd.Flags().Int("total-steps", 0, "Planned number of steps in the session")
	cmd.Flags().Float64("resources", 0, "Remaining fraction of budget/energy in [0,1]")
	cmd.Flags().String("time-pressure", "", "Time pressure: low, medium, high or critical")
}
