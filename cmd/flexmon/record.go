package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/engine"
	"github.com/uddhav/creative-thinking/internal/render"
)

func recordCmd() *cobra.Command {
	var (
		technique     string
		step          int
		opens         []string
		closes        []string
		reversibility float64
		commitment    float64
		constraints   []string
		impactFile    string
		noMonitor     bool
	)

	cmd := newCommand(CommandConfig{
		Use:   "record <decision>",
		Short: "Record a decision and run early warning",
		Long: `Record a decision on the session path. Flexibility is recalculated and,
unless --no-monitor is given, the sensors measure the new state and an escape
protocol is nominated when the recommended action is pivot or escape.

The impact can be given with flags or as YAML with --impact-file:

  options_opened: [partner-channel]
  options_closed: [free-tier]
  reversibility_cost: 0.6
  commitment_level: 0.7
  constraints:
    - {type: financial, description: annual contract, strength: 0.6}`,
		Example: `  flexmon record "drop the free tier" -t six_hats --closes free-tier --commitment 0.7 --reversibility 0.6
  flexmon record "sign 12-month contract" -t po --constraint financial:annual-contract:0.8`,
		Action: "record",
		Args:   cobra.ExactArgs(1),
		RunFunc: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := loadSelected(ctx)
			if err != nil {
				return err
			}

			impact := domain.DecisionImpact{
				OptionsOpened:     opens,
				OptionsClosed:     closes,
				ReversibilityCost: reversibility,
				CommitmentLevel:   commitment,
			}
			if impactFile != "" {
				data, err := os.ReadFile(impactFile)
				if err != nil {
					return fmt.Errorf("read impact file: %w", err)
				}
				impact = domain.DecisionImpact{}
				if err := yaml.Unmarshal(data, &impact); err != nil {
					return fmt.Errorf("parse impact file: %w", err)
				}
			}
			for _, c := range constraints {
				spec, err := parseConstraint(c)
				if err != nil {
					return err
				}
				impact.Constraints = append(impact.Constraints, spec)
			}

			sc := e.Context()
			if err := applyContextFlags(cmd, &sc); err != nil {
				return err
			}
			if step <= 0 {
				step = len(e.Memory().History) + 1
			}

			var monitored *domain.SessionContext
			if !noMonitor {
				monitored = &sc
			} else {
				e.UpdateContext(sc)
			}
			res, err := e.RecordDecision(ctx, engine.Decision{
				Technique: technique,
				Step:      step,
				Decision:  args[0],
				Impact:    impact,
			}, monitored)
			if err != nil {
				return err
			}
			if err := saveEngine(ctx, e); err != nil {
				return err
			}

			return output(cmd, res, func(w io.Writer) {
				fmt.Fprintf(w, "recorded %s (step %d, %+.2f)\n\n", res.Event.ID, res.Event.Step, res.Event.FlexibilityImpact)
				fmt.Fprintln(w, render.New(pretty).Status(statusView(e)))
				if rec := res.EscapeRecommendation; rec != nil {
					fmt.Fprintf(w, "\nRecommended escape: %d. %s (%s)\n", rec.Protocol.Level, rec.Protocol.Name, rec.Reason)
					fmt.Fprintf(w, "  run with: flexmon escape run %d --yes\n", rec.Protocol.Level)
				}
			})
		},
	})

	f := cmd.Flags()
	f.StringVarP(&technique, "technique", "t", "", "Thinking technique the decision came from")
	f.IntVar(&step, "step", 0, "Step number (default: next step)")
	f.StringSliceVar(&opens, "opens", nil, "Options the decision opens")
	f.StringSliceVar(&closes, "closes", nil, "Options the decision closes")
	f.Float64Var(&reversibility, "reversibility", 0, "Cost of reversing the decision in [0,1]")
	f.Float64Var(&commitment, "commitment", 0, "Commitment level in [0,1]")
	f.StringArrayVar(&constraints, "constraint", nil, "Constraint created, as type:description[:strength]")
	f.StringVar(&impactFile, "impact-file", "", "YAML file describing the decision impact")
	f.BoolVar(&noMonitor, "no-monitor", false, "Skip early-warning measurement")
	addContextFlags(cmd)
	_ = cmd.MarkFlagRequired("technique")
	return cmd
}
