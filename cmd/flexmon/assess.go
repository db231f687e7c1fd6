package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/escalation"
	"github.com/uddhav/creative-thinking/internal/render"
)

func assessCmd() *cobra.Command {
	var (
		a            escalation.Assessment
		timePressure string
	)
	cmd := newCommand(CommandConfig{
		Use:   "assess <proposed action>",
		Short: "Track a risk assessment of a proposed action",
		Long: `Record how confident you are about a proposed action. Low confidence on an
action that carries real risk counts as a dismissal. Repeated dismissals
raise the escalation level; from level 3 on the next step asks for
re-engagement, and 'flexmon unlock' with a justification returns to level 1.`,
		Example: `  flexmon assess "sign the exclusive distribution deal" --confidence 0.3 --irreversible --impact-radius organization`,
		Action:  "assess",
		Args:    cobra.ExactArgs(1),
		RunFunc: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := loadSelected(ctx)
			if err != nil {
				return err
			}
			a.TimePressure = domain.Pressure(timePressure)
			res, err := e.TrackRiskAssessment(a, args[0])
			if err != nil {
				return err
			}
			if err := saveEngine(ctx, e); err != nil {
				return err
			}
			return output(cmd, res, func(w io.Writer) {
				render.NewLists(w).Assessment(res)
				if res.Prompt != nil {
					fmt.Fprintln(w)
					fmt.Fprintln(w, render.New(pretty).Status(render.StatusView{
						SessionID:   e.SessionID(),
						Flexibility: e.CurrentFlexibility(),
						Prompt:      res.Prompt,
					}))
				}
			})
		},
	})

	f := cmd.Flags()
	f.Float64Var(&a.Confidence, "confidence", 0.5, "Confidence in the action in [0,1]")
	f.BoolVar(&a.Irreversible, "irreversible", false, "The action cannot be undone")
	f.BoolVar(&a.SurvivalThreat, "survival-threat", false, "Failure threatens survival of the venture")
	f.StringVar(&timePressure, "time-pressure", "", "Time pressure: low, medium, high or critical")
	f.StringVar(&a.ImpactRadius, "impact-radius", "", "local, team, organization or systemic")
	f.StringVar(&a.Text, "text", "", "Free-text reasoning scanned for risk indicators")
	return cmd
}

func unlockCmd() *cobra.Command {
	var (
		confidence    float64
		justification string
	)
	cmd := newCommand(CommandConfig{
		Use:   "unlock",
		Short: "Return escalation to level 1 after re-engagement",
		Long: `Return escalation to level 1 with a written justification. The stated
confidence must meet the current level's minimum.`,
		Action: "unlock",
		Args:   cobra.NoArgs,
		RunFunc: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := loadSelected(ctx)
			if err != nil {
				return err
			}
			if err := e.UnlockEscalation(confidence, justification); err != nil {
				return err
			}
			if err := saveEngine(ctx, e); err != nil {
				return err
			}
			m := e.Engagement()
			return output(cmd, m, func(w io.Writer) {
				fmt.Fprintf(w, "unlocked: escalation level %d\n", m.EscalationLevel)
			})
		},
	})
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "Confidence after reconsidering, in [0,1]")
	cmd.Flags().StringVarP(&justification, "justification", "j", "", "Why the action should proceed")
	_ = cmd.MarkFlagRequired("justification")
	return cmd
}
