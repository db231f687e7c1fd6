package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/uddhav/creative-thinking/internal/render"
	"github.com/uddhav/creative-thinking/internal/sensor"
	"github.com/uddhav/creative-thinking/internal/warning"
)

func statusCmd() *cobra.Command {
	var measure bool
	cmd := newCommand(CommandConfig{
		Use:   "status",
		Short: "Show flexibility, warnings and escape routes of the session",
		Long: `Show the current flexibility of the session. The early-warning block shows
the last measured state; pass --measure to run the sensors now and persist
the result.`,
		Action: "status",
		Args:   cobra.NoArgs,
		RunFunc: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := loadSelected(ctx)
			if err != nil {
				return err
			}
			if measure {
				e.EarlyWarningState(ctx, e.Context())
				if err := saveEngine(ctx, e); err != nil {
					return err
				}
			}
			v := statusView(e)
			return output(cmd, v, func(w io.Writer) {
				fmt.Fprintln(w, render.New(pretty).Status(v))
			})
		},
	})
	cmd.Flags().BoolVarP(&measure, "measure", "m", false, "Run the early-warning sensors before rendering")
	return cmd
}

func warningsCmd() *cobra.Command {
	var showSensors bool
	cmd := newCommand(CommandConfig{
		Use:    "warnings",
		Short:  "List warnings raised in the session",
		Action: "warnings",
		Args:   cobra.NoArgs,
		RunFunc: func(cmd *cobra.Command, args []string) error {
			e, err := loadSelected(cmd.Context())
			if err != nil {
				return err
			}
			list := e.WarningHistory(e.SessionID())
			if list == nil {
				list = []warning.ActiveWarning{}
			}
			if showSensors {
				status := e.SensorStatus()
				return output(cmd, map[string]any{"warnings": list, "sensors": status}, func(w io.Writer) {
					render.NewLists(w).Warnings(list)
					printSensorStatus(w, status)
				})
			}
			return output(cmd, list, func(w io.Writer) {
				render.NewLists(w).Warnings(list)
			})
		},
	})
	cmd.Flags().BoolVar(&showSensors, "sensors", false, "Also show sensor status")
	return cmd
}

func printSensorStatus(w io.Writer, list []sensor.Status) {
	out := render.NewWriter(w)
	out.Section("SENSORS")
	for _, s := range list {
		if s.LastReading == nil {
			out.Item("%-16s %s  no readings", s.Type, render.BoolIcon(s.Active))
			continue
		}
		r := s.LastReading
		out.Item("%-16s %s  %s %.2f  measurements=%d", s.Type, render.BoolIcon(s.Active),
			render.LevelGlyph(r.WarningLevel), r.RawValue, s.Measurements)
	}
}

func historyCmd() *cobra.Command {
	var last int
	cmd := newCommand(CommandConfig{
		Use:    "history",
		Short:  "Show the decision path of the session",
		Action: "history",
		Args:   cobra.NoArgs,
		RunFunc: func(cmd *cobra.Command, args []string) error {
			e, err := loadSelected(cmd.Context())
			if err != nil {
				return err
			}
			events := e.Memory().History
			if last > 0 && len(events) > last {
				events = events[len(events)-last:]
			}
			return output(cmd, events, func(w io.Writer) {
				render.NewLists(w).History(events)
			})
		},
	})
	cmd.Flags().IntVarP(&last, "last", "n", 0, "Only show the last N events")
	return cmd
}

func resetWarningsCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:    "reset-warnings",
		Short:  "Clear the early-warning history of the session",
		Action: "reset-warnings",
		Args:   cobra.NoArgs,
		RunFunc: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := loadSelected(ctx)
			if err != nil {
				return err
			}
			e.ResetEarlyWarning()
			if err := saveEngine(ctx, e); err != nil {
				return err
			}
			if !jsonOut {
				fmt.Fprintln(cmd.OutOrStdout(), "early-warning state cleared")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"reset": e.SessionID()})
		},
	})
}

func statsCmd() *cobra.Command {
	var table, reset bool
	cmd := newCommand(CommandConfig{
		Use:   "stats",
		Short: "Export escape protocol effectiveness",
		Long: `Print the escape monitoring aggregate of the session. The default output is
JSON so it can be collected; --table renders it for reading.`,
		Action: "stats",
		Args:   cobra.NoArgs,
		RunFunc: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := loadSelected(ctx)
			if err != nil {
				return err
			}
			m := e.EscapeMonitoring()
			if reset {
				e.ResetEscapeMonitoring()
				if err := saveEngine(ctx, e); err != nil {
					return err
				}
			}
			if table && !jsonOut {
				render.NewLists(cmd.OutOrStdout()).Stats(m)
				return nil
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"session":      e.SessionID(),
				"success_rate": m.SuccessRate(),
				"monitoring":   m,
			})
		},
	})
	cmd.Flags().BoolVar(&table, "table", false, "Render as a table instead of JSON")
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the aggregate after printing")
	return cmd
}
