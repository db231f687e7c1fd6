package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/engine"
	"github.com/uddhav/creative-thinking/internal/render"
	"github.com/uddhav/creative-thinking/internal/store"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sess"},
		Short:   "Create, list and delete sessions",
	}
	cmd.AddCommand(sessionNewCmd(), sessionListCmd(), sessionDeleteCmd())
	return cmd
}

func sessionNewCmd() *cobra.Command {
	var id string
	cmd := newCommand(CommandConfig{
		Use:    "new [problem]",
		Short:  "Start a new session",
		Action: "session.new",
		Example: `  flexmon session new "How do we price the enterprise tier?" --total-steps 8
  export FLEXMON_SESSION=$(flexmon session new "hiring plan")`,
		Args: cobra.MaximumNArgs(1),
		RunFunc: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = uuid.NewString()
			}
			sc := domain.SessionContext{SessionID: id}
			if len(args) == 1 {
				sc.Problem = strings.TrimSpace(args[0])
			}
			if err := applyContextFlags(cmd, &sc); err != nil {
				return err
			}

			e, err := engine.New(sc, engineConfig(), engineOptions()...)
			if err != nil {
				return err
			}
			snap := e.Snapshot()
			if err := state.store.Create(cmd.Context(), snap); err != nil {
				return err
			}
			return output(cmd, snap, func(w io.Writer) {
				fmt.Fprintln(w, id)
			})
		},
	})
	cmd.Flags().StringVar(&id, "id", "", "Session ID (default: random UUID)")
	addContextFlags(cmd)
	return cmd
}

func sessionListCmd() *cobra.Command {
	var limit int
	cmd := newCommand(CommandConfig{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored sessions",
		Action:  "session.list",
		Args:    cobra.NoArgs,
		RunFunc: func(cmd *cobra.Command, args []string) error {
			list, err := state.store.List(cmd.Context(), store.DefaultFilter().WithLimit(limit))
			if err != nil {
				return err
			}
			if list == nil {
				list = []store.Summary{}
			}
			return output(cmd, list, func(w io.Writer) {
				render.NewLists(w).Sessions(list)
			})
		},
	})
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum sessions to list")
	return cmd
}

func sessionDeleteCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete sessions",
		Action:  "session.delete",
		Args:    cobra.MinimumNArgs(1),
		RunFunc: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := state.store.Delete(cmd.Context(), id); err != nil {
					return err
				}
				if !jsonOut {
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
				}
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": args})
			}
			return nil
		},
	})
}
