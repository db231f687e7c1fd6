package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/uddhav/creative-thinking/internal/render"
	"github.com/uddhav/creative-thinking/internal/store"
	"github.com/uddhav/creative-thinking/internal/tui"
)

// storeSource feeds the dashboard from the session store.
type storeSource struct {
	store *store.SQLite
}

func (s storeSource) Status(ctx context.Context, id string) (render.StatusView, error) {
	e, err := loadEngine(ctx, id)
	if err != nil {
		return render.StatusView{}, err
	}
	return statusView(e), nil
}

func (s storeSource) Sessions(ctx context.Context) ([]store.Summary, error) {
	return s.store.List(ctx, store.DefaultFilter())
}

func watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := newCommand(CommandConfig{
		Use:   "watch",
		Short: "Interactive dashboard of a session",
		Long: `Open a terminal dashboard that refreshes the session status as other
flexmon commands record decisions. Without --session the most recently
updated session is shown. Press ? for keys.`,
		Action: "watch",
		Args:   cobra.NoArgs,
		RunFunc: func(cmd *cobra.Command, args []string) error {
			id := sessionFlag
			if id == "" {
				recent, err := state.store.List(cmd.Context(), store.DefaultFilter().WithLimit(1))
				if err != nil {
					return err
				}
				if len(recent) == 0 {
					return errNoSession
				}
				id = recent[0].ID
			}
			return tui.Run(storeSource{store: state.store}, id, interval)
		},
	})
	cmd.Flags().DurationVarP(&interval, "interval", "i", 2*time.Second, "Refresh interval")
	return cmd
}
