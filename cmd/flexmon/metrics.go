package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/uddhav/creative-thinking/internal/metrics"
	"github.com/uddhav/creative-thinking/internal/store"
)

func metricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Prometheus metrics",
	}
	cmd.AddCommand(metricsServeCmd())
	return cmd
}

func metricsServeCmd() *cobra.Command {
	var addr string
	cmd := newCommand(CommandConfig{
		Use:   "serve",
		Short: "Serve stored session gauges on /metrics",
		Long: `Serve Prometheus metrics. Flexibility and escalation gauges are seeded from
the stored sessions at start; counters cover what this process records.`,
		Action: "metrics.serve",
		Args:   cobra.NoArgs,
		RunFunc: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = state.cfg.MetricsAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			n, err := seedGauges(ctx, state.store, state.metrics)
			if err != nil {
				return err
			}

			srv := metrics.NewServer(addr, state.metrics)
			srv.Start()
			state.logger.Info("metrics server started", slog.String("addr", addr), slog.Int("sessions", n))
			if !jsonOut {
				fmt.Fprintf(cmd.OutOrStdout(), "serving http://%s/metrics (%d sessions)\n", addr, n)
			}

			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Stop(shutdown)
		},
	})
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:9464)")
	return cmd
}

// seedGauges sets per-session gauges from every stored snapshot.
func seedGauges(ctx context.Context, st store.SnapshotStore, m *metrics.Metrics) (int, error) {
	list, err := st.List(ctx, store.Filter{})
	if err != nil {
		return 0, err
	}
	for _, s := range list {
		snap, err := st.Get(ctx, s.ID)
		if err != nil {
			return 0, err
		}
		if snap.Memory != nil {
			m.RecordFlexibility(s.ID, snap.Memory.Score())
		}
		m.RecordEscalation(s.ID, snap.Engagement.EscalationLevel)
	}
	return len(list), nil
}

