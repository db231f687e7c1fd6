package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/uddhav/creative-thinking/internal/alerts"
	"github.com/uddhav/creative-thinking/internal/config"
	"github.com/uddhav/creative-thinking/internal/logging"
	"github.com/uddhav/creative-thinking/internal/metrics"
	"github.com/uddhav/creative-thinking/internal/store"
)

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	store   *store.SQLite
	alerts  *alerts.Manager
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var (
	cfgFile     string
	jsonOut     bool
	pretty      bool
	sessionFlag string
	state       *app
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flexmon",
		Short: "Track option flexibility of a thinking session and warn before it runs out",
		Long: `flexmon records the decisions of a creative-thinking session, measures how
much flexibility the path still has, warns when absorbing barriers come
close and runs escape protocols to regain options.

Sessions are persisted between invocations. Select one with --session or
FLEXMON_SESSION.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())

			if !cmd.Flags().Changed("pretty") {
				pretty = term.IsTerminal(int(os.Stdout.Fd()))
			}
			if sessionFlag == "" {
				sessionFlag = cfg.Session
			}

			st, err := store.Open(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			am, err := alerts.NewManager(cfg.AlertDir)
			if err != nil {
				st.Close()
				return err
			}
			state = &app{
				cfg:     cfg,
				store:   st,
				alerts:  am,
				metrics: metrics.Global(),
				logger:  logging.New("cli"),
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if state != nil && state.store != nil {
				state.store.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.flexmon/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Colour and box output (default: when stdout is a terminal)")
	rootCmd.PersistentFlags().StringVarP(&sessionFlag, "session", "s", "", "Session ID (default $FLEXMON_SESSION)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "session", Title: "Sessions:"},
		&cobra.Group{ID: "monitor", Title: "Monitoring:"},
		&cobra.Group{ID: "escape", Title: "Escape:"},
		&cobra.Group{ID: "risk", Title: "Risk engagement:"},
		&cobra.Group{ID: "data", Title: "Data:"},
	)

	add := func(group string, cmds ...*cobra.Command) {
		for _, c := range cmds {
			c.GroupID = group
			rootCmd.AddCommand(c)
		}
	}
	add("session", sessionCmd(), recordCmd())
	add("monitor", statusCmd(), warningsCmd(), historyCmd(), resetWarningsCmd(), watchCmd())
	add("escape", escapeCmd(), statsCmd())
	add("risk", assessCmd(), unlockCmd())
	add("data", exportCmd(), importCmd(), metricsCmd())

	return rootCmd
}
