package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

// CommandFunc defines the function signature for command execution.
type CommandFunc func(cmd *cobra.Command, args []string) error

// CommandConfig holds configuration for creating standardized commands.
type CommandConfig struct {
	Use     string
	Short   string
	Long    string
	Example string
	Aliases []string
	Args    cobra.PositionalArgs
	// Action names the command in logs.
	Action  string
	RunFunc CommandFunc
}

// newCommand creates a command that logs its outcome and duration.
func newCommand(cfg CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:     cfg.Use,
		Short:   cfg.Short,
		Long:    cfg.Long,
		Example: cfg.Example,
		Aliases: cfg.Aliases,
		Args:    cfg.Args,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err := cfg.RunFunc(cmd, args)
			attrs := []any{
				slog.String("action", cfg.Action),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				state.logger.Debug("command failed", append(attrs, slog.String("error", err.Error()))...)
				return err
			}
			state.logger.Debug("command completed", attrs...)
			return nil
		},
	}
}
