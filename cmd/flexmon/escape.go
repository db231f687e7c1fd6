package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/uddhav/creative-thinking/internal/escape"
	"github.com/uddhav/creative-thinking/internal/render"
)

func escapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escape",
		Short: "Plan and run escape protocols",
		Long: `Escape protocols regain flexibility when the path is close to an absorbing
barrier. Levels run from 1 (Pattern Interruption) to 5 (Strategic Pivot);
higher levels need more flexibility to attempt and rewrite more of the path.`,
	}
	cmd.AddCommand(escapeListCmd(), escapePlanCmd(), escapeRunCmd())
	return cmd
}

func parseLevel(s string) (escape.Level, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("escape level %q: want 1-5", s)
	}
	level := escape.Level(n)
	if _, err := escape.Lookup(level); err != nil {
		return 0, err
	}
	return level, nil
}

func escapeListCmd() *cobra.Command {
	var all bool
	cmd := newCommand(CommandConfig{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List escape protocols reachable at the current flexibility",
		Action:  "escape.list",
		Args:    cobra.NoArgs,
		RunFunc: func(cmd *cobra.Command, args []string) error {
			e, err := loadSelected(cmd.Context())
			if err != nil {
				return err
			}
			score := e.CurrentFlexibility().Metrics.Score
			list := e.AvailableEscapeProtocols()
			if all {
				list = escape.Catalog()
			}
			if list == nil {
				list = []escape.Protocol{}
			}
			return output(cmd, list, func(w io.Writer) {
				if len(list) == 0 {
					render.NewWriter(w).Empty(fmt.Sprintf("No protocol reachable at flexibility %.2f", score))
					return
				}
				render.NewLists(w).Protocols(list, score)
			})
		},
	})
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include protocols out of reach")
	return cmd
}

func escapePlanCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:     "plan <level>",
		Short:   "Show what escaping with a protocol would take",
		Action:  "escape.plan",
		Example: "  flexmon escape plan 2",
		Args:    cobra.ExactArgs(1),
		RunFunc: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(args[0])
			if err != nil {
				return err
			}
			e, err := loadSelected(cmd.Context())
			if err != nil {
				return err
			}
			p, _ := escape.Lookup(level)
			req, err := e.EscapeRequirements(level)
			if err != nil {
				return err
			}
			return output(cmd, map[string]any{"protocol": p, "requirements": req}, func(w io.Writer) {
				render.NewLists(w).Requirements(p, req)
			})
		},
	})
}

func escapeRunCmd() *cobra.Command {
	var yes bool
	cmd := newCommand(CommandConfig{
		Use:   "run <level>",
		Short: "Execute an escape protocol",
		Long: `Execute an escape protocol against the session path. A successful escape
removes constraints, reopens options and raises flexibility; a failed one
leaves the path as it was. Execution needs confirmation: answer the prompt
or pass --yes.`,
		Action: "escape.run",
		Args:   cobra.ExactArgs(1),
		RunFunc: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			level, err := parseLevel(args[0])
			if err != nil {
				return err
			}
			e, err := loadSelected(ctx)
			if err != nil {
				return err
			}

			confirmed := yes
			if !confirmed && !jsonOut && term.IsTerminal(int(os.Stdin.Fd())) {
				p, _ := escape.Lookup(level)
				confirmed = confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Execute %s on session %s?", p.Name, e.SessionID()))
			}
			res, err := e.ExecuteEscapeProtocol(ctx, level, confirmed)
			if err != nil {
				return err
			}
			if err := saveEngine(ctx, e); err != nil {
				return err
			}
			return output(cmd, res, func(w io.Writer) {
				render.NewLists(w).Attempt(res)
			})
		},
	})
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm execution without prompting")
	return cmd
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
