package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/uddhav/creative-thinking/internal/backup"
	"github.com/uddhav/creative-thinking/internal/config"
	"github.com/uddhav/creative-thinking/internal/render"
)

func exportCmd() *cobra.Command {
	var outPath, description string
	cmd := newCommand(CommandConfig{
		Use:   "export [session-id...]",
		Short: "Export sessions to a tar.gz archive",
		Long: `Export sessions with their path memory, warning history and escape
statistics. Without arguments every stored session is exported.`,
		Example: `  flexmon export -o pricing.tar.gz 3f1c...
  flexmon export --description "before Q3 review"`,
		Action: "export",
		RunFunc: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				dir := config.GetPaths().Backups
				if err := config.EnsureDir(dir); err != nil {
					return err
				}
				outPath = filepath.Join(dir, fmt.Sprintf("flexmon-%s.tar.gz", time.Now().Format("20060102-150405")))
			}
			meta, err := backup.NewManager(state.store).Export(cmd.Context(), args, outPath, description)
			if err != nil {
				return err
			}
			return output(cmd, map[string]any{"path": outPath, "metadata": meta}, func(w io.Writer) {
				fmt.Fprintf(w, "exported %d session(s) to %s\n", len(meta.Sessions), outPath)
			})
		},
	})
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Archive path (default ~/.flexmon/backups/flexmon-<time>.tar.gz)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description stored in the archive")
	return cmd
}

func importCmd() *cobra.Command {
	var replace, list bool
	cmd := newCommand(CommandConfig{
		Use:   "import <archive>",
		Short: "Import sessions from an archive",
		Long: `Import sessions from an archive created by 'flexmon export'. Archived
sessions overwrite stored sessions with the same ID. With --replace every
stored session is removed first. Checksums are verified before anything is
written.`,
		Action: "import",
		Args:   cobra.ExactArgs(1),
		RunFunc: func(cmd *cobra.Command, args []string) error {
			mgr := backup.NewManager(state.store)
			if list {
				meta, err := mgr.List(args[0])
				if err != nil {
					return err
				}
				return output(cmd, meta, func(w io.Writer) {
					out := render.NewWriter(w)
					out.Header("BACKUP %s", args[0])
					out.Item("Created:     %s", meta.CreatedAt.Format(time.RFC3339))
					if meta.Description != "" {
						out.Item("Description: %s", meta.Description)
					}
					out.Section("sessions")
					for _, id := range meta.Sessions {
						out.Item("%s", id)
					}
				})
			}

			res, err := mgr.Import(cmd.Context(), args[0], !replace)
			if err != nil {
				return err
			}
			return output(cmd, res, func(w io.Writer) {
				if res.Cleared > 0 {
					fmt.Fprintf(w, "removed %d stored session(s)\n", res.Cleared)
				}
				fmt.Fprintf(w, "imported %d session(s)\n", len(res.Imported))
			})
		},
	})
	cmd.Flags().BoolVar(&replace, "replace", false, "Remove all stored sessions before importing")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "Show archive contents without importing")
	return cmd
}
