// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/parley-tui/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format    string
		outputDir string
		open      bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export your chat history",
		Long: `Fetch the stored user's history from the backend and write it as
JSON, YAML or Markdown. Without --output the transcript goes to stdout.`,
		Example: `  parley export --format md
  parley export --format yaml --output ./exports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.DefaultOptions()
			opts.OpenAfterExport = open
			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return err
			}

			profile, err := a.openProfile()
			if err != nil {
				return err
			}
			identity, err := profile.Identity()
			if err != nil {
				return err
			}
			if identity == "" {
				return errors.New("no user ID stored; history export needs a signed-in account")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, a.cfg.HistoryTimeout())
			defer cancel()
			remote, err := a.client().History(ctx, identity)
			if err != nil {
				return fmt.Errorf("fetch history: %w", err)
			}
			transcript := export.FromHistory(identity, remote)

			if outputDir == "" {
				return export.Write(cmd.OutOrStdout(), transcript, exporter)
			}
			opts.OutputDir = outputDir
			path, err := export.ExportToFile(transcript, exporter, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), SuccessStyle.Render(fmt.Sprintf("[OK] Exported %d messages to %s", len(transcript.Messages), path)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "Export format ("+strings.Join(export.Formats, ", ")+")")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to write the file to")
	cmd.Flags().BoolVar(&open, "open", false, "Open the file after exporting")
	return cmd
}
