// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// newRootCmd builds the command tree around a. The caller closes a once
// the command has run.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "parley",
		Short: "Chat with an AI backend from the terminal",
		Long: `parley is a terminal chat client for a conversational AI backend.

Replies are revealed a character at a time. Free accounts can send five
messages; "parley upgrade" lifts the limit.

Quick Start:
  parley                       # Full-screen chat
  parley plain                 # Line-mode chat
  parley status                # Plan, quota and recent activity
  parley export --format md    # Export your history as Markdown`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lipgloss.SetColorProfile(GetColorProfile())
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !IsTTY() {
				return a.runPlain(cmd, newScanReader(cmd.InOrStdin()))
			}
			return a.runTUI(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "Config file (default ~/.parley/config.toml)")
	flags.StringVar(&a.flags.apiURL, "api-url", "", "Override the backend base URL")
	flags.StringVar(&a.flags.store, "store", "", "Override the store backend (memory, file, sqlite)")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Enable debug logging")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newPlainCmd(a),
		newStatusCmd(a),
		newUpgradeCmd(a),
		newLogoutCmd(a),
		newExportCmd(a),
		newConfigCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:")+" "+err.Error())
		os.Exit(1)
	}
}
