// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/parley-tui/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		Long: `Show or change parley configuration. Keys use dot notation, for
example api.base_url or reveal.fast_interval_ms.`,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.cfg.String())
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.cfgPath)
			return nil
		},
	}

	get := &cobra.Command{
		Use:       "get KEY",
		Short:     "Print one configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.GetAllKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one value in the config file",
		Long: `Change one value in the config file. Environment variables and
command-line flags are not written back.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.setConfigValue(cmd, args[0], args[1])
		},
	}

	cmd.AddCommand(show, path, get, set)
	return cmd
}

// setConfigValue edits the file on disk, not the effective config, so
// overrides from the environment and flags stay out of it.
func (a *app) setConfigValue(cmd *cobra.Command, key, value string) error {
	if a.cfgPath == "" {
		return errors.New("no config path")
	}

	cfg := config.Default()
	if _, err := os.Stat(a.cfgPath); err == nil {
		load := config.LoadTOML
		if strings.HasSuffix(a.cfgPath, ".json") {
			load = config.LoadJSON
		}
		if err := load(cfg, a.cfgPath); err != nil {
			return err
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	save := config.SaveTOML
	if strings.HasSuffix(a.cfgPath, ".json") {
		save = config.SaveJSON
	}
	if err := save(cfg, a.cfgPath); err != nil {
		return err
	}

	v, _ := cfg.Get(key)
	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(fmt.Sprintf("[OK] %s = %v", key, v)))
	return nil
}
