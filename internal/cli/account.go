// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/parley-tui/internal/quota"
)

func newUpgradeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade to the Premium plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.openProfile()
			if err != nil {
				return err
			}
			plan, err := profile.Plan()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if plan.IsPro() {
				fmt.Fprintln(out, DimStyle.Render("Already on Premium."))
				return nil
			}
			if err := profile.SetPlan(quota.Upgrade(plan)); err != nil {
				return fmt.Errorf("save plan: %w", err)
			}
			fmt.Fprintln(out, SuccessStyle.Render("[OK] Upgraded to Premium. Unlimited messages."))
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access tokens",
		Long: `Remove the stored access and refresh tokens. The user ID, plan and
counters are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.openProfile()
			if err != nil {
				return err
			}
			if err := profile.SignOut(); err != nil {
				return fmt.Errorf("sign out: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("[OK] Signed out."))
			return nil
		},
	}
}
