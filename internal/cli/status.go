// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/history"
	"github.com/jeranaias/parley-tui/internal/quota"
	"github.com/jeranaias/parley-tui/internal/storage"
	"github.com/jeranaias/parley-tui/internal/util"
)

// Activity sources reported by status.
const (
	sourceLocal   = "local"
	sourceHistory = "history"
)

// statusReport is the dashboard, also emitted as JSON.
type statusReport struct {
	Plan               string             `json:"plan"`
	SentCount          int                `json:"sent_count"`
	Remaining          int                `json:"remaining"`
	Quota              string             `json:"quota"`
	SignedIn           bool               `json:"signed_in"`
	Identity           string             `json:"user_id,omitempty"`
	TotalConversations int                `json:"total_conversations"`
	ActivitySource     string             `json:"activity_source"`
	Activity           []storage.Activity `json:"recent_activity"`
}

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"s"},
		Short:   "Show plan, quota and recent activity",
		Long: `Show the plan tier, messages sent, total conversations and recent
activity. With a stored identity the activity comes from the backend
history; otherwise from the local log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.buildStatus(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printStatus(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func (a *app) buildStatus(ctx context.Context) (*statusReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	profile, err := a.openProfile()
	if err != nil {
		return nil, err
	}

	plan, err := profile.Plan()
	if err != nil {
		return nil, err
	}
	sent, err := profile.SentCount()
	if err != nil {
		return nil, err
	}
	signedIn, err := profile.SignedIn()
	if err != nil {
		return nil, err
	}
	identity, err := profile.Identity()
	if err != nil {
		return nil, err
	}

	r := &statusReport{
		Plan:           plan.String(),
		SentCount:      sent,
		Remaining:      quota.Remaining(plan, sent),
		Quota:          quotaSummary(plan.IsPro(), sent),
		SignedIn:       signedIn,
		Identity:       identity,
		ActivitySource: sourceLocal,
	}

	if identity != "" {
		hctx, cancel := context.WithTimeout(ctx, a.cfg.HistoryTimeout())
		remote, err := a.client().History(hctx, identity)
		cancel()
		if err == nil {
			r.Activity = history.ActivityFromHistory(remote)
			r.TotalConversations = len(r.Activity)
			r.ActivitySource = sourceHistory
			return r, nil
		}
		a.log.Warn("history for status", zap.Error(err))
	}

	if r.Activity, err = profile.Activity(); err != nil {
		a.log.Warn("read activity", zap.Error(err))
	}
	if r.TotalConversations, err = profile.TotalConversations(); err != nil {
		return nil, err
	}
	return r, nil
}

// quotaSummary renders the sent count as "n/5" or "unlimited".
func quotaSummary(pro bool, sent int) string {
	if pro {
		return "unlimited"
	}
	return strconv.Itoa(sent) + "/" + strconv.Itoa(quota.FreeLimit)
}

func printStatus(w io.Writer, r *statusReport) {
	fmt.Fprintln(w, TitleStyle.Render("parley status"))

	fmt.Fprintln(w, SectionStyle.Render("Account"))
	fmt.Fprintln(w, formatField("Plan", r.Plan))
	fmt.Fprintln(w, formatField("Messages sent", r.Quota))
	signedIn := "no"
	if r.SignedIn {
		signedIn = "yes"
	}
	fmt.Fprintln(w, formatField("Signed in", signedIn))
	if r.Identity != "" {
		fmt.Fprintln(w, formatField("User ID", r.Identity))
	}
	fmt.Fprintln(w, formatField("Conversations", strconv.Itoa(r.TotalConversations)))

	fmt.Fprintln(w, SectionStyle.Render("Recent activity ("+r.ActivitySource+")"))
	if len(r.Activity) == 0 {
		fmt.Fprintln(w, DimStyle.Render("  No activity yet."))
		return
	}
	width := GetTerminalWidth() - 14
	for _, act := range r.Activity {
		fmt.Fprintf(w, "  %s  %s\n",
			DimStyle.Render(fmt.Sprintf("%-11s", act.Time)),
			ValueStyle.Render(util.TruncateWidth(act.Title, width)))
	}
}
