// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package quota decides whether a new outgoing message is permitted under
// the current plan tier.
package quota

import (
	"strconv"

	"github.com/jeranaias/parley-tui/internal/model"
)

// FreeLimit is the number of messages a free-tier user may send.
const FreeLimit = 5

// CanSend reports whether another message may be sent. It returns false
// only for the free tier once sentCount has reached FreeLimit.
func CanSend(plan model.Plan, sentCount int) bool {
	return !(plan != model.PlanPro && sentCount >= FreeLimit)
}

// Upgrade returns the plan after a one-way upgrade. Pro stays Pro.
func Upgrade(model.Plan) model.Plan {
	return model.PlanPro
}

// Remaining returns how many sends the free tier has left, or -1 when the
// plan is unlimited.
func Remaining(plan model.Plan, sentCount int) int {
	if plan.IsPro() {
		return -1
	}
	if sentCount >= FreeLimit {
		return 0
	}
	return FreeLimit - sentCount
}

// Label renders the footer text shown under the input box.
func Label(plan model.Plan, sentCount int) string {
	if plan.IsPro() {
		return "Premium Tier (Unlimited)"
	}
	return "Free Tier (" + strconv.Itoa(sentCount) + "/" + strconv.Itoa(FreeLimit) + ")"
}
