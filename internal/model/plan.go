// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// Plan is the subscription tier governing the send quota.
type Plan string

const (
	PlanFree Plan = "Free"
	PlanPro  Plan = "Pro"
)

// ParsePlan reads a persisted plan value. Anything other than "pro"
// (case-insensitive) is treated as the free tier.
func ParsePlan(s string) Plan {
	if strings.EqualFold(strings.TrimSpace(s), string(PlanPro)) {
		return PlanPro
	}
	return PlanFree
}

// String returns the persisted form of the plan.
func (p Plan) String() string {
	return string(p)
}

// IsPro reports whether the plan is the unlimited tier.
func (p Plan) IsPro() bool {
	return p == PlanPro
}
