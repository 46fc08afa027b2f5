// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/parley-tui/internal/model"
)

const (
	// MaxActivity bounds the recent-activity log; oldest entries go first.
	MaxActivity = 20

	// TitleLimit is the number of characters kept in an activity title.
	TitleLimit = 30

	activityTimeLayout = "3:04:05 PM"
)

// Activity is one entry of the recent-activity log.
type Activity struct {
	Title string `json:"title"`
	Time  string `json:"time"`
	ID    int64  `json:"id"`
}

// NewActivity builds an entry for prompt sent at the given time.
func NewActivity(prompt string, at time.Time) Activity {
	return Activity{
		Title: TruncateTitle(prompt),
		Time:  at.Format(activityTimeLayout),
		ID:    at.UnixMilli(),
	}
}

// Profile gives typed access to the session fields mirrored in a Store.
type Profile struct {
	store Store
	now   func() time.Time
}

// NewProfile wraps s.
func NewProfile(s Store) *Profile {
	return &Profile{store: s, now: time.Now}
}

// Store returns the underlying store.
func (p *Profile) Store() Store {
	return p.store
}

// =============================================================================
// PLAN AND COUNTERS
// =============================================================================

// Plan returns the persisted plan tier, Free when unset.
func (p *Profile) Plan() (model.Plan, error) {
	v, _, err := p.store.Get(KeyPlan)
	if err != nil {
		return model.PlanFree, err
	}
	return model.ParsePlan(v), nil
}

// SetPlan persists the plan tier.
func (p *Profile) SetPlan(plan model.Plan) error {
	return p.store.Set(KeyPlan, plan.String())
}

// SentCount returns the persisted send counter. Missing or malformed
// values read as zero.
func (p *Profile) SentCount() (int, error) {
	v, ok, err := p.store.Get(KeySentCount)
	if err != nil || !ok {
		return 0, err
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(v))
	if convErr != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// SetSentCount persists the send counter.
func (p *Profile) SetSentCount(n int) error {
	return p.store.Set(KeySentCount, strconv.Itoa(n))
}

// =============================================================================
// IDENTITY
// =============================================================================

// Identity returns the stored user identity. An empty or missing value
// means an anonymous session.
func (p *Profile) Identity() (string, error) {
	v, _, err := p.store.Get(KeyUserID)
	return strings.TrimSpace(v), err
}

// SetIdentity stores the user identity.
func (p *Profile) SetIdentity(id string) error {
	return p.store.Set(KeyUserID, id)
}

// SignedIn reports whether an access token is present.
func (p *Profile) SignedIn() (bool, error) {
	v, ok, err := p.store.Get(KeyAccessToken)
	return ok && v != "", err
}

// SignOut removes the stored tokens. Identity, plan and counters stay.
func (p *Profile) SignOut() error {
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyTokenType} {
		if err := p.store.Remove(key); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// RECENT ACTIVITY
// =============================================================================

// Activity returns the recent-activity log, newest first.
func (p *Profile) Activity() ([]Activity, error) {
	v, ok, err := p.store.Get(KeyRecentActivity)
	if err != nil || !ok || v == "" {
		return nil, err
	}
	var list []Activity
	if err := json.Unmarshal([]byte(v), &list); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", KeyRecentActivity, err)
	}
	return list, nil
}

// RecordActivity prepends an entry for prompt, keeps the newest
// MaxActivity entries and updates the conversation total.
func (p *Profile) RecordActivity(prompt string) (Activity, error) {
	entry := NewActivity(prompt, p.now())

	list, err := p.Activity()
	if err != nil {
		// A corrupt log is replaced rather than blocking new entries.
		list = nil
	}
	if len(list) > MaxActivity-1 {
		list = list[:MaxActivity-1]
	}
	list = append([]Activity{entry}, list...)

	if err := p.SetActivity(list); err != nil {
		return entry, err
	}
	return entry, nil
}

// SetActivity replaces the whole log and the conversation total.
func (p *Profile) SetActivity(list []Activity) error {
	if len(list) > MaxActivity {
		list = list[:MaxActivity]
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", KeyRecentActivity, err)
	}
	if err := p.store.Set(KeyRecentActivity, string(raw)); err != nil {
		return err
	}
	return p.store.Set(KeyTotalConversations, strconv.Itoa(len(list)))
}

// TotalConversations returns the stored conversation total.
func (p *Profile) TotalConversations() (int, error) {
	v, ok, err := p.store.Get(KeyTotalConversations)
	if err != nil || !ok {
		return 0, err
	}
	n, convErr := strconv.Atoi(v)
	if convErr != nil {
		return 0, nil
	}
	return n, nil
}

// TruncateTitle keeps the first TitleLimit characters of s (after NFC
// normalisation) and appends "..." when anything was cut.
func TruncateTitle(s string) string {
	runes := []rune(norm.NFC.String(s))
	if len(runes) <= TitleLimit {
		return string(runes)
	}
	return string(runes[:TitleLimit]) + "..."
}
