// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/history"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/quota"
	"github.com/jeranaias/parley-tui/internal/reveal"
	"github.com/jeranaias/parley-tui/internal/storage"
)

const (
	// DefaultSystemPrompt is sent with every chat call unless configured.
	DefaultSystemPrompt = "You are a helpful and powerful AI assistant."

	// DefaultRequestTimeout bounds a chat call.
	DefaultRequestTimeout = 30 * time.Second

	// EmptyReplyText replaces a successful reply with no text.
	EmptyReplyText = "I'm sorry, I couldn't process that."

	// ErrorTemplate formats the diagnostic reply for a failed call.
	ErrorTemplate = "⚠️ Error: %s"
)

// =============================================================================
// STATE
// =============================================================================

// State is the submission state of the controller.
type State int

const (
	// StateLoading means history has not finished loading yet.
	StateLoading State = iota
	StateIdle
	StateSending
	StateRevealing
	StateClosed
)

// String returns a short name for logs and the footer.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateRevealing:
		return "revealing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// =============================================================================
// MESSAGES
// =============================================================================

// ReplyMsg carries the outcome of a chat call.
type ReplyMsg struct {
	Seq  uint64
	Text string
	Err  error
}

// Asker sends one chat turn. *api.Client satisfies it.
type Asker interface {
	Ask(ctx context.Context, req api.AskRequest) (*api.AskResponse, error)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Controller.
type Options struct {
	// Client performs chat calls. Required.
	Client Asker

	// History loads prior turns on Init. Nil skips the load.
	History *history.Synchronizer

	// Profile mirrors plan, counters and activity. Nil uses an
	// in-memory store.
	Profile *storage.Profile

	SystemPrompt   string
	RequestTimeout time.Duration
	Reveal         reveal.Config

	Logger *zap.Logger
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the message log, the quota counters and the single
// reveal of one session.
//
// All methods are meant to be called from one event loop. The mutex only
// keeps accessors consistent when a view reads from another goroutine.
type Controller struct {
	mu sync.Mutex

	conv    *model.Conversation
	reveal  *reveal.Scheduler
	client  Asker
	history *history.Synchronizer
	profile *storage.Profile
	log     *zap.Logger

	systemPrompt   string
	requestTimeout time.Duration

	plan          model.Plan
	sentCount     int
	historyLoaded bool
	busy          bool
	closed        bool
	seq           uint64

	ctx       context.Context
	stop      context.CancelFunc
	cancelMgr *cancelManager
}

// New creates a controller and reads the persisted plan and counter.
// Unreadable values fall back to Free and 0.
func New(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	profile := opts.Profile
	if profile == nil {
		profile = storage.NewProfile(storage.NewMemory())
	}

	ctx, stop := context.WithCancel(context.Background())
	c := &Controller{
		conv:      model.NewConversation(),
		reveal:    reveal.New(opts.Reveal),
		client:    opts.Client,
		history:   opts.History,
		profile:   profile,
		log:       log,
		ctx:       ctx,
		stop:      stop,
		cancelMgr: newCancelManager(),
	}
	c.applyConfig(opts.SystemPrompt, opts.RequestTimeout, opts.Reveal)

	plan, err := profile.Plan()
	if err != nil {
		log.Warn("read plan", zap.Error(err))
	}
	c.plan = plan

	sent, err := profile.SentCount()
	if err != nil {
		log.Warn("read sent count", zap.Error(err))
	}
	c.sentCount = sent

	return c
}

// Init starts the history load. With no identity, or no synchronizer,
// the session is ready at once and Init returns nil.
func (c *Controller) Init() tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.historyLoaded {
		return nil
	}

	identity, err := c.profile.Identity()
	if err != nil {
		c.log.Warn("read identity", zap.Error(err))
	}
	if identity == "" || c.history == nil {
		c.historyLoaded = true
		return nil
	}
	return c.history.LoadCmd(c.ctx, identity)
}

// Submit sends text as a user turn. It returns nil and changes nothing
// when the session is not ready, a call or reveal is in progress, text
// is blank, or the quota is used up.
func (c *Controller) Submit(text string) tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.canSubmitLocked(text) {
		return nil
	}

	c.conv.AddUserMessage(text)

	c.sentCount++
	if err := c.profile.SetSentCount(c.sentCount); err != nil {
		c.log.Warn("persist sent count", zap.Error(err))
	}
	if _, err := c.profile.RecordActivity(text); err != nil {
		c.log.Warn("record activity", zap.Error(err))
	}

	identity, err := c.profile.Identity()
	if err != nil {
		c.log.Warn("read identity", zap.Error(err))
	}

	c.busy = true
	c.seq++
	seq := c.seq

	ctx, cancel := context.WithTimeout(c.ctx, c.requestTimeout)
	c.cancelMgr.set(cancel)

	req := api.AskRequest{
		Message:      text,
		SystemPrompt: c.systemPrompt,
		UserID:       api.ParseUserID(identity),
	}
	client := c.client
	c.log.Debug("submit", zap.Uint64("seq", seq), zap.Int("sent", c.sentCount))

	return func() tea.Msg {
		resp, err := client.Ask(ctx, req)
		if err != nil {
			return ReplyMsg{Seq: seq, Err: err}
		}
		return ReplyMsg{Seq: seq, Text: resp.Text()}
	}
}

// CanSubmit reports whether Submit(text) would be accepted.
func (c *Controller) CanSubmit(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked(text)
}

func (c *Controller) canSubmitLocked(text string) bool {
	switch {
	case c.closed, !c.historyLoaded, c.busy, c.reveal.Active():
		return false
	case strings.TrimSpace(text) == "":
		return false
	case c.client == nil:
		return false
	}
	return quota.CanSend(c.plan, c.sentCount)
}

// Update applies a message produced by one of the controller's commands.
// Unrelated messages are ignored and return nil.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	switch msg := msg.(type) {
	case history.LoadedMsg:
		c.handleHistoryLocked(msg)
		return nil
	case ReplyMsg:
		return c.handleReplyLocked(msg)
	case reveal.TickMsg:
		step, cmd, ok := c.reveal.Tick(msg)
		if !ok {
			return nil
		}
		c.conv.SetContent(step.TargetID, step.Content)
		return cmd
	}
	return nil
}

func (c *Controller) handleHistoryLocked(msg history.LoadedMsg) {
	if c.historyLoaded {
		return
	}
	c.historyLoaded = true

	if msg.Err != nil {
		// Already logged by the synchronizer; start empty.
		return
	}
	if len(msg.Messages) > 0 {
		c.conv.Replace(msg.Messages)
	}
}

func (c *Controller) handleReplyLocked(msg ReplyMsg) tea.Cmd {
	if !c.busy || msg.Seq != c.seq {
		return nil
	}
	c.busy = false
	c.cancelMgr.cancel()

	if msg.Err != nil {
		reason := api.Reason(msg.Err)
		c.log.Warn("chat call failed",
			zap.Uint64("seq", msg.Seq),
			zap.Stringer("type", errorType(msg.Err)),
			zap.String("reason", reason))
		c.conv.AddAssistantText(fmt.Sprintf(ErrorTemplate, reason))
		return nil
	}

	text := msg.Text
	if text == "" {
		text = EmptyReplyText
	}
	reply := c.conv.AddAssistantMessage()
	return c.reveal.Start(reply.ID, text)
}

// Upgrade moves the session to the Pro plan and persists it.
func (c *Controller) Upgrade() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.plan = quota.Upgrade(c.plan)
	return c.profile.SetPlan(c.plan)
}

// ApplyConfig changes the system prompt, the request timeout and reveal
// pacing. Zero values keep the defaults.
func (c *Controller) ApplyConfig(systemPrompt string, requestTimeout time.Duration, pacing reveal.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyConfig(systemPrompt, requestTimeout, pacing)
}

func (c *Controller) applyConfig(systemPrompt string, requestTimeout time.Duration, pacing reveal.Config) {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	c.systemPrompt = systemPrompt
	c.requestTimeout = requestTimeout
	c.reveal.SetConfig(pacing)
}

// Close tears the session down: the reveal stops where it is, any
// in-flight call is canceled and later messages are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.busy = false
	c.reveal.Cancel()
	c.cancelMgr.cancel()
	c.stop()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Messages returns a copy of the message log.
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Messages()
}

// Busy reports whether a chat call is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Revealing reports whether a reply is being revealed.
func (c *Controller) Revealing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reveal.Active()
}

// RevealingID returns the ID of the message being revealed, or "".
func (c *Controller) RevealingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reveal.ActiveID()
}

// HistoryLoaded reports whether the startup history load has finished.
func (c *Controller) HistoryLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.historyLoaded
}

// Blocked reports whether the quota refuses further sends.
func (c *Controller) Blocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !quota.CanSend(c.plan, c.sentCount)
}

// Plan returns the current plan.
func (c *Controller) Plan() model.Plan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plan
}

// SentCount returns the number of accepted submissions.
func (c *Controller) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sentCount
}

// State returns the current submission state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.closed:
		return StateClosed
	case !c.historyLoaded:
		return StateLoading
	case c.busy:
		return StateSending
	case c.reveal.Active():
		return StateRevealing
	default:
		return StateIdle
	}
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status is a snapshot of the controller for the view layer.
type Status struct {
	State        State
	Plan         model.Plan
	SentCount    int
	Remaining    int // -1 when unlimited
	QuotaLabel   string
	MessageCount int
	Blocked      bool
}

// GetStatus returns the current session status.
func (c *Controller) GetStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		State:        c.stateLocked(),
		Plan:         c.plan,
		SentCount:    c.sentCount,
		Remaining:    quota.Remaining(c.plan, c.sentCount),
		QuotaLabel:   quota.Label(c.plan, c.sentCount),
		MessageCount: c.conv.MessageCount(),
		Blocked:      !quota.CanSend(c.plan, c.sentCount),
	}
}

func errorType(err error) api.ErrorType {
	var ce *api.ClientError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return api.ErrTypeUnknown
}
