// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// renderChat renders the complete chat view.
// Layout: header (1 line) + messages (viewport) + input (3 lines) + footer (1 line)
func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	input := m.renderInput()
	footer := m.renderFooter()

	var body string
	switch {
	case m.showUpgrade:
		body = m.renderUpgradePrompt()
	case len(m.ctrl.Messages()) == 0:
		body = m.renderEmptyState()
	default:
		body = m.viewport.View()
	}

	used := lipgloss.Height(header) + lipgloss.Height(input) + lipgloss.Height(footer)
	bodyHeight := m.height - used
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body = lipgloss.Place(m.width, bodyHeight, lipgloss.Left, lipgloss.Top, body)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, footer)
}

// =============================================================================
// HEADER / FOOTER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("parley")
	status := m.ctrl.GetStatus()

	var state string
	switch status.State {
	case session.StateLoading:
		state = m.spinner.View() + " loading history"
	case session.StateSending:
		state = m.spinner.View() + " thinking"
	case session.StateRevealing:
		state = "typing"
	}

	right := m.theme.HeaderPlan.Render(status.Plan.String())
	if state != "" {
		right = m.theme.Muted.Render(state) + "  " + right
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + right)
}

func (m Model) renderFooter() string {
	status := m.ctrl.GetStatus()

	quotaStyle := m.theme.FooterFree
	if status.Plan.IsPro() {
		quotaStyle = m.theme.FooterPro
	}
	left := quotaStyle.Render(status.QuotaLabel)

	if m.notice != "" {
		left += "  " + m.theme.Muted.Render(m.notice)
	}

	var shortcuts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		shortcuts = append(shortcuts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	if status.Blocked {
		h := m.keys.Upgrade.Help()
		shortcuts = append([]string{m.theme.ShortcutKey.Render(h.Key) + " " + m.theme.ShortcutDesc.Render(h.Desc)}, shortcuts...)
	}
	right := strings.Join(shortcuts, "  ")

	line := left
	if gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right); gap >= 2 {
		line = left + strings.Repeat(" ", gap) + right
	}
	return m.theme.Footer.Width(m.width).Render(util.TruncateWidth(line, m.width-2))
}

// =============================================================================
// INPUT
// =============================================================================

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

// =============================================================================
// EMPTY STATE / UPGRADE
// =============================================================================

func (m Model) renderEmptyState() string {
	var b strings.Builder
	b.WriteString(m.theme.Welcome.Render("How can I help you today?"))
	b.WriteString("\n")

	current := m.suggestion % len(Suggestions)
	for i, s := range Suggestions {
		style := m.theme.Suggestion
		if i == current {
			style = m.theme.SuggestionSelected
		}
		b.WriteString(style.Render(s))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Muted.Render("Tab to use a suggestion"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderUpgradePrompt() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		m.theme.UpgradeTitle.Render("Free limit reached"),
		"",
		m.theme.UpgradeText.Render("You have used all free messages."),
		m.theme.UpgradeText.Render("Upgrade to Premium for unlimited chat."),
		"",
		m.theme.Muted.Render("Ctrl+U upgrade  Esc dismiss"),
	)
	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
		m.theme.UpgradeBox.Render(content))
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderMessages renders the whole log for the viewport.
func (m Model) renderMessages() string {
	msgs := m.ctrl.Messages()
	revealingID := m.ctrl.RevealingID()

	parts := make([]string, 0, len(msgs))
	for i := range msgs {
		parts = append(parts, m.renderMessage(&msgs[i], msgs[i].ID == revealingID))
	}
	return strings.Join(parts, "\n")
}

func (m Model) renderMessage(msg *model.Message, revealing bool) string {
	label := msg.Role.DisplayName()
	if m.showTimestamps {
		label += " " + m.theme.Timestamp.Render(formatTimestamp(msg.Timestamp))
	}
	label = m.theme.RoleLabel.Render(label)

	width := m.bubbleWidth()
	switch {
	case msg.Role == model.RoleUser:
		body := m.theme.UserBubble.Width(width).Render(msg.Content)
		return lipgloss.JoinVertical(lipgloss.Right, label, body)

	case isDiagnostic(msg.Content):
		return lipgloss.JoinVertical(lipgloss.Left, label,
			m.theme.ErrorBubble.Width(width).Render(msg.Content))

	case revealing:
		// Partial markdown is shown raw; glamour runs once the reveal ends.
		text := msg.Content + m.theme.Cursor.Render("▌")
		return lipgloss.JoinVertical(lipgloss.Left, label,
			m.theme.AssistantBubble.Width(width).Render(text))

	default:
		return lipgloss.JoinVertical(lipgloss.Left, label,
			m.theme.AssistantBubble.Width(width).Render(m.renderMarkdown(msg)))
	}
}

// renderMarkdown renders a finished assistant reply, caching by ID.
func (m Model) renderMarkdown(msg *model.Message) string {
	if m.renderer == nil {
		return msg.Content
	}
	width := m.bubbleWidth()
	if c, ok := m.rendered[msg.ID]; ok && c.content == msg.Content && c.width == width {
		return c.out
	}
	out, err := m.renderer.Render(msg.Content)
	if err != nil {
		return msg.Content
	}
	out = strings.Trim(out, "\n")
	m.rendered[msg.ID] = renderCache{content: msg.Content, width: width, out: out}
	return out
}

// bubbleWidth is the inner width of a message bubble.
func (m Model) bubbleWidth() int {
	w := m.width*3/4 - 4
	if w < minWidth {
		w = minWidth
	}
	return w
}
