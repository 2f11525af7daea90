// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/aplybot/internal/model"
	"github.com/jeranaias/aplybot/internal/session"
	"github.com/jeranaias/aplybot/internal/ui/styles"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	switch m.modal {
	case modalInfo:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderInfo())
	case modalConfirmClear:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderConfirm())
	}

	if !m.open {
		return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Bottom, m.renderLauncher())
	}

	_, _, w, h := m.boxRect()
	inner := m.innerWidth()

	sections := []string{
		m.renderHeader(inner),
		m.viewport.View(),
		m.renderTyping(inner),
	}
	if m.suggestions {
		sections = append(sections, m.renderSuggestions(inner))
	}
	sections = append(sections,
		m.theme.InputContainer.Width(inner).Render(m.renderInput(inner)),
		m.renderFooter(inner),
	)

	box := m.theme.Box.
		Width(inner).
		Height(h - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Top, lipgloss.NewStyle().MaxWidth(w).Render(box))
}

// =============================================================================
// CLOSED
// =============================================================================

func (m Model) renderLauncher() string {
	label := m.theme.Launcher.Render("Chat with " + m.texts.Brand)
	hint := m.theme.LauncherKey.Render(" ctrl+o to open")
	if m.typing {
		hint = m.theme.LauncherKey.Render(" replying… ctrl+o to open")
	}
	return label + hint
}

// =============================================================================
// HEADER AND FOOTER
// =============================================================================

func (m Model) renderHeader(width int) string {
	dot := m.theme.DotOnline.Render(styles.StatusIndicators.Online)
	status := "Online"
	if !m.connected {
		dot = m.theme.DotOffline.Render(styles.StatusIndicators.Offline)
		status = "Reconnecting…"
	}

	controls := m.theme.HeaderStatus.Render("C-n ─  esc ×")
	title := m.theme.HeaderTitle.Render(m.texts.Brand)
	right := lipgloss.Width(controls)

	left := fmt.Sprintf("%s %s %s", dot, title, m.theme.HeaderStatus.Render(status))
	avail := width - right - 3
	if lipgloss.Width(left) > avail {
		plain := runewidth.Truncate(m.texts.Brand, maxInt(avail-2, 1), "…")
		left = dot + " " + m.theme.HeaderTitle.Render(plain)
	}

	gap := width - lipgloss.Width(left) - right - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(width).Render(left + strings.Repeat(" ", gap) + controls)
}

func (m Model) renderFooter(width int) string {
	if m.notice != "" {
		style, mark := m.theme.NoticeSuccess, styles.StatusIndicators.Success
		if m.noticeKind == session.NoticeError {
			style, mark = m.theme.NoticeError, styles.StatusIndicators.Error
		}
		return style.MaxWidth(width).Render(mark + " " + m.notice)
	}

	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, "  "))
}

// =============================================================================
// CONVERSATION
// =============================================================================

// refresh rebuilds the conversation and scrolls to the newest entry.
func (m *Model) refresh() {
	if m.viewport.Width <= 0 {
		return
	}
	m.viewport.SetContent(m.renderConversation(m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m *Model) renderConversation(width int) string {
	blocks := []string{m.renderAssistant(m.texts.Welcome, width)}

	for _, msg := range m.ctrl.History().Messages() {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	if m.streaming != "" {
		blocks = append(blocks, m.renderAssistant(m.streaming, width))
	}
	return strings.Join(blocks, "\n")
}

func (m *Model) renderMessage(msg model.Message, width int) string {
	stamp := m.theme.Timestamp.Render(msg.ClockTime())

	if msg.Role == model.RoleUser {
		bubbleWidth := runewidth.StringWidth(msg.Content) + 2
		if limit := width * 3 / 4; bubbleWidth > limit {
			bubbleWidth = limit
		}
		bubble := m.theme.UserBubble.Width(bubbleWidth).Render(msg.Content)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble+"\n"+
			lipgloss.PlaceHorizontal(lipgloss.Width(bubble), lipgloss.Right, stamp))
	}

	return m.renderAssistant(msg.Content, width) + "\n" + stamp
}

func (m *Model) renderAssistant(content string, width int) string {
	body := m.markdown(content, width-4)
	return m.theme.AssistantBubble.MaxWidth(width).Render(body)
}

// markdown renders assistant text with glamour, falling back to the raw text.
func (m *Model) markdown(content string, width int) string {
	if width < 10 {
		width = 10
	}
	if m.renderer == nil || m.rendererWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.theme.GlamourStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			m.logger.Warn().Err(err).Msg("markdown renderer unavailable")
			return content
		}
		m.renderer = r
		m.rendererWidth = width
		m.rendered = make(map[string]string)
	}

	if out, ok := m.rendered[content]; ok {
		return out
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		m.logger.Debug().Err(err).Msg("markdown render failed")
		return content
	}
	out = strings.Trim(out, "\n")
	m.rendered[content] = out
	return out
}

// =============================================================================
// TYPING, SUGGESTIONS, INPUT
// =============================================================================

func (m Model) renderTyping(width int) string {
	if !m.typing {
		return ""
	}
	text := m.spinner.View() + " " + m.texts.Brand + " is typing…"
	return lipgloss.NewStyle().MaxWidth(width).Render(m.theme.Typing.Render(text))
}

func (m Model) renderSuggestions(width int) string {
	var parts []string
	for i, intent := range session.Intents {
		parts = append(parts, m.theme.SuggestionKey.Render(fmt.Sprintf("%d", i+1))+" "+intent.Label())
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, "  "))
}

func (m Model) renderInput(width int) string {
	counter := m.counterText()
	count := utf8.RuneCountInString(m.input.Value())
	styled := m.theme.CharCountStyle(count, m.warnChars, m.dangerChars).Render(counter)

	field := m.input.View()
	gap := width - 2 - lipgloss.Width(field) - runewidth.StringWidth(counter)
	if gap < 1 {
		gap = 1
	}
	return field + strings.Repeat(" ", gap) + styled
}

// counterText is the "n/max" character counter.
func (m Model) counterText() string {
	return fmt.Sprintf("%d/%d", utf8.RuneCountInString(m.input.Value()), m.maxChars)
}

// =============================================================================
// MODALS
// =============================================================================

func (m Model) renderInfo() string {
	var b strings.Builder
	b.WriteString(m.theme.ModalTitle.Render("About " + m.texts.Brand))
	b.WriteString("\n\n")
	b.WriteString(m.texts.Brand + " answers questions about web development, AI solutions,\n")
	b.WriteString("mobile apps and project budgets. Answers are generated and may be\n")
	b.WriteString("imprecise; for a formal quote contact " + m.texts.SupportEmail + ".\n\n")

	km := m.keys
	rows := []struct{ key, desc string }{
		{"enter", "send message"},
		{"1-4", "insert a suggestion"},
		{"M-1..4", "send a suggestion"},
		{km.Clear.Help().Key, "clear conversation"},
		{km.Export.Help().Key, "export conversation"},
		{km.Minimize.Help().Key, "minimize"},
		{"esc", "close this panel"},
	}
	for _, r := range rows {
		b.WriteString(m.theme.ShortcutKey.Render(fmt.Sprintf("%-8s", r.key)))
		b.WriteString(" ")
		b.WriteString(m.theme.ShortcutDesc.Render(r.desc))
		b.WriteString("\n")
	}
	return m.theme.Modal.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderConfirm() string {
	body := m.theme.ModalTitle.Render(m.texts.ClearPrompt) + "\n\n" +
		m.theme.ShortcutKey.Render("y") + " " + m.theme.ShortcutDesc.Render("clear") + "   " +
		m.theme.ShortcutKey.Render("n") + " " + m.theme.ShortcutDesc.Render("keep")
	return m.theme.Modal.Render(body)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
