// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aplybot/internal/chatapi"
	"github.com/jeranaias/aplybot/internal/session"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case EventMsg:
		return m.applyEvent(msg.Event)

	case submitDoneMsg:
		if msg.err != nil && !session.IsRejection(msg.err) {
			m.logger.Error().Err(msg.err).Msg("submit failed")
		}
		return m, nil

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.typing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// =============================================================================
// SESSION EVENTS
// =============================================================================

func (m Model) applyEvent(ev session.Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case session.VisibilityEvent:
		m.open = ev.Open
		if !ev.Open {
			m.modal = modalNone
			m.input.Blur()
			return m, nil
		}
		m.refresh()
		return m, m.input.Focus()

	case session.ConnectionEvent:
		m.connected = ev.Connected

	case session.UserMessageEvent:
		m.refresh()

	case session.InputClearedEvent:
		m.input.Reset()

	case session.SuggestionsEvent:
		if m.suggestions != ev.Visible {
			m.suggestions = ev.Visible
			m.resize()
		}

	case session.TypingEvent:
		m.typing = ev.Typing
		if !ev.Typing {
			m.streaming = ""
			m.refresh()
			return m, nil
		}
		m.refresh()
		return m, m.spinner.Tick

	case session.StreamUpdateEvent:
		switch ev.Kind {
		case chatapi.EventDelta, chatapi.EventInterrupted:
			m.streaming = ev.Text
		case chatapi.EventCommitted:
			m.streaming = ""
		}
		m.refresh()

	case session.AssistantFallbackEvent:
		m.streaming = ""
		m.refresh()

	case session.HistoryClearedEvent:
		m.streaming = ""
		m.refresh()

	case session.NoticeEvent:
		m.notice = ev.Text
		m.noticeKind = ev.Kind
		m.noticeSeq++
		return m, expireNotice(m.noticeSeq)
	}
	return m, nil
}

// =============================================================================
// INPUT
// =============================================================================

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.MouseLeft || !m.ctrl.State().IsOpen() {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	if !m.contains(msg.X, msg.Y) {
		m.ctrl.Close(session.CloseOutsideClick)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.ctrl.Shutdown()
		return m, tea.Quit
	}

	switch m.modal {
	case modalConfirmClear:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.modal = modalNone
			m.ctrl.ClearHistory(func() bool { return true })
		case key.Matches(msg, m.keys.Decline):
			m.modal = modalNone
		}
		return m, nil
	case modalInfo:
		if key.Matches(msg, m.keys.Close) || key.Matches(msg, m.keys.Info) {
			m.modal = modalNone
		}
		return m, nil
	}

	if !m.ctrl.State().IsOpen() {
		if key.Matches(msg, m.keys.Toggle) || key.Matches(msg, m.keys.Submit) {
			m.ctrl.Open()
			// Focus now so keys typed before the event lands reach the input.
			return m, m.input.Focus()
		}
		return m, nil
	}

	empty := strings.TrimSpace(m.input.Value()) == ""

	switch {
	case key.Matches(msg, m.keys.Close):
		m.ctrl.Close(session.CloseEscape)
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		m.ctrl.Toggle()
		return m, nil
	case key.Matches(msg, m.keys.Minimize):
		m.ctrl.Close(session.CloseButton)
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		m.modal = modalConfirmClear
		return m, nil
	case key.Matches(msg, m.keys.Export):
		// Errors are reported through a notice event.
		_, _ = m.ctrl.ExportHistory()
		return m, nil
	case key.Matches(msg, m.keys.Info), empty && key.Matches(msg, m.keys.Help):
		m.modal = modalInfo
		return m, nil
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		if m.typing || empty {
			return m, nil
		}
		return m, m.submitCmd(m.input.Value())
	}

	for i, intent := range session.Intents {
		if i >= len(m.keys.Send) {
			break
		}
		if key.Matches(msg, m.keys.Send[i]) {
			if m.typing {
				return m, nil
			}
			return m, m.submitIntentCmd(intent)
		}
		if empty && key.Matches(msg, m.keys.Suggest[i]) {
			m.input.SetValue(m.ctrl.Suggest(intent))
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
