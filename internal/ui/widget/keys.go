// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the widget.
type KeyMap struct {
	Submit   key.Binding
	Toggle   key.Binding
	Minimize key.Binding
	Close    key.Binding
	Clear    key.Binding
	Export   key.Binding
	Info     key.Binding
	Help     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding

	// Suggest places a canned prompt in the input; Send submits it.
	Suggest [4]key.Binding
	Send    [4]key.Binding

	Confirm key.Binding
	Decline key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("ctrl+o", "f2"),
			key.WithHelp("C-o", "open/close"),
		),
		Minimize: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "minimize"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "clear"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export"),
		),
		Info: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("C-k", "info"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "info"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
	}

	digits := []string{"1", "2", "3", "4"}
	for i, d := range digits {
		km.Suggest[i] = key.NewBinding(
			key.WithKeys(d),
			key.WithHelp(d, "suggest"),
		)
		km.Send[i] = key.NewBinding(
			key.WithKeys("alt+"+d),
			key.WithHelp("M-"+d, "send suggestion"),
		)
	}
	return km
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Close, k.Clear, k.Export, k.Info}
}
