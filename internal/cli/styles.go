// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aplybot/internal/ui/styles"
)

// =============================================================================
// SHARED STYLES FOR LINE-MODE OUTPUT
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Violet)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(28)

	// ValueStyle is used for regular values
	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	// PromptStyle is the REPL prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Sky).
			Bold(true)

	// BotStyle labels assistant output
	BotStyle = lipgloss.NewStyle().
			Foreground(styles.Violet).
			Bold(true)

	// MutedStyle is used for hints
	MutedStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// WarningStyle is used for confirmations
	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber).
			Bold(true)
)

// applyColorProfile configures lipgloss for line-mode output.
func applyColorProfile() {
	lipgloss.SetColorProfile(GetColorProfile())
}
