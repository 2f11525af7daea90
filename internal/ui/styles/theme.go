// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Mode selects the palette variant.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeDark  Mode = "dark"
	ModeLight Mode = "light"
)

// ParseMode maps a config value to a Mode. Unknown values mean auto.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDark:
		return ModeDark
	case ModeLight:
		return ModeLight
	default:
		return ModeAuto
	}
}

// Theme holds all the styled components for the widget.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// LAUNCHER AND FRAME
	// ==========================================================================

	Launcher    lipgloss.Style
	LauncherKey lipgloss.Style
	Box         lipgloss.Style

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header       lipgloss.Style
	HeaderTitle  lipgloss.Style
	HeaderStatus lipgloss.Style
	DotOnline    lipgloss.Style
	DotOffline   lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	Timestamp       lipgloss.Style
	Typing          lipgloss.Style

	// ==========================================================================
	// SUGGESTIONS AND INPUT
	// ==========================================================================

	Suggestion       lipgloss.Style
	SuggestionKey    lipgloss.Style
	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	CharCount        lipgloss.Style
	CharCountWarning lipgloss.Style
	CharCountDanger  lipgloss.Style

	// ==========================================================================
	// NOTICES, MODALS, HELP
	// ==========================================================================

	NoticeSuccess lipgloss.Style
	NoticeError   lipgloss.Style
	Modal         lipgloss.Style
	ModalTitle    lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style
}

// NewTheme creates a theme for mode. Auto asks the terminal for its
// background; dark and light force the AdaptiveColor variant.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch ParseMode(mode) {
	case ModeDark:
		isDark = true
	case ModeLight:
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Launcher = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Violet).
		Bold(true).
		Padding(0, 2)

	t.LauncherKey = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Box = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Violet)

	// Header
	t.Header = lipgloss.NewStyle().
		Background(VioletDeep).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Violet)

	t.HeaderStatus = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.DotOnline = lipgloss.NewStyle().
		Foreground(Emerald)

	t.DotOffline = lipgloss.NewStyle().
		Foreground(Rose)

	// Messages
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Typing = lipgloss.NewStyle().
		Foreground(Violet)

	// Suggestions and input
	t.Suggestion = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SuggestionKey = lipgloss.NewStyle().
		Foreground(Sky).
		Bold(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Sky).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.CharCount = lipgloss.NewStyle().
		Foreground(TextMuted).
		Align(lipgloss.Right)

	t.CharCountWarning = lipgloss.NewStyle().
		Foreground(Amber).
		Align(lipgloss.Right)

	t.CharCountDanger = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true).
		Align(lipgloss.Right)

	// Notices, modals, help
	t.NoticeSuccess = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Emerald).
		Padding(0, 1)

	t.NoticeError = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Padding(0, 1)

	t.Modal = lipgloss.NewStyle().
		Background(Surface).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Violet).
		Padding(1, 2)

	t.ModalTitle = lipgloss.NewStyle().
		Foreground(Violet).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Sky).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// CharCountStyle picks the counter style for n characters.
// Counts above danger are danger, above warn are warning.
func (t *Theme) CharCountStyle(n, warn, danger int) lipgloss.Style {
	switch {
	case n > danger:
		return t.CharCountDanger
	case n > warn:
		return t.CharCountWarning
	default:
		return t.CharCount
	}
}

// GlamourStyle returns the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.ColorProfile == termenv.Ascii {
		return "notty"
	}
	if t.IsDark {
		return "dark"
	}
	return "light"
}
