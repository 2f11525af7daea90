// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// BRAND COLORS
// =============================================================================

// Violet - Brand accent, header, launcher, assistant bubbles
var Violet = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#A78BFA"}

// VioletDeep - Header background
var VioletDeep = lipgloss.AdaptiveColor{Light: "#EDE9FE", Dark: "#2E1065"}

// Sky - User bubbles, key hints
var Sky = lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#38BDF8"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Emerald - Connected, success notices
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Amber - Counter warning
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Rose - Disconnected, error notices, counter danger
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// MESSAGE BUBBLE COLORS
// =============================================================================

var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#0C4A6E", Dark: "#E0F2FE"}
var UserBubbleBorder = Sky

var AssistantBubbleFg = lipgloss.AdaptiveColor{Light: "#4C1D95", Dark: "#EDE9FE"}
var AssistantBubbleBorder = Violet

// =============================================================================
// ACCESSIBILITY: Shapes beside colors
// =============================================================================

// StatusIndicatorSet holds the markers shown beside status colors, so state
// never depends on color alone.
type StatusIndicatorSet struct {
	Success   string
	Error     string
	Online    string
	Offline   string
	Suggested string
}

// StatusIndicators are the markers in use.
var StatusIndicators = StatusIndicatorSet{
	Success:   "[OK]",
	Error:     "[X]",
	Online:    "●",
	Offline:   "○",
	Suggested: "›",
}

// RenderSuccess renders a success message with its indicator.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true).
		Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error message with its indicator.
func RenderError(message string) string {
	return lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderStatus picks RenderSuccess or RenderError.
func RenderStatus(success bool, message string) string {
	if success {
		return RenderSuccess(message)
	}
	return RenderError(message)
}
