// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the aplybot widget.

# Color System (colors.go)

All colors use Lip Gloss AdaptiveColor, so one palette serves light and dark
terminals:

  - Violet - Brand accent: header, launcher, assistant bubbles
  - Sky - User bubbles and key hints
  - Emerald - Connected dot, success notices
  - Amber - Character counter warning
  - Rose - Disconnected dot, error notices, counter danger

Status text always carries an ASCII indicator next to the color.

# Theme (theme.go)

NewTheme resolves "auto", "dark" or "light" against the terminal via termenv
and builds every lipgloss.Style the widget renders with:

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.Header.Render(title)
	counter := theme.CharCountStyle(n, 400, 450).Render("12/500")

GlamourStyle names the matching glamour style for assistant markdown.
*/
package styles
