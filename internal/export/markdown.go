// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/aplybot/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a snapshot as a readable Markdown transcript with
// YAML frontmatter.
type MarkdownExporter struct {
	brand string
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	brand := opts.Brand
	if brand == "" {
		brand = DefaultOptions().Brand
	}
	return &MarkdownExporter{brand: brand}
}

// Export converts a snapshot to Markdown.
func (e *MarkdownExporter) Export(snap model.ExportSnapshot) ([]byte, error) {
	if snap.IsEmpty() {
		return nil, ErrEmptySnapshot
	}
	exported := snap.ExportedAt
	if exported.IsZero() {
		exported = time.Now()
	}

	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(e.brand+" conversation")))
	sb.WriteString(fmt.Sprintf("exported: %s\n", exported.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("messages: %d\n", snap.TotalMessages))
	sb.WriteString("generator: aplybot\n")
	sb.WriteString("---\n\n")

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(e.brand+" conversation")))

	for i, msg := range snap.Conversation {
		sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
			e.formatRoleLabel(msg.Role),
			formatShortTimestamp(msg.Timestamp)))

		// Content is already Markdown.
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")

		if i < len(snap.Conversation)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from %s on %s*\n",
		escapeMarkdown(e.brand),
		exported.Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func (e *MarkdownExporter) formatRoleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "You"
	case model.RoleAssistant:
		return escapeMarkdown(e.brand)
	case "":
		return "Unknown"
	default:
		runes := []rune(string(role))
		return strings.ToUpper(string(runes[0])) + string(runes[1:])
	}
}

func formatShortTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 15:04")
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that would break formatting in headings.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes a frontmatter value when it contains special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
