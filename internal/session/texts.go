// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "fmt"

// Texts holds the user-visible strings the controller produces.
type Texts struct {
	Brand        string
	SupportEmail string

	Welcome          string
	Fallback         string
	ConnectionError  string
	Cleared          string
	NothingToExport  string
	ExportFailed     string
	ExportedTemplate string // %s is the written path
	ClearPrompt      string
}

// DefaultTexts returns the English strings for brand and supportEmail.
func DefaultTexts(brand, supportEmail string) Texts {
	if brand == "" {
		brand = "AplyBot"
	}
	if supportEmail == "" {
		supportEmail = "info@aplyfly.com"
	}
	return Texts{
		Brand:        brand,
		SupportEmail: supportEmail,
		Welcome: fmt.Sprintf("Hi! I'm %s. Ask me about web development, AI solutions, "+
			"mobile apps or a quote for your project.", brand),
		Fallback: fmt.Sprintf("Sorry, there was a connection error. Please try again "+
			"or contact us directly at %s 🔧", supportEmail),
		ConnectionError:  "Connection error",
		Cleared:          "Chat cleared",
		NothingToExport:  "No messages to export",
		ExportFailed:     "Export failed",
		ExportedTemplate: "Chat exported to %s",
		ClearPrompt:      "Are you sure you want to clear the whole conversation?",
	}
}

// Exported returns the success notice for path.
func (t Texts) Exported(path string) string {
	return fmt.Sprintf(t.ExportedTemplate, path)
}
