// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/pkg/errors"

// Intent is one of the canned suggestions offered before the first message.
type Intent int

const (
	IntentWebDevelopment Intent = iota + 1
	IntentArtificialIntelligence
	IntentMobileApps
	IntentBudget
)

// Intents lists every intent in display order.
var Intents = []Intent{
	IntentWebDevelopment,
	IntentArtificialIntelligence,
	IntentMobileApps,
	IntentBudget,
}

// Label is the short button text.
func (i Intent) Label() string {
	switch i {
	case IntentWebDevelopment:
		return "Web development"
	case IntentArtificialIntelligence:
		return "Artificial intelligence"
	case IntentMobileApps:
		return "Mobile apps"
	case IntentBudget:
		return "Budget"
	default:
		return ""
	}
}

// Prompt is the canonical message the intent expands to.
func (i Intent) Prompt() string {
	switch i {
	case IntentWebDevelopment:
		return "What web development services do you offer? I'm interested in a modern application."
	case IntentArtificialIntelligence:
		return "I want to bring AI into my business. What solutions do you work with?"
	case IntentMobileApps:
		return "Do you build mobile apps? I need an app for iOS and Android."
	case IntentBudget:
		return "Could you give me a cost estimate for my project?"
	default:
		return ""
	}
}

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	return i.Prompt() != ""
}

// IntentAt returns the intent shown at 1-based position n.
func IntentAt(n int) (Intent, error) {
	if n < 1 || n > len(Intents) {
		return 0, errors.Errorf("no suggestion %d (choose 1-%d)", n, len(Intents))
	}
	return Intents[n-1], nil
}
