// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"time"

	"github.com/rs/zerolog"
)

// Event names emitted by the chat widget.
const (
	EventChatOpened           = "chat_opened"
	EventChatClosed           = "chat_closed"
	EventChatClosedPageUnload = "chat_closed_page_unload"
)

// Fixed dimensions attached to every event.
const (
	DefaultCategory = "chat_widget"
	DefaultLabel    = "aplyfly_chat"
)

// Event is one usage event as delivered to a collaborator.
type Event struct {
	Name      string    `json:"event"`
	Category  string    `json:"event_category"`
	Label     string    `json:"event_label"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event with the default category and label.
func NewEvent(name string) Event {
	return Event{
		Name:      name,
		Category:  DefaultCategory,
		Label:     DefaultLabel,
		Timestamp: time.Now(),
	}
}

// Tracker receives usage events. Implementations must not block.
type Tracker interface {
	Track(name string)
}

// Track calls t.Track(name), tolerating a nil tracker.
func Track(t Tracker, name string) {
	if t == nil {
		return
	}
	t.Track(name)
}

// =============================================================================
// NOP AND LOG TRACKERS
// =============================================================================

// Nop discards every event.
type Nop struct{}

// Track implements Tracker.
func (Nop) Track(string) {}

// LogTracker writes events to a zerolog logger at info level.
type LogTracker struct {
	logger   zerolog.Logger
	category string
	label    string
}

// NewLogTracker creates a tracker logging to logger. Empty category or label
// select the defaults.
func NewLogTracker(logger zerolog.Logger, category, label string) *LogTracker {
	if category == "" {
		category = DefaultCategory
	}
	if label == "" {
		label = DefaultLabel
	}
	return &LogTracker{
		logger:   logger.With().Str("component", "telemetry").Logger(),
		category: category,
		label:    label,
	}
}

// Track implements Tracker.
func (l *LogTracker) Track(name string) {
	l.logger.Info().
		Str("event", name).
		Str("event_category", l.category).
		Str("event_label", l.label).
		Msg("telemetry event")
}

// =============================================================================
// MULTI
// =============================================================================

// Multi forwards each event to every non-nil tracker in order.
type Multi []Tracker

// Track implements Tracker.
func (m Multi) Track(name string) {
	for _, t := range m {
		Track(t, name)
	}
}
