// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
	"time"
)

// MaxHistory is the default number of messages kept in the conversation.
// The whole history is sent with every request, so the window is kept small.
const MaxHistory = 20

// =============================================================================
// HISTORY TYPE
// =============================================================================

// History is the conversation store: an ordered, size-bounded sequence of
// messages. When an append pushes it past its limit the oldest entries are
// dropped, so it always holds the most recent Limit() messages in order.
//
// History is safe for concurrent use. The streaming goroutine appends while the
// UI goroutine reads.
type History struct {
	mu       sync.RWMutex
	limit    int
	messages []Message
}

// NewHistory creates an empty history. A limit <= 0 selects MaxHistory.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = MaxHistory
	}
	return &History{
		limit:    limit,
		messages: make([]Message, 0, limit+1),
	}
}

// Append adds one entry at the tail and evicts from the head until the
// history is back within its limit. It returns the stored message.
func (h *History) Append(role Role, content string) Message {
	msg := NewMessage(role, content)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msg)
	h.pruneLocked()
	return msg
}

// pruneLocked drops the oldest messages beyond the limit.
// The retained tail is copied into a fresh slice so evicted messages are not
// pinned by the backing array.
func (h *History) pruneLocked() {
	if len(h.messages) <= h.limit {
		return
	}
	start := len(h.messages) - h.limit
	kept := make([]Message, h.limit, h.limit+1)
	copy(kept, h.messages[start:])
	h.messages = kept
}

// Clear resets the history to empty.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = make([]Message, 0, h.limit+1)
}

// Messages returns a copy of the retained messages, oldest first.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of retained messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Limit returns the maximum number of retained messages.
func (h *History) Limit() int {
	return h.limit
}

// IsEmpty returns true if there are no messages.
func (h *History) IsEmpty() bool {
	return h.Len() == 0
}

// Last returns the most recent message, or false if the history is empty.
func (h *History) Last() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// =============================================================================
// EXPORT SNAPSHOT
// =============================================================================

// ExportSnapshot is the detached document produced for a user-initiated export.
type ExportSnapshot struct {
	ExportedAt    time.Time `json:"exported_at"`
	TotalMessages int       `json:"total_messages"`
	Conversation  []Message `json:"conversation"`
}

// Snapshot copies the retained messages into an ExportSnapshot stamped with
// now. The history is not modified.
func (h *History) Snapshot(now time.Time) ExportSnapshot {
	msgs := h.Messages()
	return ExportSnapshot{
		ExportedAt:    now,
		TotalMessages: len(msgs),
		Conversation:  msgs,
	}
}

// IsEmpty returns true if the snapshot carries no messages.
func (s ExportSnapshot) IsEmpty() bool {
	return s.TotalMessages == 0
}
