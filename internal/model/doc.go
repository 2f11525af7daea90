// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the widget conversation.
//
// # Key Types
//
//   - Role: Message role enumeration (user, assistant)
//   - Message: Immutable role-tagged entry with content and timestamp
//   - History: Size-bounded, insertion-ordered conversation store
//   - ExportSnapshot: Detached copy of the history for user-initiated export
//
// # Usage
//
// Create a store and append turns:
//
//	h := model.NewHistory(model.MaxHistory)
//	h.Append(model.RoleUser, "Hello!")
//	h.Append(model.RoleAssistant, "Hi, how can I help?")
//
// Export what is retained:
//
//	snap := h.Snapshot(time.Now())
//	fmt.Println(snap.TotalMessages)
//
// The store never holds more than its limit; the oldest entries are evicted
// first.
package model
