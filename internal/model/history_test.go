// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// APPEND / EVICTION TESTS
// =============================================================================

func TestNewHistory_DefaultLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		h := NewHistory(limit)
		if h.Limit() != MaxHistory {
			t.Errorf("NewHistory(%d).Limit() = %d, want %d", limit, h.Limit(), MaxHistory)
		}
		if !h.IsEmpty() {
			t.Errorf("NewHistory(%d) should start empty", limit)
		}
	}
}

func TestHistory_AppendKeepsMostRecentInOrder(t *testing.T) {
	tests := []struct {
		name    string
		appends int
		limit   int
	}{
		{"under limit", 5, 20},
		{"exactly at limit", 20, 20},
		{"one over limit", 21, 20},
		{"far over limit", 137, 20},
		{"tiny window", 10, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHistory(tc.limit)
			for i := 0; i < tc.appends; i++ {
				role := RoleUser
				if i%2 == 1 {
					role = RoleAssistant
				}
				h.Append(role, fmt.Sprintf("msg-%d", i))

				if h.Len() > tc.limit {
					t.Fatalf("after %d appends Len() = %d, exceeds limit %d", i+1, h.Len(), tc.limit)
				}
			}

			want := tc.appends
			if want > tc.limit {
				want = tc.limit
			}
			msgs := h.Messages()
			if len(msgs) != want {
				t.Fatalf("Len = %d, want %d", len(msgs), want)
			}

			first := tc.appends - want
			for i, msg := range msgs {
				expected := fmt.Sprintf("msg-%d", first+i)
				if msg.Content != expected {
					t.Errorf("msgs[%d] = %q, want %q", i, msg.Content, expected)
				}
			}
		})
	}
}

func TestHistory_AppendReturnsStoredMessage(t *testing.T) {
	h := NewHistory(MaxHistory)
	before := time.Now()
	msg := h.Append(RoleAssistant, "hello")

	if msg.Role != RoleAssistant || msg.Content != "hello" {
		t.Errorf("Append returned %+v", msg)
	}
	if msg.Timestamp.Before(before) {
		t.Error("Timestamp should be set at append time")
	}
	last, ok := h.Last()
	if !ok || last != msg {
		t.Errorf("Last() = %+v, %v; want %+v", last, ok, msg)
	}
}

func TestHistory_MessagesIsACopy(t *testing.T) {
	h := NewHistory(MaxHistory)
	h.Append(RoleUser, "original")

	msgs := h.Messages()
	msgs[0].Content = "mutated"

	if got := h.Messages()[0].Content; got != "original" {
		t.Errorf("store was mutated through Messages(): %q", got)
	}
}

// =============================================================================
// CLEAR TESTS
// =============================================================================

func TestHistory_ClearBehavesLikeFresh(t *testing.T) {
	used := NewHistory(3)
	for i := 0; i < 10; i++ {
		used.Append(RoleUser, fmt.Sprintf("old-%d", i))
	}
	used.Clear()
	used.Clear() // idempotent

	fresh := NewHistory(3)
	for i := 0; i < 5; i++ {
		content := fmt.Sprintf("new-%d", i)
		used.Append(RoleAssistant, content)
		fresh.Append(RoleAssistant, content)
	}

	a, b := used.Messages(), fresh.Messages()
	if len(a) != len(b) {
		t.Fatalf("cleared Len = %d, fresh Len = %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Role != b[i].Role || a[i].Content != b[i].Content {
			t.Errorf("entry %d differs: cleared %+v, fresh %+v", i, a[i], b[i])
		}
	}
}

// =============================================================================
// SNAPSHOT TESTS
// =============================================================================

func TestHistory_Snapshot(t *testing.T) {
	h := NewHistory(MaxHistory)
	h.Append(RoleUser, "question")
	h.Append(RoleAssistant, "answer")

	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	snap := h.Snapshot(now)

	if snap.TotalMessages != 2 || len(snap.Conversation) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if !snap.ExportedAt.Equal(now) {
		t.Errorf("ExportedAt = %v, want %v", snap.ExportedAt, now)
	}

	// Later appends do not leak into an earlier snapshot.
	h.Append(RoleUser, "another")
	if snap.TotalMessages != 2 || len(snap.Conversation) != 2 {
		t.Error("snapshot changed after append")
	}
	if h.Len() != 3 {
		t.Errorf("Snapshot must not mutate the store, Len = %d", h.Len())
	}
}

func TestExportSnapshot_JSONShape(t *testing.T) {
	h := NewHistory(MaxHistory)
	h.Append(RoleUser, "hi")
	data, err := json.Marshal(h.Snapshot(time.Now()))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"exported_at", "total_messages", "conversation"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	conv := doc["conversation"].([]any)
	entry := conv[0].(map[string]any)
	if entry["role"] != "user" || entry["content"] != "hi" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestHistory_ConcurrentAppendAndRead(t *testing.T) {
	h := NewHistory(MaxHistory)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			h.Append(RoleUser, fmt.Sprintf("m%d", n))
		}(i)
		go func() {
			defer wg.Done()
			if h.Len() > MaxHistory {
				t.Error("limit exceeded under concurrency")
			}
			_ = h.Snapshot(time.Now())
		}()
	}
	wg.Wait()

	if h.Len() != MaxHistory {
		t.Errorf("Len = %d, want %d", h.Len(), MaxHistory)
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_Preview(t *testing.T) {
	msg := NewMessage(RoleUser, "¿Qué servicios de desarrollo web ofrecen?")
	if got := msg.Preview(10); got != "¿Qué se..." {
		t.Errorf("Preview(10) = %q", got)
	}
	if got := msg.Preview(200); got != msg.Content {
		t.Errorf("Preview(200) = %q", got)
	}
}

func TestRole_Valid(t *testing.T) {
	if !RoleUser.Valid() || !RoleAssistant.Valid() {
		t.Error("user and assistant must be valid")
	}
	if Role("system").Valid() {
		t.Error("system is not a widget role")
	}
	if RoleUser.DisplayName() != "You" {
		t.Errorf("DisplayName = %q", RoleUser.DisplayName())
	}
}
