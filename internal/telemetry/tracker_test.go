// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// beaconServer records every event posted to it.
type beaconServer struct {
	*httptest.Server
	mu     sync.Mutex
	events []Event
	status int
}

func newBeaconServer(status int) *beaconServer {
	bs := &beaconServer{status: status}
	bs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err == nil {
			bs.mu.Lock()
			bs.events = append(bs.events, ev)
			bs.mu.Unlock()
		}
		w.WriteHeader(bs.status)
	}))
	return bs
}

func (bs *beaconServer) received() []Event {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return append([]Event(nil), bs.events...)
}

// =============================================================================
// BEACON TESTS
// =============================================================================

func TestBeaconTracker_DeliversEvents(t *testing.T) {
	server := newBeaconServer(http.StatusNoContent)
	defer server.Close()

	tracker := NewBeaconTracker(DefaultBeaconConfig(server.URL), zerolog.Nop())
	tracker.Track(EventChatOpened)
	tracker.Track(EventChatClosed)
	tracker.Close()

	events := server.received()
	require.Len(t, events, 2)
	assert.Equal(t, EventChatOpened, events[0].Name)
	assert.Equal(t, EventChatClosed, events[1].Name)
	for _, ev := range events {
		assert.Equal(t, "chat_widget", ev.Category)
		assert.Equal(t, "aplyfly_chat", ev.Label)
	}

	sent, dropped, failed := tracker.Stats()
	assert.Equal(t, int64(2), sent)
	assert.Zero(t, dropped)
	assert.Zero(t, failed)
}

func TestBeaconTracker_RateLimitDrops(t *testing.T) {
	server := newBeaconServer(http.StatusOK)
	defer server.Close()

	cfg := DefaultBeaconConfig(server.URL)
	cfg.RatePerMinute = 2
	cfg.QueueSize = 10
	tracker := NewBeaconTracker(cfg, zerolog.Nop())
	for i := 0; i < 5; i++ {
		tracker.Track(EventChatOpened)
	}
	tracker.Close()

	sent, dropped, _ := tracker.Stats()
	assert.Equal(t, int64(2), sent)
	assert.Equal(t, int64(3), dropped)
	assert.Len(t, server.received(), 2)
}

func TestBeaconTracker_FailuresAreNotRetried(t *testing.T) {
	server := newBeaconServer(http.StatusInternalServerError)
	defer server.Close()

	tracker := NewBeaconTracker(DefaultBeaconConfig(server.URL), zerolog.Nop())
	tracker.Track(EventChatOpened)
	tracker.Close()

	_, _, failed := tracker.Stats()
	assert.Equal(t, int64(1), failed)
	assert.Len(t, server.received(), 1, "a failed event is posted once")
}

func TestBeaconTracker_UnreachableNeverBlocks(t *testing.T) {
	cfg := DefaultBeaconConfig("http://127.0.0.1:1/beacon")
	cfg.Timeout = 200 * time.Millisecond
	tracker := NewBeaconTracker(cfg, zerolog.Nop())

	start := time.Now()
	for i := 0; i < 100; i++ {
		tracker.Track(EventChatOpened)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "Track must not wait on delivery")
	tracker.Close()
}

func TestBeaconTracker_TrackAfterClose(t *testing.T) {
	server := newBeaconServer(http.StatusOK)
	defer server.Close()

	tracker := NewBeaconTracker(DefaultBeaconConfig(server.URL), zerolog.Nop())
	tracker.Close()
	tracker.Close()
	tracker.Track(EventChatClosedPageUnload)

	_, dropped, _ := tracker.Stats()
	assert.Equal(t, int64(1), dropped)
	assert.Empty(t, server.received())
}

// =============================================================================
// SIMPLE TRACKER TESTS
// =============================================================================

func TestTrack_NilTrackerTolerated(t *testing.T) {
	assert.NotPanics(t, func() {
		Track(nil, EventChatOpened)
		Multi{nil, Nop{}}.Track(EventChatClosed)
	})
}

func TestLogTracker_WritesStructuredEvent(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewLogTracker(zerolog.New(&buf), "", "")
	Multi{tracker}.Track(EventChatOpened)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "chat_opened", line["event"])
	assert.Equal(t, "chat_widget", line["event_category"])
	assert.Equal(t, "aplyfly_chat", line["event_label"])
	assert.Equal(t, "telemetry", line["component"])
}
