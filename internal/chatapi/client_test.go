// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aplybot/internal/model"
)

func newTestClient(url string, csrf CSRFSource) *Client {
	cfg := DefaultClientConfig()
	cfg.URL = url
	return NewClient(cfg, csrf, nil, zerolog.Nop())
}

func TestClient_OpenSendsRequest(t *testing.T) {
	type captured struct {
		req     ChatRequest
		headers http.Header
	}
	seen := make(chan captured, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var c captured
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&c.req))
		c.headers = r.Header.Clone()
		seen <- c

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, content("Hi")+end())
	}))
	defer server.Close()

	history := model.NewHistory(0)
	history.Append(model.RoleUser, "earlier")
	history.Append(model.RoleAssistant, "reply")
	history.Append(model.RoleUser, "hello")

	client := newTestClient(server.URL, StaticToken("tok-123"))
	body, err := client.Open(context.Background(), NewChatRequest("hello", history.Messages()))
	require.NoError(t, err)
	defer body.Close()

	msg, err := NewConsumer(zerolog.Nop()).Consume(context.Background(), body, history, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hi", msg.Content)

	c := <-seen
	got, headers := c.req, c.headers
	assert.Equal(t, "hello", got.Message)
	assert.True(t, got.Streaming)
	require.Len(t, got.History, 3)
	assert.Equal(t, HistoryEntry{Role: model.RoleUser, Content: "hello"}, got.History[2])

	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "text/event-stream", headers.Get("Accept"))
	assert.Equal(t, "tok-123", headers.Get("X-CSRFToken"))
}

func TestClient_OmitsHeaderWithoutToken(t *testing.T) {
	tests := []struct {
		name string
		csrf CSRFSource
	}{
		{"nil source", nil},
		{"empty token", StaticToken("")},
		{"failing source", failingSource{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var present atomic.Bool
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, ok := r.Header["X-Csrftoken"]
				present.Store(ok)
				io.WriteString(w, end())
			}))
			defer server.Close()

			body, err := newTestClient(server.URL, tc.csrf).Open(context.Background(), NewChatRequest("q", nil))
			require.NoError(t, err)
			body.Close()
			assert.False(t, present.Load())
		})
	}
}

func TestClient_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusInternalServerError, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				// A frame in an error body must never reach a consumer.
				io.WriteString(w, content("should not be parsed")+end())
			}))
			defer server.Close()

			body, err := newTestClient(server.URL, nil).Open(context.Background(), NewChatRequest("q", nil))
			require.Error(t, err)
			assert.Nil(t, body)

			var netErr *NetworkError
			require.True(t, errors.As(err, &netErr))
			assert.Equal(t, "request", netErr.Op)
			assert.Equal(t, status, netErr.Status)
			assert.Equal(t, FailureNetwork, Classify(err))
		})
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url, nil).Open(context.Background(), NewChatRequest("q", nil))
	require.Error(t, err)
	assert.Equal(t, FailureNetwork, Classify(err))
}

func TestClient_ContextTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL, nil).Open(ctx, NewChatRequest("q", nil))
	require.Error(t, err)
	assert.Equal(t, FailureCanceled, Classify(err))
}

func TestDefaultClientConfig(t *testing.T) {
	client := NewClient(&ClientConfig{}, nil, nil, zerolog.Nop())
	assert.Equal(t, DefaultEndpoint, client.Endpoint())
	assert.Equal(t, "X-CSRFToken", client.config.CSRFHeader)
	assert.NotNil(t, client.HTTPClient())
}

type failingSource struct{}

func (failingSource) Token(context.Context) (string, error) {
	return "", errors.New("page unavailable")
}
