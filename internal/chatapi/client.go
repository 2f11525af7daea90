// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/aplybot/internal/model"
)

// DefaultEndpoint is the chat endpoint used when none is configured.
const DefaultEndpoint = "http://127.0.0.1:8000/api/chat/"

// maxErrorBody bounds how much of a rejected response is read before closing.
const maxErrorBody = 4 * 1024

// =============================================================================
// REQUEST TYPES
// =============================================================================

// HistoryEntry is one message as sent to the endpoint.
type HistoryEntry struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

// ChatRequest is the JSON body posted to the chat endpoint.
type ChatRequest struct {
	Message   string         `json:"message"`
	History   []HistoryEntry `json:"history"`
	Streaming bool           `json:"streaming"`
}

// NewChatRequest builds a streaming request for message with the given history.
func NewChatRequest(message string, history []model.Message) ChatRequest {
	entries := make([]HistoryEntry, len(history))
	for i, msg := range history {
		entries[i] = HistoryEntry{Role: msg.Role, Content: msg.Content}
	}
	return ChatRequest{
		Message:   message,
		History:   entries,
		Streaming: true,
	}
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the chat client.
type ClientConfig struct {
	// URL of the chat endpoint (default: http://127.0.0.1:8000/api/chat/)
	URL string

	// ConnectTimeout bounds dialing and waiting for response headers (default: 10s).
	// The streamed body itself is only bounded by the request context.
	ConnectTimeout time.Duration

	// CSRFHeader is the request header carrying the CSRF token (default: X-CSRFToken)
	CSRFHeader string
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		URL:            DefaultEndpoint,
		ConnectTimeout: 10 * time.Second,
		CSRFHeader:     "X-CSRFToken",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client posts chat requests and hands back the streamed response body.
// It is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	csrf       CSRFSource
	logger     zerolog.Logger
}

// NewClient creates a chat client. csrf may be nil, in which case requests are
// sent without a CSRF header. jar may be nil.
func NewClient(config *ClientConfig, csrf CSRFSource, jar http.CookieJar, logger zerolog.Logger) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.URL == "" {
		config.URL = DefaultEndpoint
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.CSRFHeader == "" {
		config.CSRFHeader = "X-CSRFToken"
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: config.ConnectTimeout,
		MaxIdleConns:          4,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		config: config,
		// No client timeout: the body streams for as long as the answer takes.
		httpClient: &http.Client{Transport: transport, Jar: jar},
		csrf:       csrf,
		logger:     logger.With().Str("component", "chatapi").Logger(),
	}
}

// HTTPClient returns the underlying HTTP client, shared with the CSRF sources
// so cookies set by the page land in the same jar.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Endpoint returns the configured chat endpoint URL.
func (c *Client) Endpoint() string {
	return c.config.URL
}

// Open posts req to the endpoint and returns the response body for the
// consumer. The caller must close it.
//
// Transport failures and non-2xx statuses return *NetworkError with Op
// "request"; no body is returned in that case.
func (c *Client) Open(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, &NetworkError{Op: "request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	if token := c.csrfToken(ctx); token != "" {
		httpReq.Header.Set(c.config.CSRFHeader, token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("url", c.config.URL).Msg("chat request failed")
		return nil, &NetworkError{Op: "request", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drainAndClose(resp.Body)
		c.logger.Error().Int("status", resp.StatusCode).Str("url", c.config.URL).Msg("chat endpoint rejected request")
		return nil, &NetworkError{Op: "request", Status: resp.StatusCode}
	}

	c.logger.Debug().
		Int("history", len(req.History)).
		Dur("ttfb", time.Since(start)).
		Msg("chat stream opened")
	return resp.Body, nil
}

// csrfToken resolves the token, or "" when none is available.
func (c *Client) csrfToken(ctx context.Context) string {
	if c.csrf == nil {
		return ""
	}
	token, err := c.csrf.Token(ctx)
	switch {
	case errors.Is(err, ErrNoToken):
		c.logger.Debug().Msg("no csrf token available, sending without header")
		return ""
	case err != nil:
		c.logger.Warn().Err(err).Msg("csrf token lookup failed, sending without header")
		return ""
	}
	return token
}

// drainAndClose reads a bounded amount of a rejected body so the connection
// can be reused.
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(r, maxErrorBody))
	r.Close()
}
