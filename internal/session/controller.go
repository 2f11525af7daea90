// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/aplybot/internal/chatapi"
	"github.com/jeranaias/aplybot/internal/export"
	"github.com/jeranaias/aplybot/internal/model"
	"github.com/jeranaias/aplybot/internal/telemetry"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Transport opens a streamed chat response.
type Transport interface {
	Open(ctx context.Context, req chatapi.ChatRequest) (io.ReadCloser, error)
}

// ConfirmFunc asks the user to confirm a destructive action.
type ConfirmFunc func() bool

// Options configures a Controller. Transport is required.
type Options struct {
	Transport Transport

	// Saver receives export snapshots (default: JSON files in the working directory).
	Saver export.Saver

	// Tracker receives usage events. Nil disables telemetry.
	Tracker telemetry.Tracker

	// Observer receives every event. Nil discards them.
	Observer Observer

	// HistoryLimit caps the conversation (default: model.MaxHistory).
	HistoryLimit int

	// Texts are the user-visible strings (default: DefaultTexts("", "")).
	Texts *Texts

	Logger zerolog.Logger

	// Now stamps export snapshots (default: time.Now).
	Now func() time.Time
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the chat session controller. It is the only writer of session
// state; all methods are safe for concurrent use. Events are delivered after
// the state lock is released, so observers may call back into the controller.
type Controller struct {
	mu    sync.Mutex
	state State

	id        uuid.UUID
	history   *model.History
	transport Transport
	consumer  *chatapi.Consumer
	saver     export.Saver
	tracker   telemetry.Tracker
	observer  Observer
	texts     Texts
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a closed, idle controller with an empty history.
func New(opts Options) (*Controller, error) {
	if opts.Transport == nil {
		return nil, errors.New("session: transport is required")
	}

	saver := opts.Saver
	if saver == nil {
		fs, err := export.NewFileSaver(nil)
		if err != nil {
			return nil, errors.Wrap(err, "session: default saver")
		}
		saver = fs
	}

	texts := DefaultTexts("", "")
	if opts.Texts != nil {
		texts = *opts.Texts
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	observer := opts.Observer
	if observer == nil {
		observer = func(Event) {}
	}

	id := uuid.New()
	logger := opts.Logger.With().
		Str("component", "session").
		Str("session", id.String()).
		Logger()

	return &Controller{
		id:        id,
		history:   model.NewHistory(opts.HistoryLimit),
		transport: opts.Transport,
		consumer:  chatapi.NewConsumer(logger),
		saver:     saver,
		tracker:   opts.Tracker,
		observer:  observer,
		texts:     texts,
		logger:    logger,
		now:       now,
	}, nil
}

// ID returns the session id.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns the conversation store.
func (c *Controller) History() *model.History {
	return c.history
}

// Texts returns the user-visible strings in use.
func (c *Controller) Texts() Texts {
	return c.texts
}

func (c *Controller) emit(events ...Event) {
	for _, ev := range events {
		c.observer(ev)
	}
}

// =============================================================================
// VISIBILITY
// =============================================================================

// Open shows the widget. It does nothing if already open.
func (c *Controller) Open() {
	c.mu.Lock()
	if c.state.Visibility == Open {
		c.mu.Unlock()
		return
	}
	c.state.Visibility = Open
	c.mu.Unlock()

	c.logger.Debug().Msg("chat opened")
	c.emit(VisibilityEvent{Open: true}, ConnectionEvent{Connected: true})
	telemetry.Track(c.tracker, telemetry.EventChatOpened)
}

// Close hides the widget. A response in flight keeps streaming.
// It does nothing if already closed.
func (c *Controller) Close(reason CloseReason) {
	c.mu.Lock()
	if c.state.Visibility == Closed {
		c.mu.Unlock()
		return
	}
	c.state.Visibility = Closed
	c.mu.Unlock()

	c.logger.Debug().Stringer("reason", reason).Msg("chat closed")
	c.emit(VisibilityEvent{Open: false, Reason: reason})
	telemetry.Track(c.tracker, telemetry.EventChatClosed)
}

// Toggle opens a closed widget and closes an open one.
func (c *Controller) Toggle() {
	if c.State().IsOpen() {
		c.Close(CloseButton)
		return
	}
	c.Open()
}

// Shutdown records that the program is exiting. If the widget is open it
// emits the page-unload telemetry event. Later calls do nothing.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	wasOpen := c.state.Visibility == Open
	c.state.Visibility = Closed
	c.mu.Unlock()

	if wasOpen {
		telemetry.Track(c.tracker, telemetry.EventChatClosedPageUnload)
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit sends text as a user message and streams the reply into the history.
// It blocks until the exchange ends.
//
// Empty input, a response already in flight, or a closed widget are rejected
// with ErrEmptyInput, ErrAwaitingResponse or ErrClosed and change nothing.
// Otherwise the user message is kept even if the exchange fails; a failure is
// reported to the user as one fallback assistant message and Submit returns nil.
func (c *Controller) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	switch {
	case text == "":
		c.mu.Unlock()
		return ErrEmptyInput
	case c.state.Visibility == Closed:
		c.mu.Unlock()
		return ErrClosed
	case c.state.Phase == AwaitingResponse:
		c.mu.Unlock()
		return ErrAwaitingResponse
	}
	c.state.Phase = AwaitingResponse
	userMsg := c.history.Append(model.RoleUser, text)
	req := chatapi.NewChatRequest(text, c.history.Messages())
	c.mu.Unlock()

	c.emit(
		UserMessageEvent{Message: userMsg},
		InputClearedEvent{},
		SuggestionsEvent{Visible: false},
		TypingEvent{Typing: true},
	)

	start := time.Now()
	err := c.exchange(ctx, req)

	if err != nil {
		kind := chatapi.Classify(err)
		c.logger.Error().Err(err).Stringer("failure", kind).Dur("elapsed", time.Since(start)).Msg("chat exchange failed")
		fallback := c.history.Append(model.RoleAssistant, c.texts.Fallback)
		c.emit(
			AssistantFallbackEvent{Message: fallback, Failure: kind},
			ConnectionEvent{Connected: false},
			NoticeEvent{Kind: NoticeError, Text: c.texts.ConnectionError},
		)
	} else {
		c.logger.Info().Dur("elapsed", time.Since(start)).Int("history", c.history.Len()).Msg("chat exchange complete")
		c.emit(ConnectionEvent{Connected: true})
	}

	c.mu.Lock()
	c.state.Phase = Idle
	c.mu.Unlock()
	c.emit(TypingEvent{Typing: false})
	return nil
}

// exchange performs one request and consumes its stream.
func (c *Controller) exchange(ctx context.Context, req chatapi.ChatRequest) error {
	body, err := c.transport.Open(ctx, req)
	if err != nil {
		return errors.Wrap(err, "open chat stream")
	}
	defer body.Close()

	_, err = c.consumer.Consume(ctx, body, c.history, func(ev chatapi.StreamEvent) {
		c.emit(StreamUpdateEvent{StreamEvent: ev})
	})
	return err
}

// Suggest returns the prompt for intent; the adapter places it in the input.
func (c *Controller) Suggest(intent Intent) string {
	return intent.Prompt()
}

// SubmitIntent submits the prompt for intent directly.
func (c *Controller) SubmitIntent(ctx context.Context, intent Intent) error {
	if !intent.Valid() {
		return errors.Errorf("unknown intent %d", int(intent))
	}
	return c.Submit(ctx, intent.Prompt())
}

// =============================================================================
// EXPORT AND CLEAR
// =============================================================================

// ExportHistory saves a snapshot of the conversation and returns where it was
// written. An empty conversation returns ErrEmptyExport and writes nothing.
func (c *Controller) ExportHistory() (string, error) {
	snap := c.history.Snapshot(c.now())
	if snap.IsEmpty() {
		c.emit(NoticeEvent{Kind: NoticeError, Text: c.texts.NothingToExport})
		return "", ErrEmptyExport
	}

	path, err := c.saver.Save(snap)
	if err != nil {
		c.logger.Error().Err(err).Msg("export failed")
		c.emit(NoticeEvent{Kind: NoticeError, Text: c.texts.ExportFailed})
		return "", errors.Wrap(err, "export history")
	}

	c.logger.Info().Str("path", path).Int("messages", snap.TotalMessages).Msg("conversation exported")
	c.emit(NoticeEvent{Kind: NoticeSuccess, Text: c.texts.Exported(path)})
	return path, nil
}

// ClearHistory empties the conversation after confirm returns true. A nil or
// declining confirm changes nothing. It reports whether the history was
// cleared.
func (c *Controller) ClearHistory(confirm ConfirmFunc) bool {
	if confirm == nil || !confirm() {
		return false
	}

	c.history.Clear()
	c.logger.Debug().Msg("conversation cleared")
	c.emit(
		HistoryClearedEvent{},
		SuggestionsEvent{Visible: true},
		NoticeEvent{Kind: NoticeSuccess, Text: c.texts.Cleared},
	)
	return true
}
