// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/aplybot/internal/chatapi"
	"github.com/jeranaias/aplybot/internal/model"
)

// Event is emitted by the controller for the adapter to render.
type Event interface {
	sessionEvent()
}

// Observer receives every event, in order, on the goroutine that caused it.
type Observer func(Event)

// VisibilityEvent reports the widget was opened or closed. On open the adapter
// reveals the surface and focuses the input.
type VisibilityEvent struct {
	Open   bool
	Reason CloseReason // set when Open is false
}

// ConnectionEvent drives the connection indicator.
type ConnectionEvent struct {
	Connected bool
}

// UserMessageEvent echoes a submitted message before the request is sent.
type UserMessageEvent struct {
	Message model.Message
}

// InputClearedEvent asks the adapter to empty the input field.
type InputClearedEvent struct{}

// SuggestionsEvent shows or hides the canned suggestions.
type SuggestionsEvent struct {
	Visible bool
}

// TypingEvent shows or hides the typing indicator and disables input while a
// response is in flight.
type TypingEvent struct {
	Typing bool
}

// StreamUpdateEvent forwards a consumer event: a new fragment, the committed
// message, or the interruption text.
type StreamUpdateEvent struct {
	chatapi.StreamEvent
}

// AssistantFallbackEvent carries the fixed assistant message appended after a
// failed exchange.
type AssistantFallbackEvent struct {
	Message model.Message
	Failure chatapi.FailureKind
}

// HistoryClearedEvent asks the adapter to drop every rendered message except
// the welcome message.
type HistoryClearedEvent struct{}

// NoticeKind selects the notification styling.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// NoticeEvent is a short status notification. Adapters hide it after a few
// seconds.
type NoticeEvent struct {
	Kind NoticeKind
	Text string
}

func (VisibilityEvent) sessionEvent()        {}
func (ConnectionEvent) sessionEvent()        {}
func (UserMessageEvent) sessionEvent()       {}
func (InputClearedEvent) sessionEvent()      {}
func (SuggestionsEvent) sessionEvent()       {}
func (TypingEvent) sessionEvent()            {}
func (StreamUpdateEvent) sessionEvent()      {}
func (AssistantFallbackEvent) sessionEvent() {}
func (HistoryClearedEvent) sessionEvent()    {}
func (NoticeEvent) sessionEvent()            {}
