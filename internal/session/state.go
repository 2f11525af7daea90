// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

// Visibility is whether the widget is shown.
type Visibility int

const (
	Closed Visibility = iota
	Open
)

// Phase is whether a response is in flight.
type Phase int

const (
	Idle Phase = iota
	AwaitingResponse
)

// State is a snapshot of the controller's state.
type State struct {
	Visibility Visibility
	Phase      Phase
}

// IsOpen returns true when the widget is shown.
func (s State) IsOpen() bool {
	return s.Visibility == Open
}

// IsAwaiting returns true while a response is in flight.
func (s State) IsAwaiting() bool {
	return s.Phase == AwaitingResponse
}

// String returns "closed", "open·idle" or "open·awaiting".
func (s State) String() string {
	if s.Visibility == Closed {
		if s.Phase == AwaitingResponse {
			return "closed·awaiting"
		}
		return "closed"
	}
	if s.Phase == AwaitingResponse {
		return "open·awaiting"
	}
	return "open·idle"
}

// CloseReason records how the widget was closed.
type CloseReason int

const (
	CloseButton CloseReason = iota
	CloseOutsideClick
	CloseEscape
)

// String returns the reason name used in logs.
func (r CloseReason) String() string {
	switch r {
	case CloseButton:
		return "button"
	case CloseOutsideClick:
		return "outside_click"
	case CloseEscape:
		return "escape"
	default:
		return "unknown"
	}
}
