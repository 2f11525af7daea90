// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatapi

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// =============================================================================
// FAILURE TAXONOMY
// =============================================================================

// FailureKind classifies errors coming out of the transport and the consumer.
type FailureKind int

const (
	// FailureNone means the error is nil.
	FailureNone FailureKind = iota
	// FailureNetwork covers rejected requests, non-2xx statuses and dropped
	// connections.
	FailureNetwork
	// FailureServer is a well-formed error frame sent by the endpoint.
	FailureServer
	// FailureMalformedFrame is an unparsable data line. It is recovered inside
	// the consumer and only shows up here when classified directly.
	FailureMalformedFrame
	// FailureCanceled means the caller's context ended the operation.
	FailureCanceled
	// FailureUnknown is anything else.
	FailureUnknown
)

// String returns the name used in logs.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureNetwork:
		return "network"
	case FailureServer:
		return "server"
	case FailureMalformedFrame:
		return "malformed_frame"
	case FailureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// NetworkError is returned when the request cannot be made, the endpoint
// answers with a non-2xx status, or the response body breaks mid-stream.
type NetworkError struct {
	Op      string // "request" or "read"
	Status  int    // HTTP status for rejected responses, 0 otherwise
	Partial string // assistant text received before the failure
	Err     error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("chat endpoint %s failed: HTTP %d", e.Op, e.Status)
	}
	if e.Partial != "" {
		return fmt.Sprintf("chat endpoint %s failed (partial content received: %d chars): %v", e.Op, len(e.Partial), e.Err)
	}
	return fmt.Sprintf("chat endpoint %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is an error frame reported by the endpoint mid-stream.
type ServerError struct {
	Message string
	Partial string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Message == "" {
		return "chat endpoint reported an error"
	}
	return "chat endpoint reported an error: " + e.Message
}

// FrameError describes a data line that could not be decoded.
// The consumer logs and skips these; they never escape Consume.
type FrameError struct {
	Line string
	Err  error
}

// Error implements the error interface.
func (e *FrameError) Error() string {
	return fmt.Sprintf("malformed frame %q: %v", truncateLine(e.Line, 80), e.Err)
}

// Unwrap returns the underlying error.
func (e *FrameError) Unwrap() error {
	return e.Err
}

// Classify maps err onto the failure taxonomy.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	var netErr *NetworkError
	var srvErr *ServerError
	var frameErr *FrameError
	switch {
	case errors.As(err, &srvErr):
		return FailureServer
	case errors.As(err, &frameErr):
		return FailureMalformedFrame
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	case errors.As(err, &netErr):
		return FailureNetwork
	default:
		return FailureUnknown
	}
}

// truncateLine shortens a frame line for log and error output.
func truncateLine(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
