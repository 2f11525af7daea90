// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatapi

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jeranaias/aplybot/internal/model"
)

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

// MaxFrameSize is the longest data line the consumer accepts (64KB).
// Longer lines are dropped as malformed.
const MaxFrameSize = 64 * 1024

// StreamInterruptedText replaces the in-progress assistant text when the
// connection breaks mid-stream.
const StreamInterruptedText = "Connection error. Please try again."

// =============================================================================
// FRAMES
// =============================================================================

// FrameType is the value of the "type" field of a data frame.
type FrameType string

const (
	FrameTypeContent FrameType = "content"
	FrameTypeEnd     FrameType = "end"
	FrameTypeError   FrameType = "error"
)

// Frame is the JSON payload carried by one "data: " line.
type Frame struct {
	Type  FrameType `json:"type"`
	Chunk string    `json:"chunk,omitempty"`
	Error string    `json:"error,omitempty"`
}

// Encode renders the frame as it appears on the wire, separator included.
func (f Frame) Encode() string {
	payload, _ := json.Marshal(f)
	return "data: " + string(payload) + "\n\n"
}

// ParseFrame decodes one line of the stream.
// ok is false for lines that are not data lines (blank separators, comments,
// other fields). A data line whose payload cannot be decoded returns ok=true
// and a *FrameError.
func ParseFrame(line string) (frame Frame, ok bool, err error) {
	line = strings.TrimRight(line, "\r\n")

	var payload string
	switch {
	case strings.HasPrefix(line, "data: "):
		payload = line[len("data: "):]
	case strings.HasPrefix(line, "data:"):
		payload = strings.TrimSpace(line[len("data:"):])
	default:
		return Frame{}, false, nil
	}

	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return Frame{}, true, &FrameError{Line: line, Err: err}
	}
	if frame.Type == "" {
		return Frame{}, true, &FrameError{Line: line, Err: errors.New("missing type field")}
	}
	return frame, true, nil
}

// =============================================================================
// STREAM EVENTS
// =============================================================================

// EventKind identifies a StreamEvent.
type EventKind int

const (
	// EventDelta carries a new fragment and the text accumulated so far.
	EventDelta EventKind = iota
	// EventCommitted carries the assistant message written to the store.
	EventCommitted
	// EventInterrupted tells the UI to replace the in-progress text with
	// StreamInterruptedText.
	EventInterrupted
)

// StreamEvent is delivered to the StreamCallback as the stream progresses.
type StreamEvent struct {
	Kind     EventKind
	Fragment string
	Text     string
	Message  model.Message
}

// StreamCallback is the function type called for each stream event.
type StreamCallback func(StreamEvent)

// Committer is the part of the conversation store the consumer writes to.
type Committer interface {
	Append(role model.Role, content string) model.Message
}

// =============================================================================
// CONSUMER
// =============================================================================

// Consumer turns a streamed response body into stream events and commits the
// finished assistant message to the store.
type Consumer struct {
	logger       zerolog.Logger
	maxFrameSize int
}

// NewConsumer creates a consumer that logs skipped frames to logger.
func NewConsumer(logger zerolog.Logger) *Consumer {
	return &Consumer{
		logger:       logger.With().Str("component", "stream").Logger(),
		maxFrameSize: MaxFrameSize,
	}
}

// Consume reads body until an end frame, an error frame, or a read failure.
//
// On an end frame the accumulated text is appended to store as one assistant
// message, which is returned. An error frame returns a *ServerError. A broken
// or prematurely closed body emits EventInterrupted and returns a
// *NetworkError. Malformed data lines are logged and skipped. cb may be nil.
func (c *Consumer) Consume(ctx context.Context, body io.Reader, store Committer, cb StreamCallback) (model.Message, error) {
	if cb == nil {
		cb = func(StreamEvent) {}
	}

	lines := newLineReader(body, c.maxFrameSize)
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	var text strings.Builder
	frames := 0

	for {
		if err := ctx.Err(); err != nil {
			return model.Message{}, errors.Wrap(err, "stream consume")
		}

		line, oversized, err := lines.ReadLine()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return model.Message{}, errors.Wrap(ctxErr, "stream consume")
			}
			cb(StreamEvent{Kind: EventInterrupted, Text: StreamInterruptedText})
			c.logger.Error().Err(err).Int("frames", frames).Int("partial_len", text.Len()).Msg("stream read failed")
			return model.Message{}, &NetworkError{Op: "read", Partial: text.String(), Err: err}
		}

		if oversized {
			c.logger.Warn().Int("limit", c.maxFrameSize).Msg("skipping oversized frame")
			continue
		}

		frame, ok, err := ParseFrame(line)
		if !ok {
			continue
		}
		if err != nil {
			c.logger.Warn().Err(err).Msg("skipping malformed frame")
			continue
		}
		frames++

		switch frame.Type {
		case FrameTypeContent:
			if frame.Chunk == "" {
				continue
			}
			text.WriteString(frame.Chunk)
			cb(StreamEvent{Kind: EventDelta, Fragment: frame.Chunk, Text: text.String()})

		case FrameTypeEnd:
			msg := store.Append(model.RoleAssistant, text.String())
			c.logger.Debug().Int("frames", frames).Int("length", text.Len()).Msg("assistant message committed")
			cb(StreamEvent{Kind: EventCommitted, Text: msg.Content, Message: msg})
			return msg, nil

		case FrameTypeError:
			c.logger.Warn().Str("error", frame.Error).Msg("endpoint reported error frame")
			return model.Message{}, &ServerError{Message: frame.Error, Partial: text.String()}

		default:
			c.logger.Debug().Str("type", string(frame.Type)).Msg("ignoring unknown frame type")
		}
	}
}

// =============================================================================
// LINE READER
// =============================================================================

// lineReader splits a byte stream into text lines.
//
// Bytes pass through a UTF-8 decoder that holds back incomplete multi-byte
// sequences until the next read, and the bufio buffer carries any partial line
// over to the next read, so neither a rune nor a data line split across reads
// is lost.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(body io.Reader, maxLine int) *lineReader {
	decoded := transform.NewReader(body, unicode.UTF8.NewDecoder())
	return &lineReader{r: bufio.NewReaderSize(decoded, maxLine)}
}

// ReadLine returns the next line without its terminator. oversized reports a
// line longer than the buffer; its content is discarded. A final line without
// a terminator is returned before io.EOF.
func (l *lineReader) ReadLine() (line string, oversized bool, err error) {
	for {
		frag, err := l.r.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			oversized = true
			continue
		}
		if err != nil && err != io.EOF {
			return "", false, err
		}
		if err == io.EOF && len(frag) == 0 {
			if oversized {
				return "", true, nil
			}
			return "", false, io.EOF
		}
		if oversized {
			return "", true, nil
		}
		return strings.TrimRight(string(frag), "\r\n"), false, nil
	}
}
