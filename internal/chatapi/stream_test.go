// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatapi

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aplybot/internal/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// chunkReader hands out each chunk in its own Read call, then err (or io.EOF).
type chunkReader struct {
	chunks [][]byte
	err    error
}

func newChunkReader(chunks ...string) *chunkReader {
	r := &chunkReader{}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

type recorder struct {
	events []StreamEvent
}

func (r *recorder) record(ev StreamEvent) {
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func content(chunk string) string {
	return Frame{Type: FrameTypeContent, Chunk: chunk}.Encode()
}

func end() string {
	return Frame{Type: FrameTypeEnd}.Encode()
}

func consume(t *testing.T, body io.Reader) (*model.History, *recorder, model.Message, error) {
	t.Helper()
	store := model.NewHistory(model.MaxHistory)
	rec := &recorder{}
	msg, err := NewConsumer(zerolog.Nop()).Consume(context.Background(), body, store, rec.record)
	return store, rec, msg, err
}

// =============================================================================
// COMMIT TESTS
// =============================================================================

func TestConsume_CommitsAccumulatedText(t *testing.T) {
	body := strings.NewReader(content("Hi") + content(" there") + end())

	store, rec, msg, err := consume(t, body)
	require.NoError(t, err)

	assert.Equal(t, "Hi there", msg.Content)
	assert.Equal(t, model.RoleAssistant, msg.Role)
	require.Equal(t, 1, store.Len())
	last, _ := store.Last()
	assert.Equal(t, "Hi there", last.Content)

	assert.Equal(t, []EventKind{EventDelta, EventDelta, EventCommitted}, rec.kinds())
	assert.Equal(t, "Hi", rec.events[0].Text)
	assert.Equal(t, " there", rec.events[1].Fragment)
	assert.Equal(t, "Hi there", rec.events[1].Text)
	assert.Equal(t, msg, rec.events[2].Message)
}

func TestConsume_EndWithoutContentCommitsEmptyMessage(t *testing.T) {
	store, _, msg, err := consume(t, strings.NewReader(end()))
	require.NoError(t, err)
	assert.Equal(t, "", msg.Content)
	assert.Equal(t, 1, store.Len())
}

func TestConsume_StopsReadingAfterEnd(t *testing.T) {
	body := strings.NewReader(content("a") + end() + content("ignored") + end())
	store, _, msg, err := consume(t, body)
	require.NoError(t, err)
	assert.Equal(t, "a", msg.Content)
	assert.Equal(t, 1, store.Len())
}

// =============================================================================
// FRAMING TESTS
// =============================================================================

func TestConsume_DataLineSplitAcrossReads(t *testing.T) {
	body := newChunkReader(
		`data: {"type":"con`,
		`tent","chunk":"Hel`,
		"lo\"}\n",
		"\ndata: {\"type\":\"end\"}\n\n",
	)

	_, rec, msg, err := consume(t, body)
	require.NoError(t, err)
	assert.Equal(t, "Hello", msg.Content)
	assert.Equal(t, []EventKind{EventDelta, EventCommitted}, rec.kinds())
}

func TestConsume_MultiByteRuneSplitAcrossReads(t *testing.T) {
	line := content("¿Qué tal? 👋") + end()
	raw := []byte(line)

	// Split inside the two-byte "é" and inside the four-byte emoji.
	eIdx := strings.Index(line, "é") + 1
	emojiIdx := strings.Index(line, "👋") + 2
	body := &chunkReader{chunks: [][]byte{raw[:eIdx], raw[eIdx:emojiIdx], raw[emojiIdx:]}}

	_, _, msg, err := consume(t, body)
	require.NoError(t, err)
	assert.Equal(t, "¿Qué tal? 👋", msg.Content)
}

func TestConsume_OneByteReads(t *testing.T) {
	stream := content("byte") + content(" by byte ✓") + end()
	var chunks []string
	for i := 0; i < len(stream); i++ {
		chunks = append(chunks, stream[i:i+1])
	}

	_, _, msg, err := consume(t, newChunkReader(chunks...))
	require.NoError(t, err)
	assert.Equal(t, "byte by byte ✓", msg.Content)
}

func TestConsume_LineVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "crlf terminators",
			body: "data: {\"type\":\"content\",\"chunk\":\"A\"}\r\n\r\ndata: {\"type\":\"end\"}\r\n\r\n",
			want: "A",
		},
		{
			name: "no space after prefix",
			body: "data:{\"type\":\"content\",\"chunk\":\"B\"}\n\ndata:{\"type\":\"end\"}\n",
			want: "B",
		},
		{
			name: "final line without terminator",
			body: content("C") + `data: {"type":"end"}`,
			want: "C",
		},
		{
			name: "comments and other fields ignored",
			body: ": keep-alive\nevent: message\nid: 7\n" + content("D") + end(),
			want: "D",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, msg, err := consume(t, strings.NewReader(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.want, msg.Content)
		})
	}
}

func TestConsume_SkipsMalformedAndUnknownFrames(t *testing.T) {
	body := strings.NewReader(
		content("one") +
			"data: {not json}\n\n" +
			"data: {\"chunk\":\"no type\"}\n\n" +
			"data: {\"type\":\"ping\"}\n\n" +
			content("") +
			content(" two") +
			end(),
	)

	_, rec, msg, err := consume(t, body)
	require.NoError(t, err)
	assert.Equal(t, "one two", msg.Content)
	assert.Equal(t, []EventKind{EventDelta, EventDelta, EventCommitted}, rec.kinds())
}

func TestConsume_SkipsOversizedLine(t *testing.T) {
	huge := "data: {\"type\":\"content\",\"chunk\":\"" + strings.Repeat("x", MaxFrameSize+10) + "\"}\n\n"
	body := strings.NewReader(content("kept") + huge + end())

	_, _, msg, err := consume(t, body)
	require.NoError(t, err)
	assert.Equal(t, "kept", msg.Content)
}

// =============================================================================
// FAILURE TESTS
// =============================================================================

func TestConsume_ErrorFrame(t *testing.T) {
	body := strings.NewReader(content("partial") + Frame{Type: FrameTypeError, Error: "model overloaded"}.Encode())

	store, rec, _, err := consume(t, body)
	require.Error(t, err)

	var srvErr *ServerError
	require.True(t, errors.As(err, &srvErr))
	assert.Equal(t, "model overloaded", srvErr.Message)
	assert.Equal(t, "partial", srvErr.Partial)
	assert.Equal(t, FailureServer, Classify(err))
	assert.Equal(t, 0, store.Len(), "nothing is committed on an error frame")
	assert.NotContains(t, rec.kinds(), EventInterrupted)
}

func TestConsume_PrematureEOF(t *testing.T) {
	store, rec, _, err := consume(t, strings.NewReader(content("half")))
	require.Error(t, err)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "read", netErr.Op)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "half", netErr.Partial)
	assert.Equal(t, FailureNetwork, Classify(err))
	assert.Equal(t, 0, store.Len())

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, EventInterrupted, last.Kind)
	assert.Equal(t, StreamInterruptedText, last.Text)
}

func TestConsume_ReadFailure(t *testing.T) {
	reset := errors.New("connection reset by peer")
	body := newChunkReader(content("so far"), "data: {\"type\":\"con")
	body.err = reset

	store, rec, _, err := consume(t, body)
	require.Error(t, err)
	assert.True(t, errors.Is(err, reset))
	assert.Equal(t, FailureNetwork, Classify(err))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, []EventKind{EventDelta, EventInterrupted}, rec.kinds())
}

func TestConsume_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := model.NewHistory(0)
	rec := &recorder{}
	_, err := NewConsumer(zerolog.Nop()).Consume(ctx, strings.NewReader(content("x")+end()), store, rec.record)

	require.Error(t, err)
	assert.Equal(t, FailureCanceled, Classify(err))
	assert.Empty(t, rec.events)
	assert.Equal(t, 0, store.Len())
}

func TestConsume_NilCallback(t *testing.T) {
	store := model.NewHistory(0)
	msg, err := NewConsumer(zerolog.Nop()).Consume(context.Background(), strings.NewReader(content("ok")+end()), store, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
}

// =============================================================================
// FRAME PARSING TESTS
// =============================================================================

func TestParseFrame(t *testing.T) {
	tests := []struct {
		line    string
		wantOK  bool
		wantErr bool
		want    Frame
	}{
		{"", false, false, Frame{}},
		{": comment", false, false, Frame{}},
		{"event: message", false, false, Frame{}},
		{`data: {"type":"content","chunk":"x"}`, true, false, Frame{Type: FrameTypeContent, Chunk: "x"}},
		{`data:{"type":"end"}`, true, false, Frame{Type: FrameTypeEnd}},
		{`data: {"type":"error","error":"boom"}`, true, false, Frame{Type: FrameTypeError, Error: "boom"}},
		{`data: [DONE]`, true, true, Frame{}},
		{`data: {}`, true, true, Frame{}},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			frame, ok, err := ParseFrame(tc.line)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantErr {
				var frameErr *FrameError
				require.True(t, errors.As(err, &frameErr))
				assert.Equal(t, FailureMalformedFrame, Classify(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, frame)
		})
	}
}

func TestFrame_EncodeUsesWireTypes(t *testing.T) {
	tests := []struct {
		frame Frame
		want  string
	}{
		{Frame{Type: FrameTypeContent, Chunk: "hi"}, `data: {"type":"content","chunk":"hi"}`},
		{Frame{Type: FrameTypeEnd}, `data: {"type":"end"}`},
		{Frame{Type: FrameTypeError, Error: "boom"}, `data: {"type":"error","error":"boom"}`},
	}

	for _, tc := range tests {
		t.Run(string(tc.frame.Type), func(t *testing.T) {
			encoded := tc.frame.Encode()
			assert.Equal(t, tc.want+"\n\n", encoded)

			// An error-type frame is a valid frame, not a decode failure.
			frame, ok, err := ParseFrame(strings.TrimSuffix(encoded, "\n\n"))
			require.True(t, ok)
			require.NoError(t, err)
			assert.Equal(t, tc.frame, frame)
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, FailureNone, Classify(nil))
	assert.Equal(t, FailureUnknown, Classify(errors.New("other")))
	assert.Equal(t, FailureNetwork, Classify(errors.Wrap(&NetworkError{Op: "request", Status: 503}, "submit")))
	assert.Equal(t, FailureCanceled, Classify(&NetworkError{Op: "request", Err: context.Canceled}))
	assert.Equal(t, "malformed_frame", FailureMalformedFrame.String())
}
