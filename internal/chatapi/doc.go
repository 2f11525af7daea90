// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatapi talks to the remote chat endpoint.
//
// A chat turn is a single POST whose response body is a stream of
// server-sent-event style data lines:
//
//	data: {"type": "content", "chunk": "Hi"}
//
//	data: {"type": "content", "chunk": " there"}
//
//	data: {"type": "end"}
//
// # Key Types
//
//   - Client: posts ChatRequest values and returns the streamed body
//   - Consumer: decodes the body into StreamEvent callbacks and commits the
//     finished assistant message
//   - CSRFSource: resolves the anti-forgery token (cookie, meta tag, chain)
//   - NetworkError, ServerError, FrameError: the failure taxonomy
//
// # Usage
//
//	client := chatapi.NewClient(chatapi.DefaultClientConfig(), nil, nil, logger)
//	body, err := client.Open(ctx, chatapi.NewChatRequest(text, history.Messages()))
//	if err != nil {
//	    return err
//	}
//	defer body.Close()
//	msg, err := chatapi.NewConsumer(logger).Consume(ctx, body, history, func(ev chatapi.StreamEvent) {
//	    fmt.Print(ev.Fragment)
//	})
package chatapi
