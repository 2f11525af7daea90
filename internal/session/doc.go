// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the chat session controller.
//
// A Controller owns one widget's state (closed, open and idle, or open and
// awaiting a response) and its conversation history. Adapters call its
// methods in response to user input and render the Events it emits.
//
// # States
//
//	Closed ──Open/Toggle──▶ Open·Idle ──Submit──▶ Open·AwaitingResponse
//	   ▲                        │  ▲                        │
//	   └────────Close───────────┘  └──stream end or failure─┘
//
// Closing never cancels a response in flight; it keeps streaming and is
// committed to the history while the widget is closed.
//
// # Usage
//
//	ctrl, err := session.New(session.Options{
//	    Transport: client,
//	    Saver:     saver,
//	    Tracker:   tracker,
//	    Observer:  func(ev session.Event) { /* render */ },
//	    Logger:    logger,
//	})
//	ctrl.Open()
//	go ctrl.Submit(ctx, "What does a website cost?")
package session
