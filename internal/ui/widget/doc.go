// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package widget is the full-screen Bubble Tea front end for a chat session.
//
// The widget starts closed, showing a launcher line. Opened, it shows a
// header with the connection dot, the conversation, canned suggestions, the
// input with its character counter, and a footer that doubles as the
// notification line.
//
// Session events reach the program through a Bridge:
//
//	bridge := widget.NewBridge()
//	ctrl, _ := session.New(session.Options{Transport: client, Observer: bridge.Observe})
//	m := widget.New(widget.Options{Controller: ctrl, Theme: styles.NewTheme("auto")})
//	err := widget.Run(ctx, m, bridge)
package widget
