// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog logger shared by every component.
//
// The full-screen widget owns the terminal, so logs normally go to a file.
// Line mode may also mirror them to stderr through a ConsoleWriter.
package logging
