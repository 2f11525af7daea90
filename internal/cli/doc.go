// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the aplybot command line.
//
// The root command starts a chat session. On an interactive terminal it runs
// the full-screen widget from package widget; with --plain, or when stdin or
// stdout is not a terminal, it falls back to a line-mode REPL with input
// history.
//
// # Commands
//
//   - aplybot: interactive chat (widget or REPL)
//   - aplybot ask QUESTION: one exchange, answer on stdout
//   - aplybot config show [KEY] | path | init [--force]
//   - aplybot version
//
// # Usage
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	os.Exit(cli.Execute(ctx, os.Args[1:]))
//
// Every command resolves configuration the same way: defaults, then the TOML
// file, then APLYBOT_* environment variables, then flags.
package cli
