// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export saves conversation snapshots to disk.
//
// # Key Types
//
//   - Exporter: renders a model.ExportSnapshot (JSON, Markdown)
//   - Saver: what the session controller hands snapshots to
//   - FileSaver: writes aplybot-chat-YYYY-MM-DD.<ext> atomically
//
// # Usage
//
//	saver, err := export.NewFileSaver(&export.Options{OutputDir: ".", Format: export.FormatJSON})
//	path, err := saver.Save(history.Snapshot(time.Now()))
package export
