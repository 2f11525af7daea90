// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small file helpers shared by export and config.
//
//	// Write files atomically so a crash never leaves a half-written export
//	err := util.AtomicWriteFile(path, data, 0644)
package util
