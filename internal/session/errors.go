// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/pkg/errors"

// Rejections returned by Submit and ExportHistory. None of them changes state.
var (
	ErrEmptyInput       = errors.New("input is empty")
	ErrAwaitingResponse = errors.New("a response is already in flight")
	ErrClosed           = errors.New("chat widget is closed")
	ErrEmptyExport      = errors.New("no messages to export")
)

// IsRejection reports whether err is one of the no-op submit rejections.
func IsRejection(err error) bool {
	return errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrAwaitingResponse) ||
		errors.Is(err, ErrClosed)
}
