// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/jeranaias/aplybot/internal/model"
)

// JSONExporter writes the snapshot document
// {exported_at, total_messages, conversation} with two-space indentation.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts a snapshot to JSON.
func (e *JSONExporter) Export(snap model.ExportSnapshot) ([]byte, error) {
	if snap.Conversation == nil {
		snap.Conversation = []model.Message{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot")
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
