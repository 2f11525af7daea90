// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jeranaias/aplybot/internal/model"
	"github.com/jeranaias/aplybot/internal/util"
)

// FilePrefix starts every export file name.
const FilePrefix = "aplybot-chat-"

// ErrEmptySnapshot is returned when asked to save a snapshot with no messages.
var ErrEmptySnapshot = errors.New("nothing to export")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a snapshot in one file format.
type Exporter interface {
	// Export converts the snapshot to the target format.
	Export(snap model.ExportSnapshot) ([]byte, error)

	// FileExtension returns the file extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the format.
	MimeType() string
}

// Saver persists a snapshot and returns where it went.
type Saver interface {
	Save(snap model.ExportSnapshot) (string, error)
}

// Format selects an Exporter.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "json", "markdown" or "md", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", errors.Errorf("unknown export format %q (want json or markdown)", s)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files are saved.
	// Default: current working directory
	OutputDir string

	// Format of the written file. Default: json
	Format Format

	// Brand names the assistant in Markdown headings. Default: AplyBot
	Brand string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir: ".",
		Format:    FormatJSON,
		Brand:     "AplyBot",
	}
}

// NewExporter returns the exporter for opts.Format.
func NewExporter(opts *Options) (Exporter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	switch opts.Format {
	case FormatJSON, "":
		return NewJSONExporter(), nil
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	default:
		return nil, errors.Errorf("unknown export format %q", opts.Format)
	}
}

// =============================================================================
// FILE SAVER
// =============================================================================

// FileSaver writes snapshots into a directory, one file per day. A second
// export on the same day replaces the first.
type FileSaver struct {
	dir      string
	exporter Exporter
}

// NewFileSaver creates a saver for opts.
func NewFileSaver(opts *Options) (*FileSaver, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	exporter, err := NewExporter(opts)
	if err != nil {
		return nil, err
	}
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	return &FileSaver{dir: dir, exporter: exporter}, nil
}

// Save renders snap and writes it atomically. It returns the written path.
func (s *FileSaver) Save(snap model.ExportSnapshot) (string, error) {
	if snap.IsEmpty() {
		return "", ErrEmptySnapshot
	}

	content, err := s.exporter.Export(snap)
	if err != nil {
		return "", errors.Wrap(err, "export failed")
	}

	path := filepath.Join(s.dir, FileName(snap.ExportedAt, s.exporter.FileExtension()))
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}

// FileName returns the export file name for the local date of t.
func FileName(t time.Time, ext string) string {
	if t.IsZero() {
		t = time.Now()
	}
	return FilePrefix + t.Local().Format("2006-01-02") + ext
}
