// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/jeranaias/aplybot/internal/model"
)

func sampleSnapshot() model.ExportSnapshot {
	h := model.NewHistory(0)
	h.Append(model.RoleUser, "What does a website cost?")
	h.Append(model.RoleAssistant, "It depends on **scope**.")
	return h.Snapshot(time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local))
}

func newSaver(t *testing.T, opts *Options) *FileSaver {
	t.Helper()
	saver, err := NewFileSaver(opts)
	if err != nil {
		t.Fatalf("NewFileSaver: %v", err)
	}
	return saver
}

func readDir(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	return entries
}

func TestFileSaver_WritesJSONDocument(t *testing.T) {
	dir := t.TempDir()
	saver := newSaver(t, &Options{OutputDir: dir, Format: FormatJSON})

	path, err := saver.Save(sampleSnapshot())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if want := filepath.Join(dir, "aplybot-chat-2025-06-15.json"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"exported_at\"") {
		t.Errorf("expected a two-space indented document:\n%s", data)
	}

	var doc struct {
		ExportedAt    time.Time       `json:"exported_at"`
		TotalMessages int             `json:"total_messages"`
		Conversation  []model.Message `json:"conversation"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc.TotalMessages != 2 {
		t.Errorf("total_messages = %d, want 2", doc.TotalMessages)
	}
	if len(doc.Conversation) != 2 {
		t.Fatalf("conversation has %d entries, want 2", len(doc.Conversation))
	}
	if doc.Conversation[0].Role != model.RoleUser {
		t.Errorf("first role = %q, want user", doc.Conversation[0].Role)
	}
	if got := doc.Conversation[1].Content; got != "It depends on **scope**." {
		t.Errorf("second content = %q", got)
	}
}

func TestFileSaver_SameDayOverwrites(t *testing.T) {
	dir := t.TempDir()
	saver := newSaver(t, &Options{OutputDir: dir})

	snap := sampleSnapshot()
	if _, err := saver.Save(snap); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	snap.Conversation = snap.Conversation[:1]
	snap.TotalMessages = 1
	if _, err := saver.Save(snap); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	if entries := readDir(t, dir); len(entries) != 1 {
		t.Errorf("got %d files, want 1", len(entries))
	}
}

func TestFileSaver_EmptySnapshotWritesNothing(t *testing.T) {
	dir := t.TempDir()
	saver := newSaver(t, &Options{OutputDir: dir})

	_, err := saver.Save(model.NewHistory(0).Snapshot(time.Now()))
	if !errors.Is(err, ErrEmptySnapshot) {
		t.Errorf("err = %v, want ErrEmptySnapshot", err)
	}
	if entries := readDir(t, dir); len(entries) != 0 {
		t.Errorf("got %d files, want none", len(entries))
	}
}

func TestFileSaver_Markdown(t *testing.T) {
	dir := t.TempDir()
	saver := newSaver(t, &Options{OutputDir: dir, Format: FormatMarkdown, Brand: "AplyBot"})

	path, err := saver.Save(sampleSnapshot())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Ext(path) != ".md" {
		t.Errorf("extension of %q, want .md", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	md := string(data)
	for _, want := range []string{
		"messages: 2\n",
		"# AplyBot conversation",
		"### You <sub>",
		"### AplyBot <sub>",
		"It depends on **scope**.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"markdown", FormatMarkdown, false},
		{" md ", FormatMarkdown, false},
		{"html", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := NewFileSaver(&Options{Format: "pdf"}); err == nil {
		t.Error("NewFileSaver should reject an unknown format")
	}
}

func TestEscapeYAML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a: b", `"a: b"`},
		{"line\nbreak", `"line\nbreak"`},
	}
	for _, tc := range tests {
		if got := escapeYAML(tc.in); got != tc.want {
			t.Errorf("escapeYAML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
