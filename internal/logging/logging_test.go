// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{" error ", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "aplybot.log")
	logger, closer, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("component", "test").Msg("visible")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Contains(t, entry, "time")
}

func TestNew_ConsoleMirror(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{File: Discard, Console: true, ConsoleOut: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Warn().Msg("stream hiccup")
	assert.Contains(t, buf.String(), "stream hiccup")
	assert.Contains(t, buf.String(), "WRN")
}

func TestNew_NothingConfiguredIsSilent(t *testing.T) {
	logger, closer, err := New(Options{File: Discard})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestNew_BadLevel(t *testing.T) {
	_, closer, err := New(Options{Level: "loud"})
	assert.Error(t, err)
	assert.NotNil(t, closer)
}
