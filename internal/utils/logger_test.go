package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var lines []map[string]interface{}
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(raw), &line))
		lines = append(lines, line)
	}
	return lines
}

func TestLogger_JoinsOperandsLikePrintln(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(false, "info", &buf)

	logger.Info("Scraping from source", "flixhq", 3)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "Scraping from source flixhq 3", lines[0]["msg"])
	assert.Equal(t, "info", lines[0]["level"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name    string
		debug   bool
		level   string
		wantLen int
	}{
		{name: "info drops debug", level: "info", wantLen: 3},
		{name: "debug keeps everything", level: "debug", wantLen: 4},
		{name: "debug flag overrides level", debug: true, level: "error", wantLen: 4},
		{name: "error only", level: "error", wantLen: 1},
		{name: "unknown falls back to info", level: "loud", wantLen: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.debug, tt.level, &buf)

			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")

			assert.Len(t, decodeLines(t, &buf), tt.wantLen)
		})
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(false, "info", &buf).With("request_id", "abc")

	logger.Infow("request handled", "status", 200)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "abc", lines[0]["request_id"])
	assert.EqualValues(t, 200, lines[0]["status"])
}
