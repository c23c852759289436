package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "json")
	logger.Debug("attempt started", "quiz_id", "quiz-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "attempt started", record["msg"])
	assert.Equal(t, "quiz-1", record["quiz_id"])
}

func TestPrettyHandlerFiltersAndKeepsAttrs(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelInfo)).With("component", "http")

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.WithGroup("req").Info("request", "status", 200)
	out := buf.String()
	assert.Contains(t, out, "INFO:")
	assert.Contains(t, out, "component=http")
	assert.Contains(t, out, "req.status=200")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
