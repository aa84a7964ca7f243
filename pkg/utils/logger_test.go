package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"", LogLevelInfo},
		{"bogus", LogLevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogLevel(tt.in), tt.in)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewLogger(&LoggerConfig{Level: LogLevelWarn, Output: &buf, EnableColor: false})

	log.Debug("debug line")
	log.Info("info line")
	log.Warn("warn line")
	log.Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestLoggerWithField(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewLogger(&LoggerConfig{Level: LogLevelInfo, Output: &buf, EnableColor: false})

	log.WithField("device", "UAL6").Info("placed")

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "device=UAL6")
	assert.Contains(t, line, "placed")
}
