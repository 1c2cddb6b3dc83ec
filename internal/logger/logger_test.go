package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if tt.level.String() != tt.expected {
				t.Errorf("Level(%d).String() = %v, want %v", tt.level, tt.level.String(), tt.expected)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	t.Run("default hides debug and info", func(t *testing.T) {
		Init(false)
		buf.Reset()

		Debug("resolving certificate tool")
		Info("creating directories")
		Warn("fpm pool dir missing")
		Error("clone failed")

		out := buf.String()
		if strings.Contains(out, "resolving certificate tool") {
			t.Error("debug message shown without verbose")
		}
		if strings.Contains(out, "creating directories") {
			t.Error("info message shown without verbose")
		}
		if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "fpm pool dir missing") {
			t.Error("warn message missing")
		}
		if !strings.Contains(out, "[ERROR]") || !strings.Contains(out, "clone failed") {
			t.Error("error message missing")
		}
	})

	t.Run("verbose shows everything", func(t *testing.T) {
		Init(true)
		buf.Reset()

		Debug("probing %s", "certbot")
		Info("step %d", 3)

		out := buf.String()
		if !strings.Contains(out, "[DEBUG]") || !strings.Contains(out, "probing certbot") {
			t.Error("debug message missing in verbose mode")
		}
		if !strings.Contains(out, "[INFO]") || !strings.Contains(out, "step 3") {
			t.Error("info message missing in verbose mode")
		}
	})

	Init(false)
}
