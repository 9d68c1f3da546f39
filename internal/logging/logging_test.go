package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	logger, closeLog, err := Setup("info", path)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Info("pipeline started", "session_id", "session_test")
	if err := closeLog(); err != nil {
		t.Fatalf("closing log file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"session_id":"session_test"`) {
		t.Errorf("log file missing structured record: %s", data)
	}
}

func TestSetupWithoutFile(t *testing.T) {
	_, closeLog, err := Setup("debug", "")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := closeLog(); err != nil {
		t.Errorf("closer: %v", err)
	}
}
