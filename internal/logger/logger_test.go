package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hazardcam/internal/config"
)

func TestLogger_WritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir, LogMaxSizeMB: 1, LogMaxBackups: 1})
	defer l.Close()

	l.Info("hello %s", "info")
	l.Warning("careful %d", 42)
	l.Error("broken")

	checks := map[string]string{
		"info.log":    "hello info",
		"warning.log": "careful 42",
		"error.log":   "broken",
	}
	for file, want := range checks {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", file, err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s: expected %q in %q", file, want, string(data))
		}
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir, LogMaxSizeMB: 1, LogMaxBackups: 1})
	defer l.Close()

	l.Warning("to be removed")
	l.CleanLogs("warning.log")

	data, err := os.ReadFile(filepath.Join(dir, "warning.log"))
	if err != nil {
		t.Fatalf("Failed to read warning.log: %v", err)
	}
	if strings.Contains(string(data), "to be removed") {
		t.Errorf("Expected warning.log to be cleared, got %q", string(data))
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := Nop()
	l.Info("x")
	l.Warning("y")
	l.Error("z")
	if err := l.Close(); err != nil {
		t.Errorf("Unexpected close error: %v", err)
	}
}
