package logging

import (
	"log/slog"
	"testing"
)

func TestNewLevels(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for level, want := range cases {
		logger := New(level)
		if logger == nil {
			t.Fatalf("New(%q) returned nil", level)
		}
		if !logger.Enabled(nil, want) {
			t.Errorf("New(%q): expected level %v to be enabled", level, want)
		}
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default returned nil")
	}
	if logger.Enabled(nil, slog.LevelDebug) {
		t.Error("default logger should not emit debug records")
	}
}

func TestWith(t *testing.T) {
	child := Default().With("component", "test")
	if child == nil || child.Logger == nil {
		t.Fatal("With returned nil logger")
	}
}
