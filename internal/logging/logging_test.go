package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOpenFileWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "focusloop.log")
	logger, closer, err := OpenFile(path, "info")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("timer started", "loop", "out")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", raw, err)
	}
	if entry["msg"] != "timer started" || entry["loop"] != "out" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
