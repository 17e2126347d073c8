package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestRuntimeConfigDefaults(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	if cfg.Store != "sqlite" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.AlarmEnabled || cfg.TickInterval != time.Second || cfg.SchedulerBuffer != 16 {
		t.Fatalf("unexpected runtime defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("FOCUSLOOP_DATA_DIR", dir)
	t.Setenv("FOCUSLOOP_STORE", "FILE")
	t.Setenv("FOCUSLOOP_DESKTOP_NOTIFICATIONS", "true")
	t.Setenv("FOCUSLOOP_TICK_INTERVAL", "500ms")
	t.Setenv("FOCUSLOOP_SCHEDULER_BUFFER", "128")
	t.Setenv("FOCUSLOOP_GIST_ID", "abc")
	t.Setenv("FOCUSLOOP_GIST_TOKEN", "secret")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != "file" {
		t.Fatalf("expected store=file, got %q", cfg.Store)
	}
	if !cfg.DesktopNotifications {
		t.Fatal("expected desktop notifications true from env")
	}
	if cfg.TickInterval != 500*time.Millisecond || cfg.SchedulerBuffer != 128 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if !cfg.SyncConfigured() {
		t.Fatal("expected sync to be configured")
	}
	if cfg.DatabasePath() != filepath.Join(dir, "focusloop.db") {
		t.Fatalf("unexpected database path: %s", cfg.DatabasePath())
	}
	if cfg.LogPath() != filepath.Join(dir, "focusloop.log") {
		t.Fatalf("unexpected log path: %s", cfg.LogPath())
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	body := strings.Join([]string{
		"data_dir: " + dir,
		"log_level: debug",
		"alarm_enabled: false",
		"log_file: " + filepath.Join(dir, "out.log"),
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.AlarmEnabled {
		t.Fatalf("config file not applied: %+v", cfg)
	}
	if cfg.LogPath() != filepath.Join(dir, "out.log") {
		t.Fatalf("unexpected log path: %s", cfg.LogPath())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("FOCUSLOOP_DATA_DIR", dir)
	t.Setenv("FOCUSLOOP_STORE", "postgres")
	if _, err := Load(viper.New(), ""); err == nil {
		t.Fatal("expected validation error for unknown store")
	}

	t.Setenv("FOCUSLOOP_STORE", "sqlite")
	t.Setenv("FOCUSLOOP_TICK_INTERVAL", "1ms")
	if _, err := Load(viper.New(), ""); err == nil {
		t.Fatal("expected validation error for tick interval")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load(viper.New(), "/does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
