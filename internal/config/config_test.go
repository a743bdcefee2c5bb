package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q, want info", cfg.LogLevel)
	}
	if cfg.DefaultMonitor.Width != 1920 || cfg.DefaultMonitor.Height != 1080 {
		t.Fatalf("default monitor = %dx%d, want 1920x1080", cfg.DefaultMonitor.Width, cfg.DefaultMonitor.Height)
	}
}

func TestLoadFromPath_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
default_monitor:
  width: 2560
  height: 1600
  refresh_hz: 60
pump:
  min_backoff: 1ms
  max_backoff: 20ms
modes:
  - width: 2560
    height: 1600
    refresh_hz: 60
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q, want debug", cfg.LogLevel)
	}
	if cfg.DefaultMonitor.Width != 2560 {
		t.Fatalf("monitor width = %d, want 2560", cfg.DefaultMonitor.Width)
	}
	if cfg.Pump.MaxBackoff != 20*time.Millisecond {
		t.Fatalf("max backoff = %v, want 20ms", cfg.Pump.MaxBackoff)
	}
	if len(cfg.Modes) != 1 || cfg.Modes[0].Height != 1600 {
		t.Fatalf("modes = %+v, want one 2560x1600 entry", cfg.Modes)
	}
}

func TestLoadFromPath_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "log_levle: debug\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("misspelled key accepted")
	}
}

func TestLoadFromPath_EnvironmentWinsOverFile(t *testing.T) {
	path := writeConfig(t, "log_level: warn\n")
	t.Setenv("VIRTDISPLAY_LOG_LEVEL", "error")
	t.Setenv("VIRTDISPLAY_MONITOR_WIDTH", "1280")
	t.Setenv("VIRTDISPLAY_MONITOR_HEIGHT", "720")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("log level = %q, want error from environment", cfg.LogLevel)
	}
	if cfg.DefaultMonitor.Width != 1280 || cfg.DefaultMonitor.Height != 720 {
		t.Fatalf("monitor = %dx%d, want 1280x720", cfg.DefaultMonitor.Width, cfg.DefaultMonitor.Height)
	}
}

func TestValidate_ReportsFailingKey(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"bad level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
		{"zero width", func(c *Config) { c.DefaultMonitor.Width = 0 }, "default_monitor"},
		{"zero refresh", func(c *Config) { c.DefaultMonitor.RefreshHz = 0 }, "default_monitor.refresh_hz"},
		{"bad mode", func(c *Config) { c.Modes = []ModeConfig{{Width: 100}} }, "modes[0]"},
		{"inverted backoff", func(c *Config) { c.Pump.MaxBackoff = c.Pump.MinBackoff / 2 }, "pump.max_backoff"},
		{"capture interval", func(c *Config) { c.Capture.Enabled = true; c.Capture.Interval = 0 }, "capture.interval"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("invalid config accepted")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type %T, want *ValidationError", err)
			}
			if verr.Path != tc.path {
				t.Fatalf("failing path = %q, want %q", verr.Path, tc.path)
			}
			if !strings.Contains(err.Error(), tc.path) {
				t.Fatalf("error %q does not name the key", err)
			}
		})
	}
}
