package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// MonitorConfig describes the monitor the daemon creates at startup.
type MonitorConfig struct {
	Width     int `yaml:"width" envconfig:"MONITOR_WIDTH"`
	Height    int `yaml:"height" envconfig:"MONITOR_HEIGHT"`
	RefreshHz int `yaml:"refresh_hz" envconfig:"MONITOR_REFRESH_HZ"`
}

// ModeConfig is one entry of the advertised mode list.
type ModeConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	RefreshHz int `yaml:"refresh_hz"`
}

// PumpConfig bounds the retry backoff of the frame consumption loop.
type PumpConfig struct {
	MinBackoff time.Duration `yaml:"min_backoff" envconfig:"PUMP_MIN_BACKOFF"`
	MaxBackoff time.Duration `yaml:"max_backoff" envconfig:"PUMP_MAX_BACKOFF"`
}

// CaptureConfig configures the X11 screen capture frame source.
type CaptureConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"CAPTURE_ENABLED"`
	Display  string        `yaml:"display" envconfig:"CAPTURE_DISPLAY"`
	Interval time.Duration `yaml:"interval" envconfig:"CAPTURE_INTERVAL"`
}

// Config is the effective daemon configuration.
type Config struct {
	// LogLevel controls daemon verbosity: debug, info, warn, error.
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	// SocketPath overrides the runtime-directory IPC socket location.
	SocketPath string `yaml:"socket_path" envconfig:"SOCKET_PATH"`

	DefaultMonitor MonitorConfig `yaml:"default_monitor"`

	// Modes replaces the built-in mode list when non-empty.
	Modes []ModeConfig `yaml:"modes"`

	Pump    PumpConfig    `yaml:"pump"`
	Capture CaptureConfig `yaml:"capture"`
}

// ValidationError reports which configuration key failed validation.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Path, e.Message)
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		DefaultMonitor: MonitorConfig{
			Width:     1920,
			Height:    1080,
			RefreshHz: 60,
		},
		Pump: PumpConfig{
			MinBackoff: 2 * time.Millisecond,
			MaxBackoff: 50 * time.Millisecond,
		},
		Capture: CaptureConfig{
			Enabled:  false,
			Interval: 16 * time.Millisecond,
		},
	}
}

// DefaultConfigPath returns ~/.config/virtdisplay/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "virtdisplay", "config.yaml"), nil
}

// Load reads the merged configuration from the standard location. A missing
// file is not an error: defaults plus environment overrides apply. The
// environment uses the VIRTDISPLAY_ prefix (VIRTDISPLAY_LOG_LEVEL and so on)
// and always wins over the file.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if exists, err := pathExists(path); err != nil {
		return nil, err
	} else if exists {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("virtdisplay", cfg); err != nil {
		return nil, fmt.Errorf("config: environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Message: fmt.Sprintf("unknown level %q", c.LogLevel)}
	}

	if c.DefaultMonitor.Width <= 0 || c.DefaultMonitor.Height <= 0 {
		return &ValidationError{Path: "default_monitor", Message: "width and height must be positive"}
	}
	if c.DefaultMonitor.RefreshHz <= 0 {
		return &ValidationError{Path: "default_monitor.refresh_hz", Message: "must be positive"}
	}

	for i, m := range c.Modes {
		if m.Width <= 0 || m.Height <= 0 || m.RefreshHz <= 0 {
			return &ValidationError{
				Path:    fmt.Sprintf("modes[%d]", i),
				Message: "width, height and refresh_hz must be positive",
			}
		}
	}

	if c.Pump.MinBackoff <= 0 {
		return &ValidationError{Path: "pump.min_backoff", Message: "must be positive"}
	}
	if c.Pump.MaxBackoff < c.Pump.MinBackoff {
		return &ValidationError{Path: "pump.max_backoff", Message: "must be >= min_backoff"}
	}

	if c.Capture.Enabled && c.Capture.Interval <= 0 {
		return &ValidationError{Path: "capture.interval", Message: "must be positive when capture is enabled"}
	}

	return nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
