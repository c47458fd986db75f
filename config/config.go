// Package config loads covercare settings from defaults, an optional YAML
// file and COVERCARE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Submission modes.
const (
	SubmitSimulated = "simulated"
	SubmitSpool     = "spool"
)

// Camera permission values.
const (
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

// Config holds application configuration.
type Config struct {
	Theme  string       `mapstructure:"theme"`
	Submit SubmitConfig `mapstructure:"submit"`
	Device DeviceConfig `mapstructure:"device"`
	Log    LogConfig    `mapstructure:"log"`
}

// SubmitConfig controls where completed verifications go.
type SubmitConfig struct {
	Mode     string        `mapstructure:"mode"`
	Delay    time.Duration `mapstructure:"delay"`
	Timeout  time.Duration `mapstructure:"timeout"`
	SpoolDir string        `mapstructure:"spool_dir"`
}

// DeviceConfig configures document sources.
type DeviceConfig struct {
	CameraPermission string        `mapstructure:"camera_permission"`
	CaptureCommand   string        `mapstructure:"capture_command"`
	CaptureTimeout   time.Duration `mapstructure:"capture_timeout"`
	StartDir         string        `mapstructure:"start_dir"`
}

// LogConfig configures the structured log sink.
type LogConfig struct {
	File string `mapstructure:"file"`
}

// DefaultPath returns the config file consulted when none is given.
func DefaultPath() string {
	return filepath.Join(homeDir(), ".config", "covercare", "config.yaml")
}

// Load reads configuration. path may be empty, in which case the default
// location is used if it exists. Env var overrides use prefix COVERCARE_,
// e.g. COVERCARE_SUBMIT_MODE=spool.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("theme", "")
	v.SetDefault("submit.mode", SubmitSimulated)
	v.SetDefault("submit.delay", "2s")
	v.SetDefault("submit.timeout", "30s")
	v.SetDefault("submit.spool_dir", filepath.Join(homeDir(), ".local", "share", "covercare", "outbox"))
	v.SetDefault("device.camera_permission", PermissionGranted)
	v.SetDefault("device.capture_command", "")
	v.SetDefault("device.capture_timeout", "2m")
	v.SetDefault("device.start_dir", "")
	v.SetDefault("log.file", "")

	v.SetConfigType("yaml")
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix("COVERCARE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine; a missing explicit file is not.
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks enumerated values and durations.
func (c Config) Validate() error {
	switch strings.ToLower(c.Theme) {
	case "", "auto", "dark", "light":
	default:
		return fmt.Errorf("config: theme must be dark, light or auto, got %q", c.Theme)
	}
	switch c.Submit.Mode {
	case SubmitSimulated:
	case SubmitSpool:
		if strings.TrimSpace(c.Submit.SpoolDir) == "" {
			return fmt.Errorf("config: submit.spool_dir is required for spool mode")
		}
	default:
		return fmt.Errorf("config: submit.mode must be %q or %q, got %q", SubmitSimulated, SubmitSpool, c.Submit.Mode)
	}
	if c.Submit.Delay < 0 {
		return fmt.Errorf("config: submit.delay must not be negative")
	}
	if c.Submit.Timeout <= 0 {
		return fmt.Errorf("config: submit.timeout must be positive")
	}
	if c.Submit.Mode == SubmitSimulated && c.Submit.Delay >= c.Submit.Timeout {
		return fmt.Errorf("config: submit.delay (%s) must be shorter than submit.timeout (%s)",
			c.Submit.Delay, c.Submit.Timeout)
	}
	if c.Device.CaptureTimeout <= 0 {
		return fmt.Errorf("config: device.capture_timeout must be positive")
	}
	switch c.Device.CameraPermission {
	case PermissionGranted, PermissionDenied:
	default:
		return fmt.Errorf("config: device.camera_permission must be %q or %q, got %q",
			PermissionGranted, PermissionDenied, c.Device.CameraPermission)
	}
	return nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
