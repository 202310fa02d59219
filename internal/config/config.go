// Package config loads the forgotten service configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all forgotten configuration.
type Config struct {
	// HTTP listen address for the boundary layer.
	ListenAddr string `yaml:"listen_addr"`

	// SQLite database path shared by the tracking and retention stores.
	DatabasePath string `yaml:"database_path"`

	// Directory for per-day privacy audit log partitions.
	PrivacyLogDir string `yaml:"privacy_log_dir"`

	// Browser automation settings
	Browser BrowserConfig `yaml:"browser"`

	// Retention windows and sweep cadence
	Retention RetentionConfig `yaml:"retention"`
}

// BrowserConfig configures the automation sessions.
type BrowserConfig struct {
	Headless          bool   `yaml:"headless"`
	UserAgent         string `yaml:"user_agent"`
	NavigationTimeout string `yaml:"navigation_timeout"`
	ProbeTimeout      string `yaml:"probe_timeout"`
	UploadWait        string `yaml:"upload_wait"`
	ViewportWidth     int    `yaml:"viewport_width"`
	ViewportHeight    int    `yaml:"viewport_height"`
}

// RetentionConfig configures record and log retention.
type RetentionConfig struct {
	TrackingWindow  string `yaml:"tracking_window"`
	DiscoveryWindow string `yaml:"discovery_window"`
	LogWindow       string `yaml:"log_window"`
	SweepInterval   string `yaml:"sweep_interval"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    ":8080",
		DatabasePath:  "forgotten.db",
		PrivacyLogDir: "privacy-logs",
		Browser: BrowserConfig{
			Headless:          true,
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			NavigationTimeout: "30s",
			ProbeTimeout:      "10s",
			UploadWait:        "15s",
			ViewportWidth:     1920,
			ViewportHeight:    1080,
		},
		Retention: RetentionConfig{
			TrackingWindow:  "2160h", // 90 days
			DiscoveryWindow: "24h",
			LogWindow:       "8760h", // 365 days
			SweepInterval:   "1h",
		},
	}
}

// Load reads a YAML config file, applying defaults for missing values.
// A missing file is not an error; defaults are returned.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// NavigationTimeout returns the first-navigation timeout.
func (c BrowserConfig) GetNavigationTimeout() time.Duration {
	return parseDuration(c.NavigationTimeout, 30*time.Second)
}

// GetProbeTimeout returns the timeout for probe navigations and element scans.
func (c BrowserConfig) GetProbeTimeout() time.Duration {
	return parseDuration(c.ProbeTimeout, 10*time.Second)
}

// GetUploadWait returns the bounded wait for upload confirmation indicators.
func (c BrowserConfig) GetUploadWait() time.Duration {
	return parseDuration(c.UploadWait, 15*time.Second)
}

// GetViewportWidth returns viewport width.
func (c BrowserConfig) GetViewportWidth() int {
	if c.ViewportWidth == 0 {
		return 1920
	}
	return c.ViewportWidth
}

// GetViewportHeight returns viewport height.
func (c BrowserConfig) GetViewportHeight() int {
	if c.ViewportHeight == 0 {
		return 1080
	}
	return c.ViewportHeight
}

// GetTrackingWindow returns the tracking record retention window.
func (c RetentionConfig) GetTrackingWindow() time.Duration {
	return parseDuration(c.TrackingWindow, 90*24*time.Hour)
}

// GetDiscoveryWindow returns the discovery result retention window.
func (c RetentionConfig) GetDiscoveryWindow() time.Duration {
	return parseDuration(c.DiscoveryWindow, 24*time.Hour)
}

// GetLogWindow returns the privacy log partition retention window.
func (c RetentionConfig) GetLogWindow() time.Duration {
	return parseDuration(c.LogWindow, 365*24*time.Hour)
}

// GetSweepInterval returns the periodic sweep cadence.
func (c RetentionConfig) GetSweepInterval() time.Duration {
	return parseDuration(c.SweepInterval, time.Hour)
}
