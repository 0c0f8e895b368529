package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete monitor configuration.
type Config struct {
	Target  TargetConfig  `json:"target" yaml:"target"`
	Monitor MonitorConfig `json:"monitor" yaml:"monitor"`
	Alerts  AlertsConfig  `json:"alerts" yaml:"alerts"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// TargetConfig identifies the watched resource.
type TargetConfig struct {
	URL   string `json:"url" yaml:"url"`
	Model string `json:"model" yaml:"model"`
	// File, when set, reads snapshots from a text file instead of the URL.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	// FetchTimeout bounds one page fetch, e.g. "60s".
	FetchTimeout string `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"`
}

// MonitorConfig tunes the poll loop.
type MonitorConfig struct {
	Interval        string `json:"interval" yaml:"interval"` // delay between iterations, e.g. "10s"
	Cooldown        string `json:"cooldown" yaml:"cooldown"` // delay after a failed fetch, e.g. "30s"
	StartupAttempts int    `json:"startup_attempts,omitempty" yaml:"startup_attempts,omitempty"`
}

// AlertsConfig selects the notification channels. With none enabled the
// desktop notification is the default.
type AlertsConfig struct {
	Desktop bool `json:"desktop" yaml:"desktop"`
	Sound   bool `json:"sound" yaml:"sound"`
	Popup   bool `json:"popup" yaml:"popup"`
	Table   bool `json:"table" yaml:"table"`
	// SinkTimeout bounds each sink call, e.g. "10s".
	SinkTimeout string `json:"sink_timeout,omitempty" yaml:"sink_timeout,omitempty"`
}

// JournalConfig names the persistence targets. Empty paths disable the
// corresponding writer, except LogFile which is always required.
type JournalConfig struct {
	LogFile     string `json:"log_file" yaml:"log_file"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	SnapshotDir string `json:"snapshot_dir,omitempty" yaml:"snapshot_dir,omitempty"`
	LatestView  string `json:"latest_view,omitempty" yaml:"latest_view,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON) and applies
// any POSWATCH_* environment overrides on top.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from POSWATCH_* environment variables. Intended
// to run after file load; a .env file loaded by the command layer feeds it.
func (c *Config) ApplyEnv() {
	setString(&c.Target.URL, "POSWATCH_URL")
	setString(&c.Target.Model, "POSWATCH_MODEL")
	setString(&c.Target.File, "POSWATCH_FILE")
	setString(&c.Target.FetchTimeout, "POSWATCH_FETCH_TIMEOUT")
	setString(&c.Monitor.Interval, "POSWATCH_INTERVAL")
	setString(&c.Monitor.Cooldown, "POSWATCH_COOLDOWN")
	setInt(&c.Monitor.StartupAttempts, "POSWATCH_STARTUP_ATTEMPTS")
	setString(&c.Journal.LogFile, "POSWATCH_LOG_FILE")
	setString(&c.Journal.DBPath, "POSWATCH_DB_PATH")
	setString(&c.Journal.SnapshotDir, "POSWATCH_SNAPSHOT_DIR")
	setString(&c.Journal.LatestView, "POSWATCH_LATEST_VIEW")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Target.URL == "" && c.Target.File == "" {
		return fmt.Errorf("target.url or target.file is required")
	}
	if c.Target.Model == "" {
		return fmt.Errorf("target.model is required")
	}
	if _, err := c.Interval(); err != nil {
		return fmt.Errorf("monitor.interval: %w", err)
	}
	if _, err := c.Cooldown(); err != nil {
		return fmt.Errorf("monitor.cooldown: %w", err)
	}
	if _, err := c.FetchTimeout(); err != nil {
		return fmt.Errorf("target.fetch_timeout: %w", err)
	}
	if _, err := c.SinkTimeout(); err != nil {
		return fmt.Errorf("alerts.sink_timeout: %w", err)
	}
	if c.Monitor.StartupAttempts < 0 {
		return fmt.Errorf("monitor.startup_attempts must be >= 0")
	}
	if c.Journal.LogFile == "" {
		return fmt.Errorf("journal.log_file is required")
	}
	return nil
}

// Interval returns the parsed poll interval.
func (c *Config) Interval() (time.Duration, error) {
	return positiveDuration(c.Monitor.Interval, 10*time.Second)
}

// Cooldown returns the parsed retry cooldown.
func (c *Config) Cooldown() (time.Duration, error) {
	return positiveDuration(c.Monitor.Cooldown, 30*time.Second)
}

// FetchTimeout returns the parsed per-fetch timeout.
func (c *Config) FetchTimeout() (time.Duration, error) {
	return positiveDuration(c.Target.FetchTimeout, 60*time.Second)
}

// SinkTimeout returns the parsed per-sink timeout.
func (c *Config) SinkTimeout() (time.Duration, error) {
	return positiveDuration(c.Alerts.SinkTimeout, 10*time.Second)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			URL:          "https://nof1.ai/models/deepseek-chat-v3.1",
			Model:        "DEEPSEEK CHAT V3.1",
			FetchTimeout: "60s",
		},
		Monitor: MonitorConfig{
			Interval: "10s",
			Cooldown: "30s",
		},
		Alerts: AlertsConfig{
			Desktop:     true,
			SinkTimeout: "10s",
		},
		Journal: JournalConfig{
			LogFile:     "./positions-log.txt",
			DBPath:      "./poswatch.sqlite",
			SnapshotDir: "./positions_snapshots",
			LatestView:  "./positions_latest.html",
		},
	}
}

func positiveDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
