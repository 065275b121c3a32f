// Package config handles configuration loading from YAML files and
// environment variables. Precedence: environment variables > config file >
// defaults. Threshold overrides keep their historical environment names
// (CPU_TEMP_MAX, CPU_USAGE_MAX, ...).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "5s", "30s", "5m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all syswatch configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Collection CollectionConfig `yaml:"collection"`
	Thresholds ThresholdConfig  `yaml:"thresholds"`
	History    HistoryConfig    `yaml:"history"`
	Alerts     AlertConfig      `yaml:"alerts"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the web API listen settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// CollectionConfig holds diagnostics collection settings.
type CollectionConfig struct {
	CacheTTL     Duration `yaml:"cache_ttl"`
	ProbeTimeout Duration `yaml:"probe_timeout"`
	Interval     Duration `yaml:"interval"`
	TopProcesses int      `yaml:"top_processes"`
}

// ThresholdConfig holds the health-classification ceilings.
type ThresholdConfig struct {
	CPUTempMax     float64 `yaml:"cpu_temp_max"`
	CPUUsageMax    float64 `yaml:"cpu_usage_max"`
	MemoryUsageMax float64 `yaml:"memory_usage_max"`
	DiskUsageMax   float64 `yaml:"disk_usage_max"`
	GPUTempMax     float64 `yaml:"gpu_temp_max"`
}

// HistoryConfig holds snapshot history store settings.
type HistoryConfig struct {
	Dir       string `yaml:"dir"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// AlertConfig holds alert dispatch settings.
type AlertConfig struct {
	Webhook WebhookConfig `yaml:"webhook"`
	Email   EmailConfig   `yaml:"email"`
}

// WebhookConfig holds webhook alert settings.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// EmailConfig holds SMTP alert settings.
type EmailConfig struct {
	Enabled    bool     `yaml:"enabled"`
	SMTPServer string   `yaml:"smtp_server"`
	SMTPPort   int      `yaml:"smtp_port"`
	Sender     string   `yaml:"sender"`
	Password   string   `yaml:"password"`
	Recipients []string `yaml:"recipients"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen: "127.0.0.1:8750",
		},
		Collection: CollectionConfig{
			CacheTTL:     Duration{5 * time.Second},
			ProbeTimeout: Duration{5 * time.Second},
			Interval:     Duration{5 * time.Minute},
			TopProcesses: 10,
		},
		Thresholds: ThresholdConfig{
			CPUTempMax:     85,
			CPUUsageMax:    90,
			MemoryUsageMax: 90,
			DiskUsageMax:   90,
			GPUTempMax:     85,
		},
		History: HistoryConfig{
			Dir:       "./history",
			MaxSizeMB: 50,
		},
		Alerts: AlertConfig{
			Email: EmailConfig{
				SMTPServer: "smtp.gmail.com",
				SMTPPort:   587,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with
// defaults. Environment variables take highest precedence.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// Locate searches standard config file paths and returns the first one
// found, or empty string if none exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// WriteConfig serializes the config to a YAML file at the given path,
// creating parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides. Threshold
// variables keep the names existing deployment scripts already use. A
// malformed numeric override is ignored in favor of the configured value
// rather than silently zeroing a ceiling.
func applyEnvOverrides(cfg *Config) {
	if listen := os.Getenv("SW_LISTEN"); listen != "" {
		cfg.Server.Listen = listen
	}
	if level := os.Getenv("SW_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if url := os.Getenv("WEBHOOK_URL"); url != "" {
		cfg.Alerts.Webhook.URL = url
	}

	overrideFloat("CPU_TEMP_MAX", &cfg.Thresholds.CPUTempMax)
	overrideFloat("CPU_USAGE_MAX", &cfg.Thresholds.CPUUsageMax)
	overrideFloat("MEMORY_USAGE_MAX", &cfg.Thresholds.MemoryUsageMax)
	overrideFloat("DISK_USAGE_MAX", &cfg.Thresholds.DiskUsageMax)
	overrideFloat("GPU_TEMP_MAX", &cfg.Thresholds.GPUTempMax)
}

func overrideFloat(name string, target *float64) {
	raw := os.Getenv(name)
	if raw == "" {
		return
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		*target = v
	}
}

// Validate checks that the configuration is usable. Enabled alert channels
// must carry their credentials; ceilings must be positive.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server listen address is required")
	}
	if c.Collection.CacheTTL.Duration <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Collection.ProbeTimeout.Duration <= 0 {
		return fmt.Errorf("probe timeout must be positive")
	}
	for name, v := range map[string]float64{
		"cpu_temp_max":     c.Thresholds.CPUTempMax,
		"cpu_usage_max":    c.Thresholds.CPUUsageMax,
		"memory_usage_max": c.Thresholds.MemoryUsageMax,
		"disk_usage_max":   c.Thresholds.DiskUsageMax,
		"gpu_temp_max":     c.Thresholds.GPUTempMax,
	} {
		if v <= 0 {
			return fmt.Errorf("threshold %s must be positive", name)
		}
	}
	if c.Alerts.Webhook.Enabled && c.Alerts.Webhook.URL == "" {
		return fmt.Errorf("webhook alerts enabled but no URL configured")
	}
	if c.Alerts.Email.Enabled {
		if c.Alerts.Email.Sender == "" || c.Alerts.Email.Password == "" {
			return fmt.Errorf("email alerts enabled but sender credentials missing")
		}
		if len(c.Alerts.Email.Recipients) == 0 {
			return fmt.Errorf("email alerts enabled but no recipients configured")
		}
	}
	return nil
}

// ThresholdMap renders the configured ceilings as the loosely typed map the
// analyzer's constructor consumes.
func (c *Config) ThresholdMap() map[string]any {
	return map[string]any{
		"cpu_temp_max":     c.Thresholds.CPUTempMax,
		"cpu_usage_max":    c.Thresholds.CPUUsageMax,
		"memory_usage_max": c.Thresholds.MemoryUsageMax,
		"disk_usage_max":   c.Thresholds.DiskUsageMax,
		"gpu_temp_max":     c.Thresholds.GPUTempMax,
	}
}
