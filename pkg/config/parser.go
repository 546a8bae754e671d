package config

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Default scan and upload settings, applied before validation.
const (
	DefaultScanInterval  = 2 * time.Second
	DefaultScanTimeout   = 30 * time.Second
	DefaultUploadTimeout = 30 * time.Second
)

// LoadConfig loads and parses the configuration file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Scan.Interval == 0 {
		config.Scan.Interval = DefaultScanInterval
	}
	if config.Scan.Timeout == 0 {
		config.Scan.Timeout = DefaultScanTimeout
	}
	if config.Upload.Timeout == 0 {
		config.Upload.Timeout = DefaultUploadTimeout
	}
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Scan.Interval <= 0 {
		return fmt.Errorf("scan.interval must be greater than 0")
	}

	if config.Scan.Timeout <= 0 {
		return fmt.Errorf("scan.timeout must be greater than 0")
	}

	if config.Upload.Enabled && config.Upload.URL == "" {
		return fmt.Errorf("upload.url is required when upload is enabled")
	}

	if config.Upload.Timeout <= 0 {
		return fmt.Errorf("upload.timeout must be greater than 0")
	}

	if config.WatchSchedule != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(config.WatchSchedule); err != nil {
			return fmt.Errorf("watchSchedule is not a valid cron expression: %w", err)
		}
	}

	return nil
}
