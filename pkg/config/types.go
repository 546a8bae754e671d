package config

import (
	"time"
)

// Config represents the entire configuration for the extractor.
type Config struct {
	Scan   ScanConfig   `yaml:"scan"`
	Upload UploadConfig `yaml:"upload"`

	// Cron expression for watch mode; empty disables scheduling.
	WatchSchedule string `yaml:"watchSchedule,omitempty"`
}

// ScanConfig controls how the extractor waits for a pump to appear.
type ScanConfig struct {
	// DevicePath is where the pump's history dump shows up once the device
	// is mounted.
	DevicePath string        `yaml:"devicePath"`
	Interval   time.Duration `yaml:"interval"`
	Timeout    time.Duration `yaml:"timeout"`
}

// UploadConfig controls the platform upload of the final event log.
type UploadConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}
