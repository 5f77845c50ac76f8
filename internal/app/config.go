package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// DescriptorPath is the root launch descriptor.
	DescriptorPath string
	// Overrides are name:=value argument overrides for the top-level
	// scope.
	Overrides map[string]string

	LogFormat string
	LogLevel  string

	// DryRun composes and prints the flattened plan without spawning
	// anything.
	DryRun bool
	// Grace is the shutdown grace window handed to the supervisor.
	Grace time.Duration
	// PackagePath is the list-separated package search path; empty means
	// the LAUNCHGRID_PACKAGE_PATH environment variable.
	PackagePath string
	// LogDir receives per-node log files; empty means a fresh temp dir.
	LogDir string
}

// NewConfig validates a Config and fills defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.DescriptorPath == "" {
		return nil, errors.New("DescriptorPath is a required configuration field and cannot be empty")
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 5 * time.Second
	}
	return &cfg, nil
}
