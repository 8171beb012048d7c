// Package config handles YAML configuration for harava.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure. Command-line flags
// override any value set here.
type Config struct {
	Prefix  string            `yaml:"prefix"`
	Regions []string          `yaml:"regions"`
	Tags    map[string]string `yaml:"tags"`
	Watch   WatchConfig       `yaml:"watch"`
	Log     LogConfig         `yaml:"log"`
}

// WatchConfig holds the periodic sweep settings.
type WatchConfig struct {
	IntervalStr string        `yaml:"interval"`
	Interval    time.Duration `yaml:"-"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := parseInterval(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Watch.Interval, _ = time.ParseDuration(cfg.Watch.IntervalStr)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Watch.IntervalStr == "" {
		cfg.Watch.IntervalStr = "1h"
	}
	if cfg.Watch.MetricsAddr == "" {
		cfg.Watch.MetricsAddr = ":9090"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func parseInterval(cfg *Config) error {
	d, err := time.ParseDuration(cfg.Watch.IntervalStr)
	if err != nil {
		return fmt.Errorf("parse watch interval %q: %w", cfg.Watch.IntervalStr, err)
	}
	cfg.Watch.Interval = d
	return nil
}

// Validate checks the configuration is valid.
func (c *Config) Validate() error {
	if c.Watch.Interval < time.Minute {
		return fmt.Errorf("watch: interval must be at least 1m (got %s)", c.Watch.Interval)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: invalid level %q: %w", c.Log.Level, err)
	}
	for k := range c.Tags {
		if k == "" {
			return fmt.Errorf("tags: empty tag key")
		}
	}
	return nil
}
