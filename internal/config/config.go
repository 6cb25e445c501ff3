// Package config loads SDK configuration for composition roots.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything a composition root needs to build the SDK's
// clients.
type Config struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	Retries           int           `yaml:"retries"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	LogLevel          string        `yaml:"log_level"`

	// APIToken comes from the environment only, never from a file.
	APIToken string `yaml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		Retries:    0,
		RetryDelay: 300 * time.Millisecond,
		LogLevel:   "info",
	}
}

// Load reads a YAML config file, applies FIELDSERVE_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the file when it exists and falls back to defaults
// plus environment overrides otherwise.
func LoadOrDefault(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	cfg := Default()
	applyEnv(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FIELDSERVE_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("FIELDSERVE_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("FIELDSERVE_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retries = n
		}
	}
	if v := os.Getenv("FIELDSERVE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: base_url is required")
	}
	if c.Retries < 0 {
		return fmt.Errorf("config: retries must be >= 0")
	}
	return nil
}
