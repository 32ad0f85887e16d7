// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration for catalog search and
// download operations.
type Config struct {
	// BaseURL is the catalog endpoint (default: https://www.soundboard.com)
	BaseURL string `json:"base_url"`
	// UserAgent is sent on every outbound request
	UserAgent string `json:"user_agent"`
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration `json:"timeout"`
	// RequestDelay is the fixed pause between sound fetches
	RequestDelay time.Duration `json:"request_delay"`

	// MinViews is the minimum view count a board must have (0 = no filter)
	MinViews int `json:"min_views"`
	// MinSounds is the minimum sound count a board must have (0 = no filter)
	MinSounds int `json:"min_sounds"`
	// MaxBoards bounds the boards examined per search
	MaxBoards int `json:"max_boards"`

	// DownloadRoot is where per-board directories are created
	// (default: current working directory)
	DownloadRoot string `json:"download_root"`
	// MaxConsecutiveFailures is the per-board circuit breaker threshold
	MaxConsecutiveFailures int `json:"max_consecutive_failures"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:                "https://www.soundboard.com",
		Timeout:                30 * time.Second,
		RequestDelay:           500 * time.Millisecond,
		MinViews:               10,
		MinSounds:              3,
		MaxBoards:              20,
		DownloadRoot:           ".",
		MaxConsecutiveFailures: 2,
	}
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Override with environment variables
	cfg.loadFromEnv()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from snag.json in current directory or home directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"snag.json",
		filepath.Join(os.Getenv("HOME"), ".config", "snag", "snag.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("SNAG_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("SNAG_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("SNAG_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v := os.Getenv("SNAG_REQUEST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestDelay = d
		}
	}
	if v := os.Getenv("SNAG_MIN_VIEWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MinViews = n
		}
	}
	if v := os.Getenv("SNAG_MIN_SOUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MinSounds = n
		}
	}
	if v := os.Getenv("SNAG_MAX_BOARDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxBoards = n
		}
	}
	if v := os.Getenv("SNAG_DOWNLOAD_ROOT"); v != "" {
		c.DownloadRoot = v
	}
	if v := os.Getenv("SNAG_MAX_CONSECUTIVE_FAILURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConsecutiveFailures = n
		}
	}
}

// Validate checks that configuration values are valid and consistent.
// It returns an error if any configuration value is invalid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request_delay must be non-negative")
	}
	if c.MinViews < 0 {
		return fmt.Errorf("min_views must be non-negative")
	}
	if c.MinSounds < 0 {
		return fmt.Errorf("min_sounds must be non-negative")
	}
	if c.MaxBoards <= 0 {
		return fmt.Errorf("max_boards must be positive")
	}
	if c.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("max_consecutive_failures must be positive")
	}
	return nil
}
