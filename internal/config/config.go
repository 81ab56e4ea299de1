package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// API configuration
	API APIConfig `mapstructure:"api" json:"api"`

	// Authentication configuration
	Auth AuthConfig `mapstructure:"auth" json:"auth"`

	// Local storage paths
	Storage StorageConfig `mapstructure:"storage" json:"storage"`

	// Logging
	Log LogConfig `mapstructure:"log" json:"log"`
}

// APIConfig for backend communication.
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url" json:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout" json:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" json:"max_retries"`
	UserAgent  string        `mapstructure:"user_agent" json:"user_agent"`
}

// AuthConfig for session settings.
type AuthConfig struct {
	// Account identifier (email); also the key-derivation account input.
	Email string `mapstructure:"email" json:"email,omitempty"`

	// Token persistence path.
	TokenFile string `mapstructure:"token_file" json:"token_file"`
}

// StorageConfig for local non-secret bookkeeping. Decrypted vault content
// never touches disk; only account metadata lives here.
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir" json:"data_dir"`
	AccountsDB string `mapstructure:"accounts_db" json:"accounts_db"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" json:"format"` // text, json
	File   string `mapstructure:"file" json:"file"`     // empty = stderr
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".seedvault"

	return &Config{
		API: APIConfig{
			BaseURL:    "https://api.seedvault.dev",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			UserAgent:  "seedvault-cli",
		},
		Auth: AuthConfig{
			TokenFile: filepath.Join(dataDir, "token.json"),
		},
		Storage: StorageConfig{
			DataDir:    dataDir,
			AccountsDB: filepath.Join(dataDir, "accounts.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %v", c.API.Timeout)
	}

	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries cannot be negative, got %d", c.API.MaxRetries)
	}

	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}
