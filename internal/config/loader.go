package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader reads configuration from file and environment.
type Loader struct {
	configPath string
}

// NewLoader creates a config loader. An empty configPath falls back to the
// default locations.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load merges defaults, the config file (if any), and SEEDVAULT_ environment
// overrides, then validates the result.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("api.base_url", defaults.API.BaseURL)
	v.SetDefault("api.timeout", defaults.API.Timeout)
	v.SetDefault("api.max_retries", defaults.API.MaxRetries)
	v.SetDefault("api.user_agent", defaults.API.UserAgent)
	v.SetDefault("auth.email", defaults.Auth.Email)
	v.SetDefault("auth.token_file", defaults.Auth.TokenFile)
	v.SetDefault("storage.data_dir", defaults.Storage.DataDir)
	v.SetDefault("storage.accounts_db", defaults.Storage.AccountsDB)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.file", defaults.Log.File)

	v.SetEnvPrefix("SEEDVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", l.configPath, err)
		}
	} else {
		v.SetConfigName("seedvault")
		v.SetConfigType("json")
		for _, dir := range defaultDirs() {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			// No file found; defaults + env only.
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// defaultDirs returns default config file search directories.
func defaultDirs() []string {
	dirs := []string{"."}

	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(homeDir, ".config", "seedvault"),
			filepath.Join(homeDir, ".seedvault"),
		)
	}

	return dirs
}
