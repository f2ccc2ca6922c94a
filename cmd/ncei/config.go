package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/nceiaccess/nceiaccess/pkg/ncei"
)

// Config is the TOML configuration for the CLI. Every field can be
// overridden by a flag.
type Config struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	LogLevel       string `toml:"log_level"`
	VerifyNearest  bool   `toml:"verify_nearest"`
}

func defaultConfig() Config {
	return Config{
		BaseURL:        ncei.DefaultBaseURL,
		TimeoutSeconds: 10,
		LogLevel:       "info",
	}
}

// loadConfig reads a TOML config file. A missing file is only an error when
// the path was supplied explicitly; the default location is optional.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ncei.DefaultBaseURL
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ncei.toml"
	}
	return filepath.Join(home, ".config", "ncei", "config.toml")
}
