// Package config loads and validates the application's runtime
// configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/Chrisie146/reconex/internal/common"
)

// Config holds the runtime configuration for the reconex server.
type Config struct {
	DatabasePath   string
	ListenAddr     string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
}

// Load builds the configuration from viper's merged sources (config file,
// environment, flags).
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:   ExpandPath(viper.GetString("database.path")),
		ListenAddr:     viper.GetString("server.listen"),
		AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
		LogLevel:       viper.GetString("logging.level"),
		LogFormat:      viper.GetString("logging.format"),
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8111"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:1234"}
	}

	return cfg, nil
}

// SlogLevel parses the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
