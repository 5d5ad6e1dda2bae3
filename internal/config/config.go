// Package config loads CLI settings from lambda.yaml and LAMBDA_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// FileName is the config file base name searched in the working directory.
const FileName = "lambda"

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "LAMBDA"

// Config holds the settings shared by every subcommand.
type Config struct {
	MaxDepth    int      `mapstructure:"max_depth"`
	SearchPaths []string `mapstructure:"search_paths"`
	HistoryFile string   `mapstructure:"history_file"`
	Color       bool     `mapstructure:"color"`
	LogLevel    string   `mapstructure:"log_level"`
}

// Load reads the configuration. An empty path searches for lambda.yaml in
// the working directory and falls back to defaults when none exists; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("max_depth", 1000)
	v.SetDefault("search_paths", []string{"."})
	v.SetDefault("history_file", defaultHistoryFile())
	v.SetDefault("color", true)
	v.SetDefault("log_level", "warn")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level returns the zap level named by LogLevel.
func (c *Config) Level() zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return zapcore.WarnLevel
	}
	return lvl
}

func validate(cfg *Config) error {
	if cfg.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got: %d", cfg.MaxDepth)
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("log_level %q is not a valid level", cfg.LogLevel)
	}
	if len(cfg.SearchPaths) == 0 {
		cfg.SearchPaths = []string{"."}
	}
	return nil
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lambda_history"
	}
	return filepath.Join(home, ".lambda_history")
}
