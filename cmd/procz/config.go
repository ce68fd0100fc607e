package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/zoobzio/procz"
)

// Config is the application configuration. Every field has a usable
// default, so running without a config file behaves sensibly.
type Config struct {
	Processing ProcessingConfig `mapstructure:"processing"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Input      InputConfig      `mapstructure:"input"`
}

// ProcessingConfig controls the executor invocation.
type ProcessingConfig struct {
	Validate  bool    `mapstructure:"validate"`
	Transform bool    `mapstructure:"transform"`
	Timeout   float64 `mapstructure:"timeout"` // seconds
}

// LoggingConfig controls the zap sink.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// InputConfig supplies data when none is given on the command line.
type InputConfig struct {
	DefaultData any `mapstructure:"default_data"`
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("processing.validate", true)
	v.SetDefault("processing.transform", true)
	v.SetDefault("processing.timeout", 5.0)

	v.SetDefault("logging.level", "info")

	v.SetDefault("input.default_data", map[string]any{"sample": "data"})
}

// loadConfig loads configuration from the given file, or defaults when the
// path is empty.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Options translates the processing section into executor options.
func (c *Config) Options() procz.Options {
	return procz.Options{
		Validate:  c.Processing.Validate,
		Transform: c.Processing.Transform,
		Timeout:   time.Duration(c.Processing.Timeout * float64(time.Second)),
	}
}
