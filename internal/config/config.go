// Package config loads remiod configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ehrlich-b/go-remio/internal/constants"
)

// Config is the top-level remiod configuration.
type Config struct {
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Log        LogConfig        `yaml:"log"`
	Debug      DebugConfig      `yaml:"debug"`
}

// DispatcherConfig bounds the dispatch engine.
type DispatcherConfig struct {
	// MaxDomains is the exclusive upper bound on valid domain ids.
	MaxDomains int `yaml:"max_domains"`
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// DebugConfig configures the debug HTTP endpoint.
type DebugConfig struct {
	// Addr is the listen address; empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Dispatcher: DispatcherConfig{
			MaxDomains: constants.DefaultMaxDomains,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Debug: DebugConfig{
			Addr: constants.DefaultDebugAddr,
		},
	}
}

// Load reads and validates a YAML config file. Fields left unset keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Dispatcher.MaxDomains <= 0 {
		return fmt.Errorf("dispatcher.max_domains must be positive, got %d", c.Dispatcher.MaxDomains)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format %q is not json or text", c.Log.Format)
	}
	return nil
}
