// Package config provides YAML-based configuration loading for the worker
// daemon.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the worker daemon configuration.
type Config struct {
	// Name is the worker object name advertised in the endpoint URI.
	Name string `mapstructure:"name"`

	// Host and Port form the TCP listen address.
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Log holds logging configuration.
	Log LogConfig `mapstructure:"log"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files.
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options.
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults: the well-known
// local worker endpoint and console logging to stdout.
func Default() *Config {
	return &Config{
		Name: "worker",
		Host: "localhost",
		Port: 21000,
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
		},
	}
}

// Load reads the config file at path, layered over defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("name", cfg.Name)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the listen address and worker name.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config: worker name must not be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("config: host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: bad port %d", c.Port)
	}
	return nil
}

// ListenAddr returns the TCP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// URI returns the endpoint URI clients dial to reach this daemon.
func (c *Config) URI() string {
	return fmt.Sprintf("grpc:%s@%s:%d", c.Name, c.Host, c.Port)
}
