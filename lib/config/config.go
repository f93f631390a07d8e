// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable [Load] reads.
const EnvironmentVariable = "STRATA_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local analysis machines.
	Development Environment = "development"
	// Production is for unattended deployments.
	Production Environment = "production"
)

// Config is the master configuration for strata.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Resolver configures the path-spec resolver and its backends.
	Resolver ResolverConfig `yaml:"resolver"`

	// SQLite configures SQLITE_BLOB databases.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Logging configures the command logger.
	Logging LoggingConfig `yaml:"logging"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Resolver *ResolverConfig `yaml:"resolver,omitempty"`
	SQLite   *SQLiteConfig   `yaml:"sqlite,omitempty"`
	Logging  *LoggingConfig  `yaml:"logging,omitempty"`
}

// ResolverConfig configures the resolver.
type ResolverConfig struct {
	// TempDir is where backends extract scratch files (SQLite
	// databases copied out of lower layers).
	// Default: ${TMPDIR:-/tmp}
	TempDir string `yaml:"temp_dir"`

	// MaxBufferSize caps the bytes a backend may hold in memory for
	// one decompressed or decrypted stream.
	// Default: 268435456 (256 MiB)
	MaxBufferSize int64 `yaml:"max_buffer_size"`

	// Metrics enables Prometheus cache metrics.
	// Default: false
	Metrics bool `yaml:"metrics"`
}

// SQLiteConfig configures SQLITE_BLOB databases.
type SQLiteConfig struct {
	// PoolSize is the connection pool size per open database.
	// Default: 2
	PoolSize int `yaml:"pool_size"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: warn (development), info (production)
	Level string `yaml:"level"`
}

// Default returns the default configuration. It is the base a config
// file is merged into.
func Default() *Config {
	return &Config{
		Environment: Development,
		Resolver: ResolverConfig{
			TempDir:       "${TMPDIR:-/tmp}",
			MaxBufferSize: 256 << 20,
		},
		SQLite:  SQLiteConfig{PoolSize: 2},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// Load loads configuration from the STRATA_CONFIG environment variable.
// It fails if the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your strata.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// Resolve loads path when it is set, then STRATA_CONFIG when that is
// set, and otherwise returns the expanded defaults.
func Resolve(path string) (*Config, error) {
	switch {
	case path != "":
		return LoadFile(path)
	case os.Getenv(EnvironmentVariable) != "":
		return Load()
	default:
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
}

// LoadFile loads configuration from a specific file path, applies the
// environment's overrides, and expands path variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		// Production defaults: less memory per stream, more logging.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Resolver: &ResolverConfig{MaxBufferSize: 64 << 20},
				Logging:  &LoggingConfig{Level: "info"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Resolver != nil {
		if overrides.Resolver.TempDir != "" {
			c.Resolver.TempDir = overrides.Resolver.TempDir
		}
		if overrides.Resolver.MaxBufferSize != 0 {
			c.Resolver.MaxBufferSize = overrides.Resolver.MaxBufferSize
		}
		// Metrics is a bool, so we always apply it from overrides.
		c.Resolver.Metrics = overrides.Resolver.Metrics
	}

	if overrides.SQLite != nil && overrides.SQLite.PoolSize != 0 {
		c.SQLite.PoolSize = overrides.SQLite.PoolSize
	}

	if overrides.Logging != nil && overrides.Logging.Level != "" {
		c.Logging.Level = overrides.Logging.Level
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":   os.Getenv("HOME"),
		"TMPDIR": os.Getenv("TMPDIR"),
	}
	c.Resolver.TempDir = expandVars(c.Resolver.TempDir, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Resolver.TempDir == "" {
		errs = append(errs, fmt.Errorf("resolver.temp_dir is required"))
	}
	if c.Resolver.MaxBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("resolver.max_buffer_size must be positive, got %d", c.Resolver.MaxBufferSize))
	}
	if c.SQLite.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("sqlite.pool_size must be positive, got %d", c.SQLite.PoolSize))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging.level must be one of: debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

// EnsureTempDir creates the resolver's temp directory if it does not
// exist.
func (c *Config) EnsureTempDir() error {
	if err := os.MkdirAll(c.Resolver.TempDir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", c.Resolver.TempDir, err)
	}
	return nil
}
