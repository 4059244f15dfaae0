// Package config provides configuration management for relmap.
//
// Config file locations (priority order):
//  1. $RELMAP_CONFIG
//  2. ./relmap.yaml
//  3. $XDG_CONFIG_HOME/relmap/config.yaml
//  4. ~/.config/relmap/config.yaml
//  5. /etc/relmap/config.yaml
//
// Values from the file are overridden by RELMAP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate
var ErrInvalid = errors.New("invalid config")

const memoryPath = ":memory:"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides apply in both cases.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.applyEnv(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	// Keys absent from the file keep their default values
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the settings the demos run with out of the box
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Log:     LogConfig{Level: "info", Format: "console"},
		Database: DatabaseConfig{
			ForeignKeys:      true,
			SharedConnection: true,
			Fresh:            true,
		},
		Ownership: OwnershipConfig{Database: "db1.sqlite"},
		Tree:      TreeConfig{Database: "db2.sqlite"},
	}
}

// applyDefaults fills in values an explicit empty key cleared
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Version == 0 {
		c.Version = def.Version
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Ownership.Database == "" {
		c.Ownership.Database = def.Ownership.Database
	}
	if c.Tree.Database == "" {
		c.Tree.Database = def.Tree.Database
	}
}

func (c *Config) applyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

// Validate checks field values and that the two flows use distinct files
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
	}

	if c.Ownership.Database == c.Tree.Database && c.Ownership.Database != memoryPath {
		return fmt.Errorf("%w: ownership and tree share database %s", ErrInvalid, c.Ownership.Database)
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	return fmt.Sprintf("ownership=%s tree=%s foreign_keys=%t shared_connection=%t fresh=%t log=%s/%s",
		c.Ownership.Database, c.Tree.Database,
		c.Database.ForeignKeys, c.Database.SharedConnection, c.Database.Fresh,
		c.Log.Level, c.Log.Format)
}
