// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quarry-build/quarry/lib/catalog"
	"github.com/quarry-build/quarry/lib/runtimearg"
)

// Config is the master configuration for Quarry's worker subsystem.
type Config struct {
	// Paths configures directory and file locations.
	Paths PathsConfig `yaml:"paths"`

	// Workers configures worker lifecycle and classification policy.
	Workers WorkersConfig `yaml:"workers"`
}

// PathsConfig configures directory and file locations.
type PathsConfig struct {
	// Root is the base directory for Quarry data.
	Root string `yaml:"root"`

	// State is where runtime state is stored.
	State string `yaml:"state"`

	// Registry is the worker registry file.
	Registry string `yaml:"registry"`
}

// WorkersConfig configures worker lifecycle and classification policy.
type WorkersConfig struct {
	// IdleTimeout is how long a worker may sit idle before it is
	// expired, as a Go duration string. Default: 3h.
	IdleTimeout string `yaml:"idle_timeout"`

	// MaxWorkers caps the number of live workers. Zero means no cap.
	MaxWorkers int `yaml:"max_workers"`

	// CatalogFiles are additional default-catalog files layered over
	// the built-in catalog, in order.
	CatalogFiles []string `yaml:"catalog_files"`

	// ImmutablePropertyKeys extends the startup-fixed property table.
	// Keys listed here classify as immutable, so requests demanding
	// them trigger exact-set matching.
	ImmutablePropertyKeys []string `yaml:"immutable_property_keys"`
}

// Default returns the default configuration. These defaults ensure all
// fields have sensible zero-values before the config file is loaded.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "quarry")

	return &Config{
		Paths: PathsConfig{
			Root:     defaultRoot,
			State:    filepath.Join(defaultRoot, "state"),
			Registry: filepath.Join(defaultRoot, "state", "workers.cbor"),
		},
		Workers: WorkersConfig{
			IdleTimeout: "3h",
		},
	}
}

// Load loads configuration from the QUARRY_CONFIG environment
// variable. There are no fallbacks — if QUARRY_CONFIG is not set, this
// fails.
func Load() (*Config, error) {
	configPath := os.Getenv("QUARRY_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("QUARRY_CONFIG environment variable not set; " +
			"set it to the path of your quarry.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override config values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"QUARRY_ROOT": c.Paths.Root,
		"HOME":        os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["QUARRY_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Paths.Registry = expandVars(c.Paths.Registry, vars)
	for i, path := range c.Workers.CatalogFiles {
		c.Workers.CatalogFiles[i] = expandVars(path, vars)
	}
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

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Registry == "" {
		errs = append(errs, fmt.Errorf("paths.registry is required"))
	}
	if _, err := c.IdleTimeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers.MaxWorkers < 0 {
		errs = append(errs, fmt.Errorf("workers.max_workers must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// IdleTimeout parses the configured idle timeout.
func (c *Config) IdleTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Workers.IdleTimeout)
	if err != nil {
		return 0, fmt.Errorf("workers.idle_timeout: %w", err)
	}
	return timeout, nil
}

// Table returns the startup-fixed property table in effect: the
// default table extended with the configured keys.
func (c *Config) Table() runtimearg.Table {
	return runtimearg.DefaultTable().With(c.Workers.ImmutablePropertyKeys...)
}

// Catalog returns the default catalog in effect: the built-in catalog
// with the configured catalog files merged over it, all validated
// against table.
func (c *Config) Catalog(table runtimearg.Table) (*catalog.Catalog, error) {
	merged, err := catalog.Builtin(table)
	if err != nil {
		return nil, err
	}
	for _, path := range c.Workers.CatalogFiles {
		overlay, err := catalog.LoadFile(path, table)
		if err != nil {
			return nil, err
		}
		merged.Merge(overlay)
	}
	return merged, nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.State} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
