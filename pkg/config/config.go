// SPDX-License-Identifier: AGPL-3.0-or-later

/*

Content Release Store - a versioned, multi-tenant repository of named JSON
documents grouped into immutable-once-published releases.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package config defines the configuration schema for the release store
// server and CLI, and helpers for loading and validating config files.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	// Import the raw SQL migration engine to ensure it registers itself.
	_ "github.com/contentrelease/store/internal/providers/migration/raw"

	"github.com/contentrelease/store/pkg/migrations"
)

// ErrConfigNotFound is returned when the config file does not exist at the given path.
var ErrConfigNotFound = errors.New("release-store config not found")

// Config represents the top-level configuration for a release store
// deployment.
type Config struct {
	Project    ProjectConfig         `yaml:"project"`
	Sites      map[string]SiteConfig `yaml:"sites,omitempty"`
	Store      *StoreConfig          `yaml:"store,omitempty"`
	Dispatch   *DispatchConfig       `yaml:"dispatch,omitempty"`
	Migrations *MigrationsRootConfig `yaml:"migrations,omitempty"`
}

// ProjectConfig describes project-level settings.
type ProjectConfig struct {
	Name string `yaml:"name"`
}

// SiteConfig describes a tenant known to this deployment. Site codes are
// referenced throughout the release package; this section exists so a
// config file can enumerate the set of sites it expects to serve.
type SiteConfig struct {
	Code string `yaml:"code"`
}

// StoreConfig describes how to reach the Postgres-backed Store.
type StoreConfig struct {
	// ConnectionEnv names the environment variable holding the Postgres
	// DSN (e.g. "DATABASE_URL"), rather than embedding credentials in the
	// config file itself.
	ConnectionEnv string `yaml:"connection_env"`
}

// DispatchConfig selects the default rendering Mode for the Dispatcher.
type DispatchConfig struct {
	Mode string `yaml:"mode"` // "native" or "json"
}

// DefaultConfigPath returns the default config path for the current working directory.
func DefaultConfigPath() string {
	return "release-store.yml"
}

// Exists reports whether a config file exists at the given path.
// It returns (false, nil) if the file does not exist.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// Load reads and validates the config from the given path.
//
// It returns ErrConfigNotFound if the file does not exist.
func Load(path string) (*Config, error) {
	exists, err := Exists(path)
	if err != nil {
		return nil, fmt.Errorf("checking config existence: %w", err)
	}

	if !exists {
		return nil, ErrConfigNotFound
	}

	// nolint:gosec // G304: reading config file from user-specified path is expected behavior
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Project.Name == "" {
		return errors.New("config: project.name must be non-empty")
	}

	for code, site := range cfg.Sites {
		if code == "" {
			return errors.New("config: site key must be non-empty")
		}
		if site.Code != "" && site.Code != code {
			return fmt.Errorf("config: sites.%s.code (%q) must match its key or be empty", code, site.Code)
		}
	}

	if cfg.Store != nil && cfg.Store.ConnectionEnv == "" {
		return errors.New("config: store.connection_env is required when store is present")
	}

	if cfg.Dispatch != nil {
		switch cfg.Dispatch.Mode {
		case "native", "json":
		default:
			return fmt.Errorf("config: dispatch.mode must be one of: native, json (got %q)", cfg.Dispatch.Mode)
		}
	}

	if cfg.Migrations != nil {
		if err := validateMigrations(cfg.Migrations); err != nil {
			return err
		}
		if cfg.Migrations.DefaultEngine != "" && !migrations.Has(cfg.Migrations.DefaultEngine) {
			return fmt.Errorf(
				"unknown migration engine %q; available engines: %v",
				cfg.Migrations.DefaultEngine,
				migrations.DefaultRegistry.IDs(),
			)
		}
	}

	return nil
}
