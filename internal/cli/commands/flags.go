// SPDX-License-Identifier: AGPL-3.0-or-later

/*

Content Release Store - a versioned, multi-tenant repository of named JSON
documents grouped into immutable-once-published releases.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/contentrelease/store/pkg/config"
)

// ResolvedFlags contains the resolved values for all global flags.
type ResolvedFlags struct {
	Site    string
	Config  string
	Mode    string
	Verbose bool
	DryRun  bool
}

// ResolveFlags resolves global flags with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Config file defaults
// 4. Built-in defaults (lowest priority)
func ResolveFlags(cmd *cobra.Command, cfg *config.Config) (*ResolvedFlags, error) {
	flags := &ResolvedFlags{}

	siteFlag, _ := cmd.Flags().GetString("site")
	siteEnv := os.Getenv("RELEASE_STORE_SITE")
	flags.Site = resolveString(siteFlag, siteEnv, "")

	if cfg != nil && flags.Site != "" && len(cfg.Sites) > 0 {
		if _, exists := cfg.Sites[flags.Site]; !exists {
			available := make([]string, 0, len(cfg.Sites))
			for name := range cfg.Sites {
				available = append(available, name)
			}
			return nil, fmt.Errorf("invalid site %q; available sites: %v", flags.Site, available)
		}
	}

	configFlag, _ := cmd.Flags().GetString("config")
	configEnv := os.Getenv("RELEASE_STORE_CONFIG")
	flags.Config = resolveString(configFlag, configEnv, config.DefaultConfigPath())

	modeFlag, _ := cmd.Flags().GetString("mode")
	modeEnv := os.Getenv("RELEASE_STORE_MODE")
	modeDefault := "native"
	if cfg != nil && cfg.Dispatch != nil && cfg.Dispatch.Mode != "" {
		modeDefault = cfg.Dispatch.Mode
	}
	flags.Mode = resolveString(modeFlag, modeEnv, modeDefault)

	verboseFlag, _ := cmd.Flags().GetBool("verbose")
	verboseEnv := parseBoolEnv(os.Getenv("RELEASE_STORE_VERBOSE"))
	flags.Verbose = resolveBool(verboseFlag, verboseEnv, false)

	dryRunFlag, _ := cmd.Flags().GetBool("dry-run")
	dryRunEnv := parseBoolEnv(os.Getenv("RELEASE_STORE_DRY_RUN"))
	flags.DryRun = resolveBool(dryRunFlag, dryRunEnv, false)

	return flags, nil
}

// resolveString resolves a string value with precedence: flag > env > default.
func resolveString(flag, env, defaultValue string) string {
	if flag != "" {
		return flag
	}
	if env != "" {
		return env
	}
	return defaultValue
}

// resolveBool resolves a boolean value with precedence: flag > env > default.
func resolveBool(flag, env, defaultValue bool) bool {
	if flag {
		return true
	}
	if env {
		return true
	}
	return defaultValue
}

// parseBoolEnv parses a boolean from an environment variable.
// Returns false if the env var is not set or cannot be parsed.
func parseBoolEnv(value string) bool {
	if value == "" {
		return false
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return parsed
}
