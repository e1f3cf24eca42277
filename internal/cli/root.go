// SPDX-License-Identifier: AGPL-3.0-or-later

/*

Content Release Store - a versioned, multi-tenant repository of named JSON
documents grouped into immutable-once-published releases.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package cli wires together the release-store root Cobra command and
// global CLI options.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contentrelease/store/internal/cli/commands"
)

// NewRootCommand constructs the release-store root Cobra command, wiring
// the releases, documents, compare, and migrate subcommands.
func NewRootCommand() *cobra.Command {
	version := os.Getenv("RELEASE_STORE_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "release-store",
		Short:         "release-store – versioned, multi-tenant content release CLI",
		Long:          "release-store manages named JSON documents grouped into immutable-once-published releases across sites.",
		SilenceUsage:  true, // don't dump usage on user errors
		SilenceErrors: true, // centralize error printing in main()
	}

	// Global flags - registered in lexicographic order for deterministic help output
	cmd.PersistentFlags().StringP("config", "c", "", "path to release-store.yml")
	cmd.PersistentFlags().Bool("dry-run", false, "show actions without executing")
	cmd.PersistentFlags().String("mode", "", "dispatcher render mode: native or json")
	cmd.PersistentFlags().String("site", "", "target site code")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	// Version command – simple and explicit.
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of release-store",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "release-store version %s\n", version)
		},
	})

	// Subcommands - keep registrations in lexicographic order by .Use
	// to ensure deterministic help output.
	cmd.AddCommand(commands.NewCompareCommand())
	cmd.AddCommand(commands.NewDocumentsCommand())
	cmd.AddCommand(commands.NewMigrateCommand())
	cmd.AddCommand(commands.NewReleasesCommand())

	return cmd
}
