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

	"github.com/spf13/cobra"

	"github.com/contentrelease/store/internal/providers/migration/raw"
	"github.com/contentrelease/store/pkg/config"
	"github.com/contentrelease/store/pkg/logging"
	"github.com/contentrelease/store/pkg/migrations"
)

// NewMigrateCommand returns the `migrate` command, which applies the
// schema migrations under migrations.sources.raw_sql_dir to the database
// named by store.connection_env.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long:  "Loads the release-store config, resolves the configured migration engine, and applies pending migrations",
		RunE:  runMigrate,
	}

	cmd.Flags().Bool("plan", false, "show the migration plan without applying")
	cmd.Flags().String("environment", "", "named override section under migrations.env to apply")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	flags, err := ResolveFlags(cmd, nil)
	if err != nil {
		return fmt.Errorf("resolving flags: %w", err)
	}

	cfg, err := config.Load(flags.Config)
	if err != nil {
		if err == config.ErrConfigNotFound {
			return fmt.Errorf("release-store config not found at %s", flags.Config)
		}
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Migrations == nil {
		return fmt.Errorf("config has no migrations section configured")
	}
	if cfg.Store == nil || cfg.Store.ConnectionEnv == "" {
		return fmt.Errorf("config: store.connection_env is required to run migrations")
	}

	engineName := cfg.Migrations.DefaultEngine
	environment, _ := cmd.Flags().GetString("environment")
	if environment != "" {
		if ov, ok := cfg.Migrations.Env[environment]; ok && ov.DefaultEngine != nil {
			engineName = *ov.DefaultEngine
		}
	}

	dir, err := migrationDir(cfg, environment)
	if err != nil {
		return err
	}

	if engineName != "raw" {
		return fmt.Errorf("unsupported migration engine %q; this build only wires the %q engine", engineName, "raw")
	}
	if !migrations.Has(engineName) {
		return fmt.Errorf("unknown migration engine %q; available engines: %v", engineName, migrations.DefaultRegistry.IDs())
	}

	engine := raw.New(dir, cfg.Store.ConnectionEnv)
	logger := logging.NewLogger(flags.Verbose)
	logger.Info("running migrations", logging.NewField("engine", engineName), logging.NewField("dir", dir))

	req := &migrations.MigrationRequest{
		Environment: environment,
		Mode:        migrations.ModeApply,
		Selection:   migrations.Selection{All: true},
		AllowNoop:   true,
	}

	planOnly, _ := cmd.Flags().GetBool("plan")
	if flags.DryRun {
		planOnly = true
	}

	out := cmd.OutOrStdout()

	if planOnly {
		plan, err := engine.Plan(ctx, req)
		if err != nil {
			return fmt.Errorf("planning migrations: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Migration plan (%d total, %d pending, %d applied):\n", plan.Summary.Total, plan.Summary.WouldApply, plan.Summary.WouldSkip)
		for _, step := range plan.Steps {
			_, _ = fmt.Fprintf(out, "  - %s [%s]\n", step.ID, step.Outcome)
		}
		return nil
	}

	result, err := engine.Apply(ctx, req)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Applied %d migration(s), skipped %d, failed %d\n", result.Summary.Applied, result.Summary.Skipped, result.Summary.Failed)
	for _, step := range result.Steps {
		if step.Outcome == migrations.OutcomeFailed {
			_, _ = fmt.Fprintf(out, "  - %s FAILED: %s\n", step.ID, step.Message)
		}
	}
	if result.Summary.Failed > 0 {
		return fmt.Errorf("%d migration(s) failed", result.Summary.Failed)
	}
	return nil
}

func migrationDir(cfg *config.Config, environment string) (string, error) {
	sources := cfg.Migrations.Sources
	if environment != "" {
		if ov, ok := cfg.Migrations.Env[environment]; ok && ov.Sources != nil {
			sources = ov.Sources
		}
	}
	if sources == nil || sources.RawSQLDir == "" {
		return "", fmt.Errorf("config: migrations.sources.raw_sql_dir is required")
	}
	return sources.RawSQLDir, nil
}
