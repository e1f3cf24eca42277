// SPDX-License-Identifier: AGPL-3.0-or-later

/*

Content Release Store - a versioned, multi-tenant repository of named JSON
documents grouped into immutable-once-published releases.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package raw provides a migration engine that applies plain SQL files
// from a directory, in lexicographic filename order, tracking which ones
// have already run in a dedicated Postgres table.
package raw

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/contentrelease/store/pkg/migrations"
)

// Engine applies .sql files found under Dir, in filename order, recording
// applied IDs in a tracking table on the database reached through
// ConnectionEnv. A zero-value Engine is registered under init() purely so
// config validation can confirm the name "raw" is known; constructing a
// usable Engine for Plan/Apply requires New.
type Engine struct {
	dir           string
	connectionEnv string
}

// New constructs an Engine that reads SQL files from dir and connects
// using the DSN found in the connectionEnv environment variable.
func New(dir, connectionEnv string) *Engine {
	return &Engine{dir: dir, connectionEnv: connectionEnv}
}

var (
	_ migrations.Engine           = (*Engine)(nil)
	_ migrations.ValidatingEngine = (*Engine)(nil)
)

// Name returns the engine identifier.
func (e *Engine) Name() string { return "raw" }

const trackingTable = "release_store_migrations"

// List returns every .sql file under Dir, sorted lexicographically,
// filtered by req.Selection.
func (e *Engine) List(_ context.Context, req *migrations.MigrationRequest) ([]migrations.Migration, error) {
	if e.dir == "" {
		return nil, &migrations.MigrationError{Kind: migrations.ErrInvalidConfig, Message: "raw engine: directory is not configured"}
	}

	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return nil, &migrations.MigrationError{Kind: migrations.ErrInvalidConfig, Message: "reading migration directory", Cause: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var out []migrations.Migration
	for _, name := range names {
		id := migrations.MigrationID(name)
		if !selected(req.Selection, id) {
			continue
		}
		out = append(out, migrations.Migration{
			ID:          id,
			Description: fmt.Sprintf("SQL migration: %s", name),
			Source:      "sql:" + e.dir,
		})
	}
	return out, nil
}

func selected(sel migrations.Selection, id migrations.MigrationID) bool {
	if sel.All || (len(sel.IDs) == 0 && len(sel.Tags) == 0) {
		return true
	}
	for _, want := range sel.IDs {
		if want == id {
			return true
		}
	}
	return false
}

// Plan reports, for each candidate migration, whether it has already
// been applied, without mutating the target database. A missing tracking
// table means no migration has been applied yet.
func (e *Engine) Plan(ctx context.Context, req *migrations.MigrationRequest) (migrations.MigrationPlan, error) {
	candidates, err := e.List(ctx, req)
	if err != nil {
		return migrations.MigrationPlan{}, err
	}

	db, err := e.open(ctx)
	if err != nil {
		return migrations.MigrationPlan{}, err
	}
	defer func() { _ = db.Close() }()

	var tracked bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", trackingTable).Scan(&tracked); err != nil {
		return migrations.MigrationPlan{}, &migrations.MigrationError{Kind: migrations.ErrConnectionFailed, Message: "checking tracking table", Cause: err}
	}

	plan := migrations.MigrationPlan{Engine: e.Name(), Environment: req.Environment}
	for _, m := range candidates {
		applied := false
		if tracked {
			applied, err = e.isApplied(ctx, db, m.ID)
			if err != nil {
				return migrations.MigrationPlan{}, &migrations.MigrationError{Kind: migrations.ErrConnectionFailed, Message: "checking migration status", Cause: err, StepID: m.ID}
			}
		}
		step := migrations.MigrationStepResult{ID: m.ID}
		if applied {
			step.Outcome = migrations.OutcomeSkipped
			step.Message = "already applied"
			plan.Summary.WouldSkip++
		} else {
			step.Outcome = migrations.OutcomeApplied
			plan.Summary.WouldApply++
		}
		plan.Steps = append(plan.Steps, step)
		plan.Summary.Total++
	}
	return plan, nil
}

// Apply executes every not-yet-applied candidate migration, each in its
// own transaction, recording it in the tracking table on success.
// FailFast stops at the first failure; otherwise Apply continues past a
// failed step and reports it in the result.
func (e *Engine) Apply(ctx context.Context, req *migrations.MigrationRequest) (migrations.MigrationApplyResult, error) {
	if req.DryRun || req.Mode == migrations.ModePlan {
		plan, err := e.Plan(ctx, req)
		if err != nil {
			return migrations.MigrationApplyResult{}, err
		}
		return migrations.MigrationApplyResult{Engine: plan.Engine, Environment: plan.Environment, Steps: plan.Steps, Summary: migrations.ApplySummary{Total: plan.Summary.Total, Skipped: plan.Summary.Total}}, nil
	}

	candidates, err := e.List(ctx, req)
	if err != nil {
		return migrations.MigrationApplyResult{}, err
	}
	if len(candidates) == 0 && !req.AllowNoop {
		return migrations.MigrationApplyResult{}, &migrations.MigrationError{Kind: migrations.ErrMigrationFailed, Message: fmt.Sprintf("no SQL migration files selected in %s", e.dir)}
	}

	db, err := e.open(ctx)
	if err != nil {
		return migrations.MigrationApplyResult{}, err
	}
	defer func() { _ = db.Close() }()

	if err := e.ensureTrackingTable(ctx, db); err != nil {
		return migrations.MigrationApplyResult{}, err
	}

	result := migrations.MigrationApplyResult{Engine: e.Name(), Environment: req.Environment}
	for _, m := range candidates {
		result.Summary.Total++

		applied, err := e.isApplied(ctx, db, m.ID)
		if err != nil {
			return result, &migrations.MigrationError{Kind: migrations.ErrConnectionFailed, Message: "checking migration status", Cause: err, StepID: m.ID}
		}
		if applied {
			result.Steps = append(result.Steps, migrations.MigrationStepResult{ID: m.ID, Outcome: migrations.OutcomeSkipped, Message: "already applied"})
			result.Summary.Skipped++
			continue
		}

		if err := e.applyOne(ctx, db, m.ID); err != nil {
			result.Steps = append(result.Steps, migrations.MigrationStepResult{ID: m.ID, Outcome: migrations.OutcomeFailed, Message: err.Error()})
			result.Summary.Failed++
			if req.FailFast {
				return result, &migrations.MigrationError{Kind: migrations.ErrMigrationFailed, Message: "applying migration", Cause: err, StepID: m.ID}
			}
			continue
		}

		result.Steps = append(result.Steps, migrations.MigrationStepResult{ID: m.ID, Outcome: migrations.OutcomeApplied})
		result.Summary.Applied++
	}
	return result, nil
}

// Validate reports whether the engine's directory and connection
// environment variable are usable.
func (e *Engine) Validate(ctx context.Context, req *migrations.MigrationRequest) (migrations.ValidationResult, error) {
	result := migrations.ValidationResult{Engine: e.Name(), Environment: req.Environment, OK: true}

	if e.dir == "" {
		result.OK = false
		result.Message = "directory is not configured"
		return result, nil
	}
	if _, err := os.Stat(e.dir); err != nil {
		result.OK = false
		result.Message = fmt.Sprintf("migration directory does not exist: %s", e.dir)
		return result, nil
	}

	db, err := e.open(ctx)
	if err != nil {
		result.OK = false
		result.Message = err.Error()
		return result, nil
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		result.OK = false
		result.Message = fmt.Sprintf("pinging database: %v", err)
	}
	return result, nil
}

func (e *Engine) open(ctx context.Context) (*sql.DB, error) {
	if e.connectionEnv == "" {
		return nil, &migrations.MigrationError{Kind: migrations.ErrInvalidConfig, Message: "raw engine: connection_env is not configured"}
	}
	dsn := os.Getenv(e.connectionEnv)
	if dsn == "" {
		return nil, &migrations.MigrationError{Kind: migrations.ErrInvalidConfig, Message: fmt.Sprintf("connection environment variable %q is not set", e.connectionEnv)}
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, &migrations.MigrationError{Kind: migrations.ErrConnectionFailed, Message: "opening database", Cause: err}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &migrations.MigrationError{Kind: migrations.ErrConnectionFailed, Message: "pinging database", Cause: err}
	}
	return db, nil
}

func (e *Engine) ensureTrackingTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, trackingTable))
	if err != nil {
		return &migrations.MigrationError{Kind: migrations.ErrConnectionFailed, Message: "ensuring tracking table", Cause: err}
	}
	return nil
}

func (e *Engine) isApplied(ctx context.Context, db *sql.DB, id migrations.MigrationID) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = $1", trackingTable), string(id)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (e *Engine) applyOne(ctx context.Context, db *sql.DB, id migrations.MigrationID) error {
	sqlPath := filepath.Join(e.dir, string(id))
	// nolint:gosec // G304: migration files are read from a controlled directory
	content, err := os.ReadFile(sqlPath)
	if err != nil {
		return fmt.Errorf("reading migration file %s: %w", id, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("executing migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (id, applied_at) VALUES ($1, NOW())", trackingTable), string(id)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("recording migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	return nil
}

func init() {
	migrations.Register(&Engine{})
}
