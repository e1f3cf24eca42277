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
	"strings"
	"testing"
)

func TestNewMigrateCommand_HasExpectedMetadata(t *testing.T) {
	cmd := NewMigrateCommand()

	if cmd.Use != "migrate" {
		t.Fatalf("expected Use to be 'migrate', got %q", cmd.Use)
	}
	if cmd.Short == "" {
		t.Fatalf("expected Short description to be non-empty")
	}
}

func TestMigrateCommand_ConfigNotFound(t *testing.T) {
	t.Chdir(t.TempDir())

	root := newTestRootCommand()
	root.AddCommand(NewMigrateCommand())

	_, err := executeCommand(root, "migrate")
	if err == nil {
		t.Fatal("expected error when config file is missing")
	}
	if !strings.Contains(err.Error(), "release-store config not found") {
		t.Fatalf("expected config not found error, got: %v", err)
	}
}

func TestMigrateCommand_NoMigrationsConfig(t *testing.T) {
	writeTestConfig(t, "project:\n  name: test-app\nstore:\n  connection_env: DATABASE_URL\n")

	root := newTestRootCommand()
	root.AddCommand(NewMigrateCommand())

	_, err := executeCommand(root, "migrate")
	if err == nil || !strings.Contains(err.Error(), "no migrations section configured") {
		t.Fatalf("expected no migrations config error, got: %v", err)
	}
}

func TestMigrateCommand_MissingStoreConnectionEnv(t *testing.T) {
	writeTestConfig(t, `
project:
  name: test-app
migrations:
  default_engine: raw
  sources:
    raw_sql_dir: internal/store/migrations
`)

	root := newTestRootCommand()
	root.AddCommand(NewMigrateCommand())

	_, err := executeCommand(root, "migrate")
	if err == nil || !strings.Contains(err.Error(), "store.connection_env is required") {
		t.Fatalf("expected store.connection_env required error, got: %v", err)
	}
}

func TestMigrateCommand_MissingRawSQLDir(t *testing.T) {
	writeTestConfig(t, `
project:
  name: test-app
store:
  connection_env: DATABASE_URL
migrations:
  default_engine: raw
`)

	root := newTestRootCommand()
	root.AddCommand(NewMigrateCommand())

	_, err := executeCommand(root, "migrate")
	if err == nil || !strings.Contains(err.Error(), "raw_sql_dir is required") {
		t.Fatalf("expected raw_sql_dir required error, got: %v", err)
	}
}

func TestMigrateCommand_Plan_ListsPendingMigrations(t *testing.T) {
	dir := t.TempDir()
	writeTestConfig(t, "project:\n  name: test-app\nstore:\n  connection_env: DATABASE_URL\nmigrations:\n  default_engine: raw\n  sources:\n    raw_sql_dir: "+dir+"\n")

	root := newTestRootCommand()
	root.AddCommand(NewMigrateCommand())

	out, err := executeCommand(root, "migrate", "--plan")
	if err != nil {
		t.Fatalf("migrate --plan: %v", err)
	}
	if !strings.Contains(out, "Migration plan") {
		t.Fatalf("expected plan output, got: %q", out)
	}
}

func TestMigrateCommand_Help(t *testing.T) {
	root := newTestRootCommand()
	root.AddCommand(NewMigrateCommand())

	out, err := executeCommand(root, "migrate", "--help")
	if err != nil {
		t.Fatalf("help command should not error, got: %v", err)
	}
	if !strings.Contains(out, "migrate") {
		t.Fatalf("expected help text, got: %q", out)
	}
}
