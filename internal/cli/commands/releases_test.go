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

func TestNewReleasesCommand_HasExpectedMetadata(t *testing.T) {
	cmd := NewReleasesCommand()

	if cmd.Use != "releases" {
		t.Fatalf("expected Use to be 'releases', got %q", cmd.Use)
	}
	if cmd.Short == "" {
		t.Fatalf("expected Short description to be non-empty")
	}

	subcommandNames := make(map[string]bool)
	for _, subcmd := range cmd.Commands() {
		name := strings.Fields(subcmd.Use)[0]
		subcommandNames[name] = true
	}

	for _, want := range []string{"add", "list", "show", "set-live", "freeze", "unfreeze", "archive", "unarchive"} {
		if !subcommandNames[want] {
			t.Fatalf("expected %q subcommand to exist, got %v", want, subcommandNames)
		}
	}
}

func TestReleasesAdd_RequiresSite(t *testing.T) {
	useTestDispatcher(t)
	writeTestConfig(t, "project:\n  name: test\n")

	root := newTestRootCommand()
	root.AddCommand(NewReleasesCommand())

	_, err := executeCommand(root, "releases", "add", "homepage", "0.0.1")
	if err == nil || !strings.Contains(err.Error(), "--site is required") {
		t.Fatalf("expected --site required error, got: %v", err)
	}
}

func TestReleasesAdd_CreatesPreviewRelease(t *testing.T) {
	useTestDispatcher(t)
	writeTestConfig(t, "project:\n  name: test\n")

	root := newTestRootCommand()
	root.AddCommand(NewReleasesCommand())

	out, err := executeCommand(root, "releases", "--site", "site1", "add", "homepage", "0.0.1")
	if err != nil {
		t.Fatalf("releases add: %v", err)
	}
	if !strings.Contains(out, "homepage") || !strings.Contains(out, "PREVIEW") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestReleasesAdd_DuplicateTitleVersionFails(t *testing.T) {
	useTestDispatcher(t)
	writeTestConfig(t, "project:\n  name: test\n")

	root := newTestRootCommand()
	root.AddCommand(NewReleasesCommand())

	if _, err := executeCommand(root, "releases", "--site", "site1", "add", "homepage", "0.0.1"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := executeCommand(root, "releases", "--site", "site1", "add", "homepage", "0.0.1")
	if err == nil || !strings.Contains(err.Error(), "content_release_already_exists") {
		t.Fatalf("expected content_release_already_exists error, got: %v", err)
	}
}

func TestReleasesList_EmptySite(t *testing.T) {
	useTestDispatcher(t)
	writeTestConfig(t, "project:\n  name: test\n")

	root := newTestRootCommand()
	root.AddCommand(NewReleasesCommand())

	out, err := executeCommand(root, "releases", "--site", "site1", "list")
	if err != nil {
		t.Fatalf("releases list: %v", err)
	}
	if !strings.Contains(out, "[]") {
		t.Fatalf("expected empty list output, got: %q", out)
	}
}

func TestReleasesList_InvalidStatus(t *testing.T) {
	useTestDispatcher(t)
	writeTestConfig(t, "project:\n  name: test\n")

	root := newTestRootCommand()
	root.AddCommand(NewReleasesCommand())

	_, err := executeCommand(root, "releases", "--site", "site1", "list", "--status", "bogus")
	if err == nil {
		t.Fatal("expected error for invalid --status value")
	}
}

func TestReleasesShow_NotFound(t *testing.T) {
	useTestDispatcher(t)
	writeTestConfig(t, "project:\n  name: test\n")

	root := newTestRootCommand()
	root.AddCommand(NewReleasesCommand())

	_, err := executeCommand(root, "releases", "--site", "site1", "show", "00000000-0000-0000-0000-000000000000")
	if err == nil || !strings.Contains(err.Error(), "content_release_does_not_exist") {
		t.Fatalf("expected content_release_does_not_exist error, got: %v", err)
	}
}

func TestReleasesFreeze_RequiresPublishAt(t *testing.T) {
	useTestDispatcher(t)
	writeTestConfig(t, "project:\n  name: test\n")

	root := newTestRootCommand()
	root.AddCommand(NewReleasesCommand())

	_, err := executeCommand(root, "releases", "--site", "site1", "freeze", "00000000-0000-0000-0000-000000000000")
	if err == nil || !strings.Contains(err.Error(), "--publish-at is required") {
		t.Fatalf("expected --publish-at required error, got: %v", err)
	}
}

func TestReleasesCommand_Help(t *testing.T) {
	root := newTestRootCommand()
	root.AddCommand(NewReleasesCommand())

	out, err := executeCommand(root, "releases", "--help")
	if err != nil {
		t.Fatalf("help command should not error, got: %v", err)
	}
	if !strings.Contains(out, "releases") {
		t.Fatalf("expected help text to contain 'releases', got: %q", out)
	}
}
