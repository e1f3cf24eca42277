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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/contentrelease/store/internal/dispatch"
	"github.com/contentrelease/store/internal/release"
	"github.com/contentrelease/store/internal/release/releasetest"
	"github.com/contentrelease/store/pkg/config"
)

// newTestRootCommand returns a bare root command carrying the global
// persistent flags every command under commands/ expects to inherit.
func newTestRootCommand() *cobra.Command {
	root := &cobra.Command{Use: "release-store"}
	root.PersistentFlags().StringP("config", "c", "", "path to release-store.yml")
	root.PersistentFlags().Bool("dry-run", false, "show actions without executing")
	root.PersistentFlags().String("mode", "", "dispatcher render mode")
	root.PersistentFlags().String("site", "", "target site code")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	return root
}

// executeCommand runs root with args, capturing combined stdout/stderr.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// useTestDispatcher points newDispatcher at an in-memory, releasetest-backed
// Dispatcher for the duration of t, so command tests never dial a real
// database. It returns the Manager so tests can seed fixtures directly.
func useTestDispatcher(t *testing.T) *release.Manager {
	t.Helper()

	mgr := release.NewManager(releasetest.New(), nil)
	original := newDispatcher
	newDispatcher = func(_ context.Context, _ *config.Config, flags *ResolvedFlags) (*dispatch.Dispatcher, func(), error) {
		mode := dispatch.Mode(flags.Mode)
		if mode == "" {
			mode = dispatch.ModeNative
		}
		d, err := dispatch.New(mgr, mode)
		return d, func() {}, err
	}
	t.Cleanup(func() { newDispatcher = original })

	return mgr
}

// writeTestConfig writes a minimal valid release-store config to a temp
// directory, changes into it, and returns the config's path. Tests run in
// the temp directory so DefaultConfigPath() resolves there too.
func writeTestConfig(t *testing.T, body string) string {
	t.Helper()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "release-store.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("changing to temp directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(originalDir); err != nil {
			t.Logf("failed to restore directory: %v", err)
		}
	})

	return config.DefaultConfigPath()
}
