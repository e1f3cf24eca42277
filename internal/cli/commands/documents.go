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

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/contentrelease/store/internal/dispatch"
	"github.com/contentrelease/store/internal/release"
)

// NewDocumentsCommand returns the `documents` command group.
func NewDocumentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Publish, inspect, and remove documents within a content release",
	}

	cmd.AddCommand(NewDocumentsPublishCommand())
	cmd.AddCommand(NewDocumentsGetCommand())
	cmd.AddCommand(NewDocumentsUnpublishCommand())
	cmd.AddCommand(NewDocumentsDeleteCommand())

	return cmd
}

// withDocumentTarget resolves --release into a *release.Release (via
// GetContentReleaseDetails) and args[0]/args[1] into a release.DocKey,
// then delegates to fn.
func withDocumentTarget(fn func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, rel *release.Release, key release.DocKey) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		d, flags, cleanup, err := openDispatcher(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		if err := requireSite(flags); err != nil {
			return err
		}

		releaseRaw, _ := cmd.Flags().GetString("release")
		if releaseRaw == "" {
			return fmt.Errorf("--release is required")
		}
		releaseID, err := uuid.Parse(releaseRaw)
		if err != nil {
			return fmt.Errorf("--release: %w", err)
		}

		resp := d.GetContentReleaseDetails(cmd.Context(), flags.Site, releaseID)
		if resp.Status != "success" {
			return fmt.Errorf("%s", resp.ErrorCode)
		}
		rel, ok := resp.Content.(*release.Release)
		if !ok {
			return fmt.Errorf("internal error: unexpected release representation")
		}

		key := release.DocKey{DocumentKey: args[0], ContentType: args[1]}
		return fn(cmd, d, flags, rel, key)
	}
}

func addDocumentFlags(cmd *cobra.Command) {
	cmd.Flags().String("release", "", "UUID of the target content release (required)")
}

// NewDocumentsPublishCommand returns `documents publish`.
func NewDocumentsPublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <document-key> <content-type>",
		Short: "Attach or overwrite a document within a content release",
		Args:  cobra.ExactArgs(2),
	}
	addDocumentFlags(cmd)
	cmd.Flags().String("file", "", "path to the JSON document body (required; use - for stdin)")
	cmd.RunE = withDocumentTarget(func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, rel *release.Release, key release.DocKey) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			return fmt.Errorf("--file is required")
		}
		body, err := readDocumentBody(path)
		if err != nil {
			return err
		}
		resp := d.PublishDocumentToContentRelease(cmd.Context(), rel, key, body, nil)
		return printResponse(cmd, resp)
	})
	return cmd
}

func readDocumentBody(path string) ([]byte, error) {
	if path == "-" {
		return os.ReadFile("/dev/stdin")
	}
	return os.ReadFile(path)
}

// NewDocumentsGetCommand returns `documents get`.
func NewDocumentsGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <document-key> <content-type>",
		Short: "Resolve a document through the release's effective view",
		Args:  cobra.ExactArgs(2),
	}
	addDocumentFlags(cmd)
	cmd.RunE = withDocumentTarget(func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, rel *release.Release, key release.DocKey) error {
		resp := d.GetDocumentFromContentRelease(cmd.Context(), flags.Site, rel, key)
		return printResponse(cmd, resp)
	})
	return cmd
}

// NewDocumentsUnpublishCommand returns `documents unpublish`.
func NewDocumentsUnpublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpublish <document-key> <content-type>",
		Short: "Detach a document this release attached directly",
		Args:  cobra.ExactArgs(2),
	}
	addDocumentFlags(cmd)
	cmd.RunE = withDocumentTarget(func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, rel *release.Release, key release.DocKey) error {
		resp := d.UnpublishDocumentFromContentRelease(cmd.Context(), rel, key)
		return printResponse(cmd, resp)
	})
	return cmd
}

// NewDocumentsDeleteCommand returns `documents delete`.
func NewDocumentsDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <document-key> <content-type>",
		Short: "Tombstone a document within a content release",
		Args:  cobra.ExactArgs(2),
	}
	addDocumentFlags(cmd)
	cmd.RunE = withDocumentTarget(func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, rel *release.Release, key release.DocKey) error {
		resp := d.DeleteDocumentFromContentRelease(cmd.Context(), rel, key)
		return printResponse(cmd, resp)
	})
	return cmd
}
