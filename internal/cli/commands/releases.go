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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/contentrelease/store/internal/dispatch"
	"github.com/contentrelease/store/internal/release"
)

// NewReleasesCommand returns the `releases` command group.
func NewReleasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "releases",
		Short: "Manage content releases for a site",
		Long:  "Create, inspect, and move content releases through their lifecycle",
	}

	cmd.AddCommand(NewReleasesAddCommand())
	cmd.AddCommand(NewReleasesListCommand())
	cmd.AddCommand(NewReleasesShowCommand())
	cmd.AddCommand(NewReleasesSetLiveCommand())
	cmd.AddCommand(NewReleasesFreezeCommand())
	cmd.AddCommand(NewReleasesUnfreezeCommand())
	cmd.AddCommand(NewReleasesArchiveCommand())
	cmd.AddCommand(NewReleasesUnarchiveCommand())

	return cmd
}

func requireSite(flags *ResolvedFlags) error {
	if flags.Site == "" {
		return fmt.Errorf("--site is required")
	}
	return nil
}

// NewReleasesAddCommand returns `releases add`.
func NewReleasesAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title> <version>",
		Short: "Create a new content release in PREVIEW",
		Args:  cobra.ExactArgs(2),
		RunE:  runReleasesAdd,
	}
	cmd.Flags().String("base-release", "", "UUID of an explicit base release")
	cmd.Flags().Bool("use-current-live-as-base", false, "use whichever release is live at creation time as the base")
	return cmd
}

func runReleasesAdd(cmd *cobra.Command, args []string) error {
	d, flags, cleanup, err := openDispatcher(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := requireSite(flags); err != nil {
		return err
	}

	var baseReleaseUUID *uuid.UUID
	if raw, _ := cmd.Flags().GetString("base-release"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("--base-release: %w", err)
		}
		baseReleaseUUID = &parsed
	}
	useCurrentLive, _ := cmd.Flags().GetBool("use-current-live-as-base")

	resp := d.AddContentRelease(cmd.Context(), flags.Site, args[0], args[1], baseReleaseUUID, useCurrentLive)
	return printResponse(cmd, resp)
}

// NewReleasesListCommand returns `releases list`.
func NewReleasesListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List content releases for a site",
		RunE:  runReleasesList,
	}
	cmd.Flags().String("status", "", "filter by status: preview, freeze, live, archived")
	cmd.Flags().String("since", "", "filter to releases created since this RFC3339 timestamp")
	return cmd
}

func runReleasesList(cmd *cobra.Command, _ []string) error {
	d, flags, cleanup, err := openDispatcher(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := requireSite(flags); err != nil {
		return err
	}

	var status *release.Status
	if raw, _ := cmd.Flags().GetString("status"); raw != "" {
		parsed, ok := release.ParseStatus(strings.ToUpper(raw))
		if !ok {
			return fmt.Errorf("--status: unrecognized status %q", raw)
		}
		status = &parsed
	}

	var since *time.Time
	if raw, _ := cmd.Flags().GetString("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		since = &parsed
	}

	resp := d.ListContentReleases(cmd.Context(), flags.Site, status, since)
	return printResponse(cmd, resp)
}

// NewReleasesShowCommand returns `releases show`.
func NewReleasesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <release-uuid>",
		Short: "Show a content release's details",
		Args:  cobra.ExactArgs(1),
		RunE:  withReleaseUUID(func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, id uuid.UUID) error {
			return printResponse(cmd, d.GetContentReleaseDetails(cmd.Context(), flags.Site, id))
		}),
	}
}

// NewReleasesSetLiveCommand returns `releases set-live`.
func NewReleasesSetLiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-live <release-uuid>",
		Short: "Promote a content release to LIVE, archiving whichever release was live",
		Args:  cobra.ExactArgs(1),
		RunE:  withReleaseUUID(func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, id uuid.UUID) error {
			return printResponse(cmd, d.SetLiveContentRelease(cmd.Context(), flags.Site, id))
		}),
	}
}

// NewReleasesFreezeCommand returns `releases freeze`.
func NewReleasesFreezeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "freeze <release-uuid>",
		Short: "Move a PREVIEW release to FREEZE with a scheduled publish time",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().String("publish-at", "", "RFC3339 timestamp the release should go live at (required, must be in the future)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("publish-at")
		if raw == "" {
			return fmt.Errorf("--publish-at is required")
		}
		publishAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("--publish-at: %w", err)
		}
		return withReleaseUUID(func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, id uuid.UUID) error {
			return printResponse(cmd, d.FreezeContentRelease(cmd.Context(), flags.Site, id, publishAt))
		})(cmd, args)
	}
	return cmd
}

// NewReleasesUnfreezeCommand returns `releases unfreeze`.
func NewReleasesUnfreezeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unfreeze <release-uuid>",
		Short: "Move a FREEZE release back to PREVIEW",
		Args:  cobra.ExactArgs(1),
		RunE: withReleaseUUID(func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, id uuid.UUID) error {
			return printResponse(cmd, d.UnfreezeContentRelease(cmd.Context(), flags.Site, id))
		}),
	}
}

// NewReleasesArchiveCommand returns `releases archive`.
func NewReleasesArchiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <release-uuid>",
		Short: "Archive a LIVE release",
		Args:  cobra.ExactArgs(1),
		RunE: withReleaseUUID(func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, id uuid.UUID) error {
			return printResponse(cmd, d.ArchiveContentRelease(cmd.Context(), flags.Site, id))
		}),
	}
}

// NewReleasesUnarchiveCommand returns `releases unarchive`.
func NewReleasesUnarchiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive <release-uuid>",
		Short: "Restore an ARCHIVED release to LIVE",
		Args:  cobra.ExactArgs(1),
		RunE: withReleaseUUID(func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, id uuid.UUID) error {
			return printResponse(cmd, d.UnarchiveContentRelease(cmd.Context(), flags.Site, id))
		}),
	}
}

// withReleaseUUID parses args[0] as a release UUID, opens a Dispatcher,
// requires --site, and delegates to fn.
func withReleaseUUID(fn func(cmd *cobra.Command, d *dispatch.Dispatcher, flags *ResolvedFlags, id uuid.UUID) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("parsing release UUID: %w", err)
		}
		d, flags, cleanup, err := openDispatcher(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		if err := requireSite(flags); err != nil {
			return err
		}
		return fn(cmd, d, flags, id)
	}
}

// printResponse renders a dispatch.Response to the command's output,
// returning an error carrying the response's error_code if it failed.
func printResponse(cmd *cobra.Command, resp dispatch.Response) error {
	if resp.Status != "success" {
		return fmt.Errorf("%s", resp.ErrorCode)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", resp.Content)
	return nil
}
