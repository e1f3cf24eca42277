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

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/contentrelease/store/internal/release"
)

// NewCompareCommand returns the `compare` command.
func NewCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <from-release-uuid> <to-release-uuid>",
		Short: "Diff two content releases' effective views",
		Args:  cobra.ExactArgs(2),
		RunE:  runCompare,
	}
}

func runCompare(cmd *cobra.Command, args []string) error {
	d, flags, cleanup, err := openDispatcher(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := requireSite(flags); err != nil {
		return err
	}

	fromID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("parsing from-release UUID: %w", err)
	}
	toID, err := uuid.Parse(args[1])
	if err != nil {
		return fmt.Errorf("parsing to-release UUID: %w", err)
	}

	fromResp := d.GetContentReleaseDetails(cmd.Context(), flags.Site, fromID)
	if fromResp.Status != "success" {
		return fmt.Errorf("%s", fromResp.ErrorCode)
	}
	toResp := d.GetContentReleaseDetails(cmd.Context(), flags.Site, toID)
	if toResp.Status != "success" {
		return fmt.Errorf("%s", toResp.ErrorCode)
	}

	from, ok := fromResp.Content.(*release.Release)
	if !ok {
		return fmt.Errorf("internal error: unexpected release representation")
	}
	to, ok := toResp.Content.(*release.Release)
	if !ok {
		return fmt.Errorf("internal error: unexpected release representation")
	}

	resp := d.CompareContentReleases(cmd.Context(), flags.Site, from, to)
	return printResponse(cmd, resp)
}
