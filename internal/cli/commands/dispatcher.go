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
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/contentrelease/store/internal/dispatch"
	"github.com/contentrelease/store/internal/release"
	"github.com/contentrelease/store/internal/store"
	"github.com/contentrelease/store/pkg/config"
	"github.com/contentrelease/store/pkg/logging"
)

// newDispatcher builds a Dispatcher backed by a real Postgres pool, per the
// loaded config and resolved flags. It is a package-level variable so
// tests can substitute an in-memory-backed Dispatcher instead of dialing
// a database.
var newDispatcher = func(ctx context.Context, cfg *config.Config, flags *ResolvedFlags) (*dispatch.Dispatcher, func(), error) {
	if cfg.Store == nil || cfg.Store.ConnectionEnv == "" {
		return nil, nil, fmt.Errorf("config: store.connection_env is required to connect to the database")
	}
	dsn := os.Getenv(cfg.Store.ConnectionEnv)
	if dsn == "" {
		return nil, nil, fmt.Errorf("environment variable %q is not set", cfg.Store.ConnectionEnv)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	logger := logging.NewLogger(flags.Verbose)
	s := store.New(pool, logger)
	manager := release.NewManager(s, logger)

	mode := dispatch.Mode(flags.Mode)
	d, err := dispatch.New(manager, mode)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	return d, pool.Close, nil
}

// openDispatcher loads the config for the resolved flags and constructs a
// Dispatcher via newDispatcher, returning a cleanup func the caller must
// invoke once done.
func openDispatcher(cmd *cobra.Command) (*dispatch.Dispatcher, *ResolvedFlags, func(), error) {
	flags, err := ResolveFlags(cmd, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("resolving flags: %w", err)
	}

	cfg, err := config.Load(flags.Config)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	flags, err = ResolveFlags(cmd, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("resolving flags: %w", err)
	}

	d, cleanup, err := newDispatcher(cmd.Context(), cfg, flags)
	if err != nil {
		return nil, nil, nil, err
	}
	return d, flags, cleanup, nil
}
