// SPDX-License-Identifier: AGPL-3.0-or-later

/*

Content Release Store - a versioned, multi-tenant repository of named JSON
documents grouped into immutable-once-published releases.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package store is the Postgres-backed implementation of release.Store,
// built on pgx/v5. It is the only package in this module that knows SQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentrelease/store/internal/release"
	"github.com/contentrelease/store/pkg/logging"
)

// dbtx is the subset of pgx behavior both *pgxpool.Pool and pgx.Tx
// implement, so query methods don't need to know whether they're running
// inside a caller-managed transaction or directly against the pool.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// Store implements release.Store against a PostgreSQL database reached
// through a pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

// New wraps an already-connected pool. Callers construct the pool (with
// whatever TLS/timeout configuration their environment needs) and hand it
// here; Store never dials on its own.
func New(pool *pgxpool.Pool, log logging.Logger) *Store {
	if log == nil {
		log = logging.NewNop()
	}
	return &Store{pool: pool, log: log}
}

var _ release.Store = (*Store)(nil)

// conn returns the active transaction from ctx if WithTx put one there,
// otherwise the bare pool. Every query method goes through this so a
// caller's WithTx block transparently wraps every Store call made with
// its context.
func (s *Store) conn(ctx context.Context) dbtx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

func isoLevel(iso release.TxIsolation) pgx.TxIsoLevel {
	switch iso {
	case release.IsoSerializable:
		return pgx.Serializable
	case release.IsoRepeatableRead:
		return pgx.RepeatableRead
	default:
		return pgx.ReadCommitted
	}
}

// WithTx opens a transaction at the requested isolation level and runs fn
// with a context carrying it; every Store call made with that context
// participates in the same transaction. A non-nil return from fn rolls
// the transaction back; ctx cancellation does the same (§5).
func (s *Store) WithTx(ctx context.Context, iso release.TxIsolation, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		// Already inside a transaction (a caller's WithTx wraps this call);
		// pgx has no nested-transaction primitive worth the complexity here,
		// so participate in the existing one rather than opening a second.
		return fn(ctx)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: isoLevel(iso)})
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.log.Error("store: rollback failed", logging.Field{Key: "error", Value: rbErr.Error()})
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

// mapRowErr turns pgx.ErrNoRows into release.ErrNotFound so callers in
// internal/release never import pgx.
func mapRowErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return release.ErrNotFound
	}
	return err
}
