// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/contentrelease/store/internal/release"
)

func (s *Store) ReleaseParameters(ctx context.Context, releaseID uuid.UUID) (map[string]string, error) {
	return s.keyValueParams(ctx, "release_parameters", "release_id", releaseID)
}

func (s *Store) DocumentParameters(ctx context.Context, documentID uuid.UUID) (map[string]string, error) {
	return s.keyValueParams(ctx, "document_parameters", "document_id", documentID)
}

func (s *Store) keyValueParams(ctx context.Context, table, idColumn string, id uuid.UUID) (map[string]string, error) {
	rows, err := s.conn(ctx).Query(ctx, `SELECT key, value FROM `+table+` WHERE `+idColumn+` = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// ReplaceReleaseParameters upserts per-key replace; if clearFirst, every
// existing parameter is removed before upserting (§4.7).
func (s *Store) ReplaceReleaseParameters(ctx context.Context, releaseID uuid.UUID, params map[string]string, clearFirst bool) error {
	return s.WithTx(ctx, release.IsoReadCommitted, func(ctx context.Context) error {
		if clearFirst {
			if _, err := s.conn(ctx).Exec(ctx, `DELETE FROM release_parameters WHERE release_id = $1`, releaseID); err != nil {
				return err
			}
		}
		for k, v := range params {
			if _, err := s.conn(ctx).Exec(ctx,
				`INSERT INTO release_parameters (release_id, key, value) VALUES ($1, $2, $3)
				 ON CONFLICT (release_id, key) DO UPDATE SET value = EXCLUDED.value`,
				releaseID, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceDocumentParameters discards documentID's existing parameters and
// replaces them with params.
func (s *Store) ReplaceDocumentParameters(ctx context.Context, documentID uuid.UUID, params map[string]string) error {
	return s.WithTx(ctx, release.IsoReadCommitted, func(ctx context.Context) error {
		if _, err := s.conn(ctx).Exec(ctx, `DELETE FROM document_parameters WHERE document_id = $1`, documentID); err != nil {
			return err
		}
		for k, v := range params {
			if _, err := s.conn(ctx).Exec(ctx,
				`INSERT INTO document_parameters (document_id, key, value) VALUES ($1, $2, $3)`,
				documentID, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}
