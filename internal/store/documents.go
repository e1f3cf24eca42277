// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/contentrelease/store/internal/release"
)

func (s *Store) ListAttachedDocuments(ctx context.Context, releaseID uuid.UUID) ([]*release.ReleaseDocument, error) {
	rows, err := s.conn(ctx).Query(ctx,
		`SELECT d.id, d.document_key, d.content_type, d.document_json, d.deleted
		 FROM release_documents d
		 JOIN release_document_links l ON l.document_id = d.id
		 WHERE l.release_id = $1`,
		releaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*release.ReleaseDocument
	for rows.Next() {
		var d release.ReleaseDocument
		if err := rows.Scan(&d.UUID, &d.DocumentKey, &d.ContentType, &d.DocumentJSON, &d.Deleted); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// FindAttachedDocument looks up the document matching key/contentType
// directly attached to releaseID. This query is issued with a row-level
// lock ("FOR UPDATE") when called from within AttachDocument/
// DetachDocument so concurrent publish/unpublish/delete on the same
// (release, key, content_type) serialize on the attachment row while
// disjoint keys proceed in parallel (§5).
func (s *Store) FindAttachedDocument(ctx context.Context, releaseID uuid.UUID, key, contentType string) (*release.ReleaseDocument, error) {
	return s.findAttachedDocument(ctx, releaseID, key, contentType, false)
}

func (s *Store) findAttachedDocument(ctx context.Context, releaseID uuid.UUID, key, contentType string, forUpdate bool) (*release.ReleaseDocument, error) {
	query := `SELECT d.id, d.document_key, d.content_type, d.document_json, d.deleted
		FROM release_documents d
		JOIN release_document_links l ON l.document_id = d.id
		WHERE l.release_id = $1 AND l.document_key = $2 AND l.content_type = $3`
	if forUpdate {
		query += " FOR UPDATE OF l"
	}

	var d release.ReleaseDocument
	err := s.conn(ctx).QueryRow(ctx, query, releaseID, key, contentType).
		Scan(&d.UUID, &d.DocumentKey, &d.ContentType, &d.DocumentJSON, &d.Deleted)
	if err != nil {
		if mapRowErr(err) == release.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// AttachDocument upserts by (release, document_key, content_type); see
// release.Store.AttachDocument.
func (s *Store) AttachDocument(ctx context.Context, releaseID uuid.UUID, doc *release.ReleaseDocument) (bool, error) {
	var created bool
	err := s.WithTx(ctx, release.IsoReadCommitted, func(ctx context.Context) error {
		existing, err := s.findAttachedDocument(ctx, releaseID, doc.DocumentKey, doc.ContentType, true)
		if err != nil {
			return err
		}
		if existing != nil {
			_, err := s.conn(ctx).Exec(ctx,
				`UPDATE release_documents SET document_json = $2, deleted = $3 WHERE id = $1`,
				existing.UUID, doc.DocumentJSON, doc.Deleted)
			doc.UUID = existing.UUID
			created = false
			return err
		}

		doc.UUID = uuid.New()
		if _, err := s.conn(ctx).Exec(ctx,
			`INSERT INTO release_documents (id, document_key, content_type, document_json, deleted)
			 VALUES ($1, $2, $3, $4, $5)`,
			doc.UUID, doc.DocumentKey, doc.ContentType, doc.DocumentJSON, doc.Deleted); err != nil {
			return err
		}
		if _, err := s.conn(ctx).Exec(ctx,
			`INSERT INTO release_document_links (release_id, document_id, document_key, content_type)
			 VALUES ($1, $2, $3, $4)`,
			releaseID, doc.UUID, doc.DocumentKey, doc.ContentType); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// DetachDocument severs the release/document link, garbage-collecting the
// document if no link remains anywhere (§4.5, §3.6).
func (s *Store) DetachDocument(ctx context.Context, releaseID uuid.UUID, key, contentType string) error {
	return s.WithTx(ctx, release.IsoReadCommitted, func(ctx context.Context) error {
		existing, err := s.findAttachedDocument(ctx, releaseID, key, contentType, true)
		if err != nil {
			return err
		}
		if existing == nil {
			return release.ErrNotFound
		}

		if _, err := s.conn(ctx).Exec(ctx,
			`DELETE FROM release_document_links WHERE release_id = $1 AND document_id = $2`,
			releaseID, existing.UUID); err != nil {
			return err
		}

		var remaining int
		if err := s.conn(ctx).QueryRow(ctx,
			`SELECT COUNT(*) FROM release_document_links WHERE document_id = $1`, existing.UUID).
			Scan(&remaining); err != nil {
			return err
		}
		if remaining == 0 {
			if _, err := s.conn(ctx).Exec(ctx,
				`DELETE FROM document_parameters WHERE document_id = $1`, existing.UUID); err != nil {
				return err
			}
			if _, err := s.conn(ctx).Exec(ctx,
				`DELETE FROM release_documents WHERE id = $1`, existing.UUID); err != nil {
				return err
			}
		}
		return nil
	})
}
