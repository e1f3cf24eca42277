// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/contentrelease/store/internal/release"
)

const releaseColumns = `id, site_code, title, version, status, is_live, publish_datetime,
	base_release, use_current_live_as_base_release, created_at, updated_at`

func scanRelease(row pgx.Row) (*release.Release, error) {
	var rel release.Release
	var status int16
	if err := row.Scan(
		&rel.UUID, &rel.SiteCode, &rel.Title, &rel.Version, &status, &rel.IsLive,
		&rel.PublishDatetime, &rel.BaseRelease, &rel.UseCurrentLiveAsBaseRelease,
		&rel.CreatedAt, &rel.UpdatedAt,
	); err != nil {
		return nil, mapRowErr(err)
	}
	rel.Status = release.Status(status)
	return &rel, nil
}

func (s *Store) FindRelease(ctx context.Context, siteCode string, id uuid.UUID) (*release.Release, error) {
	row := s.conn(ctx).QueryRow(ctx,
		`SELECT `+releaseColumns+` FROM releases WHERE id = $1 AND site_code = $2`,
		id, siteCode)
	return scanRelease(row)
}

func (s *Store) FindReleaseByTitleVersion(ctx context.Context, siteCode, title, version string) (*release.Release, error) {
	row := s.conn(ctx).QueryRow(ctx,
		`SELECT `+releaseColumns+` FROM releases WHERE site_code = $1 AND title = $2 AND version = $3`,
		siteCode, title, version)
	return scanRelease(row)
}

func (s *Store) FindCurrentLive(ctx context.Context, siteCode string) (*release.Release, error) {
	row := s.conn(ctx).QueryRow(ctx,
		`SELECT `+releaseColumns+` FROM releases WHERE site_code = $1 AND is_live = TRUE`,
		siteCode)
	return scanRelease(row)
}

func (s *Store) ListReleases(ctx context.Context, siteCode string, status *release.Status, since *time.Time) ([]*release.Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases WHERE site_code = $1`
	args := []any{siteCode}

	if status != nil {
		args = append(args, int16(*status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := s.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*release.Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}

func (s *Store) ListDueForPublish(ctx context.Context, siteCode string, asOf time.Time) ([]*release.Release, error) {
	rows, err := s.conn(ctx).Query(ctx,
		`SELECT `+releaseColumns+` FROM releases
		 WHERE site_code = $1 AND status = $2 AND publish_datetime <= $3
		 ORDER BY publish_datetime`,
		siteCode, int16(release.StatusFreeze), asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*release.Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}

func (s *Store) FindReleasesByParameters(ctx context.Context, siteCode string, params map[string]string) ([]*release.Release, error) {
	if len(params) == 0 {
		rows, err := s.conn(ctx).Query(ctx, `SELECT `+releaseColumns+` FROM releases WHERE site_code = $1 ORDER BY created_at`, siteCode)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var out []*release.Release
		for rows.Next() {
			rel, err := scanRelease(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, rel)
		}
		return out, rows.Err()
	}

	query := `SELECT ` + releaseColumns + ` FROM releases r WHERE r.site_code = $1 AND (
		SELECT COUNT(*) FROM release_parameters rp
		WHERE rp.release_id = r.id AND (rp.key, rp.value) IN (`
	args := []any{siteCode}
	first := true
	for k, v := range params {
		args = append(args, k, v)
		if !first {
			query += ", "
		}
		first = false
		query += fmt.Sprintf("($%d, $%d)", len(args)-1, len(args))
	}
	query += fmt.Sprintf(")) = %d ORDER BY r.created_at", len(params))

	rows, err := s.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*release.Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}

func (s *Store) CreateRelease(ctx context.Context, rel *release.Release) error {
	_, err := s.conn(ctx).Exec(ctx,
		`INSERT INTO releases (id, site_code, title, version, status, is_live, publish_datetime,
			base_release, use_current_live_as_base_release, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rel.UUID, rel.SiteCode, rel.Title, rel.Version, int16(rel.Status), rel.IsLive,
		rel.PublishDatetime, rel.BaseRelease, rel.UseCurrentLiveAsBaseRelease, rel.CreatedAt, rel.UpdatedAt,
	)
	return mapWriteErr(err)
}

func (s *Store) UpdateRelease(ctx context.Context, rel *release.Release) error {
	tag, err := s.conn(ctx).Exec(ctx,
		`UPDATE releases SET site_code = $2, title = $3, version = $4, status = $5, is_live = $6,
			publish_datetime = $7, base_release = $8, use_current_live_as_base_release = $9, updated_at = $10
		 WHERE id = $1`,
		rel.UUID, rel.SiteCode, rel.Title, rel.Version, int16(rel.Status), rel.IsLive,
		rel.PublishDatetime, rel.BaseRelease, rel.UseCurrentLiveAsBaseRelease, rel.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return release.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRelease(ctx context.Context, siteCode string, id uuid.UUID) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM releases WHERE id = $1 AND site_code = $2`, id, siteCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return release.ErrNotFound
	}
	return nil
}

// mapWriteErr classifies a unique-violation on releases' (site_code,
// title, version) constraint as release.ErrDuplicate.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return release.ErrDuplicate
	}
	return err
}
