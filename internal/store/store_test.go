// SPDX-License-Identifier: AGPL-3.0-or-later

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentrelease/store/internal/release"
	"github.com/contentrelease/store/internal/store"
)

// newTestStore connects to DATABASE_URL, skipping the test if it isn't
// set — these tests exercise real SQL and aren't meaningful against a
// mock. Run against a scratch database with internal/store/migrations
// applied.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping store integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting to %s: %v", dsn, err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("pinging database: %v", err)
	}
	t.Cleanup(pool.Close)

	return store.New(pool, nil)
}

func TestStore_CreateAndFindRelease(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rel := &release.Release{
		UUID:      uuid.New(),
		SiteCode:  "integration-test",
		Title:     "title-" + uuid.NewString(),
		Version:   "0.0.1",
		Status:    release.StatusPreview,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.CreateRelease(ctx, rel); err != nil {
		t.Fatalf("CreateRelease: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteRelease(ctx, rel.SiteCode, rel.UUID) })

	got, err := s.FindRelease(ctx, rel.SiteCode, rel.UUID)
	if err != nil {
		t.Fatalf("FindRelease: %v", err)
	}
	if got.Title != rel.Title || got.Status != release.StatusPreview {
		t.Fatalf("unexpected release: %+v", got)
	}
}

func TestStore_AttachAndDetachDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rel := &release.Release{
		UUID:      uuid.New(),
		SiteCode:  "integration-test",
		Title:     "title-" + uuid.NewString(),
		Version:   "0.0.1",
		Status:    release.StatusPreview,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.CreateRelease(ctx, rel); err != nil {
		t.Fatalf("CreateRelease: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteRelease(ctx, rel.SiteCode, rel.UUID) })

	doc := &release.ReleaseDocument{DocumentKey: "key1", ContentType: "content", DocumentJSON: []byte(`"v1"`)}
	created, err := s.AttachDocument(ctx, rel.UUID, doc)
	if err != nil || !created {
		t.Fatalf("AttachDocument: created=%v err=%v", created, err)
	}

	docs, err := s.ListAttachedDocuments(ctx, rel.UUID)
	if err != nil || len(docs) != 1 {
		t.Fatalf("ListAttachedDocuments: %v / %+v", err, docs)
	}

	if err := s.DetachDocument(ctx, rel.UUID, "key1", "content"); err != nil {
		t.Fatalf("DetachDocument: %v", err)
	}
	docs, err = s.ListAttachedDocuments(ctx, rel.UUID)
	if err != nil || len(docs) != 0 {
		t.Fatalf("expected no documents after detach, got %+v (err=%v)", docs, err)
	}
}
