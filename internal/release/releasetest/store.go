// SPDX-License-Identifier: AGPL-3.0-or-later

// Package releasetest provides an in-memory fake implementing
// release.Store, grounded on the teacher's newTestManager deterministic
// test-double pattern. It is deliberately simple — plain maps with no
// locking, so a Store is not safe for concurrent use — rather than a faithful concurrency model of a real
// database; WithTx runs fn against the live maps directly and rolls back
// by restoring a deep copy taken before fn ran.
package releasetest

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/contentrelease/store/internal/release"
)

type link struct {
	releaseID  uuid.UUID
	documentID uuid.UUID
}

// Store is an in-memory release.Store.
type Store struct {
	releases       map[uuid.UUID]*release.Release
	documents      map[uuid.UUID]*release.ReleaseDocument
	releaseLinks   map[uuid.UUID][]link // releaseID -> links
	releaseParams  map[uuid.UUID]map[string]string
	documentParams map[uuid.UUID]map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		releases:       make(map[uuid.UUID]*release.Release),
		documents:      make(map[uuid.UUID]*release.ReleaseDocument),
		releaseLinks:   make(map[uuid.UUID][]link),
		releaseParams:  make(map[uuid.UUID]map[string]string),
		documentParams: make(map[uuid.UUID]map[string]string),
	}
}

func (s *Store) snapshot() *Store {
	cp := New()
	for k, v := range s.releases {
		cp.releases[k] = v.Clone()
	}
	for k, v := range s.documents {
		d := *v
		cp.documents[k] = &d
	}
	for k, v := range s.releaseLinks {
		cp.releaseLinks[k] = append([]link(nil), v...)
	}
	for k, v := range s.releaseParams {
		cp.releaseParams[k] = cloneMap(v)
	}
	for k, v := range s.documentParams {
		cp.documentParams[k] = cloneMap(v)
	}
	return cp
}

func (s *Store) restore(from *Store) {
	s.releases = from.releases
	s.documents = from.documents
	s.releaseLinks = from.releaseLinks
	s.releaseParams = from.releaseParams
	s.documentParams = from.documentParams
}

func cloneMap(m map[string]string) map[string]string {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// WithTx runs fn against the live store; on error it restores the
// pre-call snapshot, emulating rollback.
func (s *Store) WithTx(ctx context.Context, _ release.TxIsolation, fn func(ctx context.Context) error) error {
	backup := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(backup)
		return err
	}
	return nil
}

func (s *Store) FindRelease(ctx context.Context, siteCode string, id uuid.UUID) (*release.Release, error) {
	rel, ok := s.releases[id]
	if !ok || rel.SiteCode != siteCode {
		return nil, release.ErrNotFound
	}
	return rel.Clone(), nil
}

func (s *Store) FindReleaseByTitleVersion(ctx context.Context, siteCode, title, version string) (*release.Release, error) {
	for _, rel := range s.releases {
		if rel.SiteCode == siteCode && rel.Title == title && rel.Version == version {
			return rel.Clone(), nil
		}
	}
	return nil, release.ErrNotFound
}

func (s *Store) ListReleases(ctx context.Context, siteCode string, status *release.Status, since *time.Time) ([]*release.Release, error) {
	var out []*release.Release
	for _, rel := range s.releases {
		if rel.SiteCode != siteCode {
			continue
		}
		if status != nil && rel.Status != *status {
			continue
		}
		if since != nil && rel.CreatedAt.Before(*since) {
			continue
		}
		out = append(out, rel.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FindCurrentLive(ctx context.Context, siteCode string) (*release.Release, error) {
	for _, rel := range s.releases {
		if rel.SiteCode == siteCode && rel.IsLive {
			return rel.Clone(), nil
		}
	}
	return nil, release.ErrNotFound
}

func (s *Store) FindReleasesByParameters(ctx context.Context, siteCode string, params map[string]string) ([]*release.Release, error) {
	var out []*release.Release
	for _, rel := range s.releases {
		if rel.SiteCode != siteCode {
			continue
		}
		have := s.releaseParams[rel.UUID]
		if supersetOf(have, params) {
			out = append(out, rel.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func supersetOf(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func (s *Store) ListDueForPublish(ctx context.Context, siteCode string, asOf time.Time) ([]*release.Release, error) {
	var out []*release.Release
	for _, rel := range s.releases {
		if rel.SiteCode != siteCode || rel.Status != release.StatusFreeze {
			continue
		}
		if rel.PublishDatetime != nil && !rel.PublishDatetime.After(asOf) {
			out = append(out, rel.Clone())
		}
	}
	return out, nil
}

func (s *Store) CreateRelease(ctx context.Context, rel *release.Release) error {
	for _, existing := range s.releases {
		if existing.SiteCode == rel.SiteCode && existing.Title == rel.Title && existing.Version == rel.Version {
			return release.ErrDuplicate
		}
	}
	s.releases[rel.UUID] = rel.Clone()
	return nil
}

func (s *Store) UpdateRelease(ctx context.Context, rel *release.Release) error {
	if _, ok := s.releases[rel.UUID]; !ok {
		return release.ErrNotFound
	}
	for _, existing := range s.releases {
		if existing.UUID != rel.UUID && existing.SiteCode == rel.SiteCode && existing.Title == rel.Title && existing.Version == rel.Version {
			return release.ErrDuplicate
		}
	}
	s.releases[rel.UUID] = rel.Clone()
	return nil
}

func (s *Store) DeleteRelease(ctx context.Context, siteCode string, id uuid.UUID) error {
	rel, ok := s.releases[id]
	if !ok || rel.SiteCode != siteCode {
		return release.ErrNotFound
	}
	delete(s.releases, id)
	delete(s.releaseParams, id)
	delete(s.releaseLinks, id)
	return nil
}

func (s *Store) ReleaseParameters(ctx context.Context, releaseID uuid.UUID) (map[string]string, error) {
	return cloneMap(s.releaseParams[releaseID]), nil
}

func (s *Store) ReplaceReleaseParameters(ctx context.Context, releaseID uuid.UUID, params map[string]string, clearFirst bool) error {
	cur := s.releaseParams[releaseID]
	if cur == nil || clearFirst {
		cur = make(map[string]string)
	}
	for k, v := range params {
		cur[k] = v
	}
	s.releaseParams[releaseID] = cur
	return nil
}

func (s *Store) ListAttachedDocuments(ctx context.Context, releaseID uuid.UUID) ([]*release.ReleaseDocument, error) {
	var out []*release.ReleaseDocument
	for _, l := range s.releaseLinks[releaseID] {
		if d, ok := s.documents[l.documentID]; ok {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) FindAttachedDocument(ctx context.Context, releaseID uuid.UUID, key, contentType string) (*release.ReleaseDocument, error) {
	for _, l := range s.releaseLinks[releaseID] {
		d, ok := s.documents[l.documentID]
		if !ok {
			continue
		}
		if d.DocumentKey == key && d.ContentType == contentType {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) AttachDocument(ctx context.Context, releaseID uuid.UUID, doc *release.ReleaseDocument) (bool, error) {
	existing, _ := s.FindAttachedDocument(ctx, releaseID, doc.DocumentKey, doc.ContentType)
	if existing != nil {
		stored := s.documents[existing.UUID]
		stored.DocumentJSON = doc.DocumentJSON
		stored.Deleted = doc.Deleted
		doc.UUID = existing.UUID
		return false, nil
	}

	doc.UUID = uuid.New()
	s.documents[doc.UUID] = doc
	s.releaseLinks[releaseID] = append(s.releaseLinks[releaseID], link{releaseID: releaseID, documentID: doc.UUID})
	return true, nil
}

func (s *Store) DetachDocument(ctx context.Context, releaseID uuid.UUID, key, contentType string) error {
	links := s.releaseLinks[releaseID]
	idx := -1
	var docID uuid.UUID
	for i, l := range links {
		d, ok := s.documents[l.documentID]
		if ok && d.DocumentKey == key && d.ContentType == contentType {
			idx = i
			docID = l.documentID
			break
		}
	}
	if idx == -1 {
		return release.ErrNotFound
	}
	s.releaseLinks[releaseID] = append(links[:idx], links[idx+1:]...)

	stillLinked := false
	for _, ls := range s.releaseLinks {
		for _, l := range ls {
			if l.documentID == docID {
				stillLinked = true
				break
			}
		}
	}
	if !stillLinked {
		delete(s.documents, docID)
		delete(s.documentParams, docID)
	}
	return nil
}

func (s *Store) DocumentParameters(ctx context.Context, documentID uuid.UUID) (map[string]string, error) {
	return cloneMap(s.documentParams[documentID]), nil
}

func (s *Store) ReplaceDocumentParameters(ctx context.Context, documentID uuid.UUID, params map[string]string) error {
	s.documentParams[documentID] = cloneMap(params)
	return nil
}
