// SPDX-License-Identifier: AGPL-3.0-or-later

package release

import "context"

// GetDocument resolves key through rel's effective view and returns the
// first non-tombstone document found on the base chain, or
// ErrReleaseDocumentDoesNotExist if the key is absent or tombstoned
// everywhere (§4.4).
func (m *Manager) GetDocument(ctx context.Context, siteCode string, rel *Release, key DocKey) (*ReleaseDocument, error) {
	view, err := EffectiveView(ctx, m.store, siteCode, rel)
	if err != nil {
		return nil, err
	}
	doc, ok := view.Get(key)
	if !ok {
		return nil, NewError(ErrReleaseDocumentDoesNotExist)
	}
	return doc, nil
}

// GetDocumentExtra returns the document-scoped parameters attached to the
// stored ReleaseDocument resolved for key within rel's effective view.
func (m *Manager) GetDocumentExtra(ctx context.Context, siteCode string, rel *Release, key DocKey) (map[string]string, error) {
	doc, err := m.GetDocument(ctx, siteCode, rel, key)
	if err != nil {
		return nil, err
	}
	return m.store.DocumentParameters(ctx, doc.UUID)
}

// PublishDocument upserts by (release, document_key, content_type)
// directly on rel (not through its base chain): if the triple already
// exists its document_json is replaced and any tombstone is lifted
// (created=false); otherwise a new ReleaseDocument is created and linked
// (created=true). Document parameters are replaced only when params is
// non-empty; a nil or empty params leaves any existing ones in place. §4.5.
func (m *Manager) PublishDocument(ctx context.Context, rel *Release, key DocKey, documentJSON []byte, params map[string]string) (created bool, err error) {
	contentType := NormalizeContentType(key.ContentType)
	doc := &ReleaseDocument{
		DocumentKey:  key.DocumentKey,
		ContentType:  contentType,
		DocumentJSON: documentJSON,
		Deleted:      false,
	}

	created, err = m.store.AttachDocument(ctx, rel.UUID, doc)
	if err != nil {
		return false, err
	}
	if len(params) > 0 {
		if err := m.store.ReplaceDocumentParameters(ctx, doc.UUID, params); err != nil {
			return created, err
		}
	}
	return created, nil
}

// UnpublishDocument severs the link between rel and the document matching
// key. If the document has no remaining links anywhere it is deleted.
// Fails ErrReleaseDocumentDoesNotExist if rel has no such link (§4.5).
func (m *Manager) UnpublishDocument(ctx context.Context, rel *Release, key DocKey) error {
	contentType := NormalizeContentType(key.ContentType)
	existing, err := m.store.FindAttachedDocument(ctx, rel.UUID, key.DocumentKey, contentType)
	if err != nil {
		if isNotFound(err) {
			return NewError(ErrReleaseDocumentDoesNotExist)
		}
		return err
	}
	if existing == nil {
		return NewError(ErrReleaseDocumentDoesNotExist)
	}
	return m.store.DetachDocument(ctx, rel.UUID, key.DocumentKey, contentType)
}

// DeleteDocument makes key appear removed within rel's effective view,
// even when the key is inherited from a base release, by tombstoning it
// (idempotent). A subsequent PublishDocument on the same key re-attaches
// real content and lifts the tombstone (§4.5).
func (m *Manager) DeleteDocument(ctx context.Context, rel *Release, key DocKey) error {
	contentType := NormalizeContentType(key.ContentType)
	doc := &ReleaseDocument{
		DocumentKey: key.DocumentKey,
		ContentType: contentType,
		Deleted:     true,
	}
	_, err := m.store.AttachDocument(ctx, rel.UUID, doc)
	return err
}
