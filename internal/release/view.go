// SPDX-License-Identifier: AGPL-3.0-or-later

package release

import "context"

// View is the effective, fully-resolved set of documents visible for a
// release: its own attached documents, with gaps filled in from its base
// chain, minus anything tombstoned along the way (invariant 5, §4.4).
type View struct {
	Release *Release
	// Documents is keyed by DocKey. A key present here is visible content;
	// a key decided absent (directly deleted, or masking a base document)
	// never appears.
	Documents map[DocKey]*ReleaseDocument
}

// Get looks up a document by key in the effective view.
func (v *View) Get(key DocKey) (*ReleaseDocument, bool) {
	d, ok := v.Documents[key]
	return d, ok
}

// EffectiveView computes the first-wins fold over rel's base chain: rel's
// own documents take priority, then each base release in chain order. A
// tombstone (Deleted=true) at any level is recorded as "decided" and
// permanently masks same-key documents from every release later in the
// chain (invariant 5, §4.4).
func EffectiveView(ctx context.Context, store Store, siteCode string, rel *Release) (*View, error) {
	chain, err := baseChain(ctx, store, siteCode, rel)
	if err != nil {
		return nil, err
	}

	visible := make(map[DocKey]*ReleaseDocument)
	decided := make(map[DocKey]struct{})

	for _, node := range chain {
		docs, err := store.ListAttachedDocuments(ctx, node.UUID)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			key := d.Key()
			if _, already := decided[key]; already {
				continue
			}
			decided[key] = struct{}{}
			if d.Deleted {
				continue
			}
			visible[key] = d
		}
	}

	return &View{Release: rel, Documents: visible}, nil
}
