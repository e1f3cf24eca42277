// SPDX-License-Identifier: AGPL-3.0-or-later

package release

import (
	"bytes"
	"context"
	"sort"
)

// ChangeKind classifies one document's difference between two effective
// views (§4.6).
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "ADDED"
	ChangeChanged ChangeKind = "CHANGED"
	ChangeRemoved ChangeKind = "REMOVED"
)

// ChangeRecord is one document's entry in a Compare result.
//
// ReleaseFromParams and ReleaseCompareToParams carry the resolved document's
// own extra parameters on each side, so a caller comparing releases under
// different parameter overrides can tell which set of values produced the
// content on each side (§4.6.3, §4.7).
type ChangeRecord struct {
	Key                    DocKey
	Kind                   ChangeKind
	ReleaseFromParams      map[string]string
	ReleaseCompareToParams map[string]string
}

// CompareResult groups a diff's records by kind, each sorted ascending by
// (document_key, content_type).
type CompareResult struct {
	Added   []*ChangeRecord
	Changed []*ChangeRecord
	Removed []*ChangeRecord
}

// Compare computes the document-level difference of releaseFrom's
// effective view against releaseTo's effective view (§4.6):
//
//   - ADDED: visible in releaseFrom, not visible (absent or tombstoned) in
//     releaseTo.
//   - CHANGED: visible in both, with differing document_json bytes.
//   - REMOVED: visible in releaseTo, not visible in releaseFrom.
//
// Compare itself opens no transaction; run inside a Store.WithTx(ctx,
// IsoRepeatableRead, ...) block (as Manager.Compare does), both views come
// from a single consistent read, so a concurrent publish can't produce a
// torn comparison (§5).
func Compare(ctx context.Context, store Store, siteCode string, releaseFrom, releaseTo *Release) (*CompareResult, error) {
	viewFrom, err := EffectiveView(ctx, store, siteCode, releaseFrom)
	if err != nil {
		return nil, err
	}
	viewTo, err := EffectiveView(ctx, store, siteCode, releaseTo)
	if err != nil {
		return nil, err
	}

	result := &CompareResult{}

	for key, doc := range viewFrom.Documents {
		other, ok := viewTo.Get(key)
		switch {
		case !ok:
			fromParams, err := store.DocumentParameters(ctx, doc.UUID)
			if err != nil {
				return nil, err
			}
			result.Added = append(result.Added, &ChangeRecord{
				Key:               key,
				Kind:              ChangeAdded,
				ReleaseFromParams: fromParams,
			})
		case !bytes.Equal(doc.DocumentJSON, other.DocumentJSON):
			fromParams, err := store.DocumentParameters(ctx, doc.UUID)
			if err != nil {
				return nil, err
			}
			toParams, err := store.DocumentParameters(ctx, other.UUID)
			if err != nil {
				return nil, err
			}
			result.Changed = append(result.Changed, &ChangeRecord{
				Key:                    key,
				Kind:                   ChangeChanged,
				ReleaseFromParams:      fromParams,
				ReleaseCompareToParams: toParams,
			})
		}
	}

	for key, doc := range viewTo.Documents {
		if _, ok := viewFrom.Get(key); !ok {
			toParams, err := store.DocumentParameters(ctx, doc.UUID)
			if err != nil {
				return nil, err
			}
			result.Removed = append(result.Removed, &ChangeRecord{
				Key:                    key,
				Kind:                   ChangeRemoved,
				ReleaseCompareToParams: toParams,
			})
		}
	}

	sortRecords(result.Added)
	sortRecords(result.Changed)
	sortRecords(result.Removed)

	return result, nil
}

// Compare runs Compare(ctx, store, ...) against the Manager's own Store
// inside a WithTx(ctx, IsoRepeatableRead, ...) block, so the two views are
// taken from a single snapshot (§5).
func (m *Manager) Compare(ctx context.Context, siteCode string, releaseFrom, releaseTo *Release) (*CompareResult, error) {
	var result *CompareResult
	err := m.store.WithTx(ctx, IsoRepeatableRead, func(ctx context.Context) error {
		var err error
		result, err = Compare(ctx, m.store, siteCode, releaseFrom, releaseTo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func sortRecords(records []*ChangeRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i].Key, records[j].Key
		if a.DocumentKey != b.DocumentKey {
			return a.DocumentKey < b.DocumentKey
		}
		return a.ContentType < b.ContentType
	})
}
