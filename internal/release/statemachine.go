// SPDX-License-Identifier: AGPL-3.0-or-later

package release

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/contentrelease/store/pkg/logging"
)

// Manager is the release lifecycle and diff engine built atop a Store. It
// holds no domain state of its own — every read and write goes through the
// Store — and is safe for concurrent use by multiple goroutines/requests.
type Manager struct {
	store Store
	log   logging.Logger
	now   func() time.Time
}

// NewManager constructs a Manager. log may be nil, in which case a no-op
// logger is used.
func NewManager(store Store, log logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{store: store, log: log, now: time.Now}
}

// WithClock returns a copy of m using now as its time source, for
// deterministic tests. Grounded on the teacher's newTestManager
// clock-injection pattern.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	clone := *m
	clone.now = now
	return &clone
}

// AddContentRelease creates a new release in PREVIEW.
//
// If useCurrentLiveAsBase is true, the resolver snapshots the site's
// current live release uuid into base_release at creation time; if no
// release is live, base_release stays nil but the flag is retained
// informationally (§4.3). If baseReleaseUUID is non-nil it takes priority
// and must exist on the site, or the call fails
// ErrBaseContentReleaseDoesNotExist.
func (m *Manager) AddContentRelease(ctx context.Context, siteCode, title, version string, baseReleaseUUID *uuid.UUID, useCurrentLiveAsBase bool) (*Release, error) {
	if existing, err := m.store.FindReleaseByTitleVersion(ctx, siteCode, title, version); err == nil && existing != nil {
		return nil, NewError(ErrContentReleaseAlreadyExists)
	} else if err != nil && !isNotFound(err) {
		return nil, err
	}

	rel := &Release{
		UUID:                        uuid.New(),
		SiteCode:                    siteCode,
		Title:                       title,
		Version:                     version,
		Status:                      StatusPreview,
		UseCurrentLiveAsBaseRelease: useCurrentLiveAsBase,
		CreatedAt:                   m.now(),
		UpdatedAt:                   m.now(),
	}

	switch {
	case baseReleaseUUID != nil:
		base, err := m.store.FindRelease(ctx, siteCode, *baseReleaseUUID)
		if err != nil {
			if isNotFound(err) {
				return nil, NewError(ErrBaseContentReleaseDoesNotExist)
			}
			return nil, err
		}
		rel.BaseRelease = &base.UUID
	case useCurrentLiveAsBase:
		if live, err := m.store.FindCurrentLive(ctx, siteCode); err == nil && live != nil {
			rel.BaseRelease = &live.UUID
		} else if err != nil && !isNoLive(err) {
			return nil, err
		}
	}

	if err := m.store.CreateRelease(ctx, rel); err != nil {
		if isDuplicate(err) {
			return nil, NewError(ErrContentReleaseAlreadyExists)
		}
		return nil, err
	}
	return rel, nil
}

// RemoveContentRelease deletes a release. Deletion cascades to its
// parameters and to its m2m bond with documents but never deletes a
// document shared with another release (§3.6).
func (m *Manager) RemoveContentRelease(ctx context.Context, siteCode string, id uuid.UUID) error {
	if _, err := m.mustFind(ctx, siteCode, id); err != nil {
		return err
	}
	return m.store.DeleteRelease(ctx, siteCode, id)
}

// UpdateContentRelease overwrites title/version/base_release on an
// existing release. Passing nil for a pointer field leaves it unchanged.
func (m *Manager) UpdateContentRelease(ctx context.Context, siteCode string, id uuid.UUID, title, version *string, baseReleaseUUID *uuid.UUID, clearBaseRelease bool) (*Release, error) {
	rel, err := m.mustFind(ctx, siteCode, id)
	if err != nil {
		return nil, err
	}

	if title != nil {
		rel.Title = *title
	}
	if version != nil {
		rel.Version = *version
	}
	if clearBaseRelease {
		rel.BaseRelease = nil
	} else if baseReleaseUUID != nil {
		if _, err := m.store.FindRelease(ctx, siteCode, *baseReleaseUUID); err != nil {
			if isNotFound(err) {
				return nil, NewError(ErrBaseContentReleaseDoesNotExist)
			}
			return nil, err
		}
		rel.BaseRelease = baseReleaseUUID
	}
	rel.UpdatedAt = m.now()

	if err := m.store.UpdateRelease(ctx, rel); err != nil {
		if isDuplicate(err) {
			return nil, NewError(ErrContentReleaseAlreadyExists)
		}
		return nil, err
	}
	return rel, nil
}

// GetContentReleaseDetails looks up a release by uuid.
func (m *Manager) GetContentReleaseDetails(ctx context.Context, siteCode string, id uuid.UUID) (*Release, error) {
	return m.mustFind(ctx, siteCode, id)
}

// GetContentReleaseDetailsByParameters resolves exactly one release whose
// parameter set is a superset of params (§4.7).
func (m *Manager) GetContentReleaseDetailsByParameters(ctx context.Context, siteCode string, params map[string]string) (*Release, error) {
	if len(params) == 0 {
		return nil, NewError(ErrParametersMissing)
	}
	matches, err := m.store.FindReleasesByParameters(ctx, siteCode, params)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, NewError(ErrContentReleaseDoesNotExist)
	case 1:
		return matches[0], nil
	default:
		return nil, NewError(ErrContentReleaseMoreThanOne)
	}
}

// ListContentReleases lists releases on a site, optionally filtered by
// status and/or a "created since" timestamp.
func (m *Manager) ListContentReleases(ctx context.Context, siteCode string, status *Status, since *time.Time) ([]*Release, error) {
	return m.store.ListReleases(ctx, siteCode, status, since)
}

// GetLiveContentRelease returns the site's currently-live release, or
// ErrNoContentReleaseLive if none is live.
func (m *Manager) GetLiveContentRelease(ctx context.Context, siteCode string) (*Release, error) {
	rel, err := m.store.FindCurrentLive(ctx, siteCode)
	if err != nil {
		if isNoLive(err) {
			return nil, NewError(ErrNoContentReleaseLive)
		}
		return nil, err
	}
	return rel, nil
}

// SetStage moves a PREVIEW release directly to FREEZE without scheduling
// a publish_datetime, to be followed immediately by SetLive (§4.2).
func (m *Manager) SetStage(ctx context.Context, siteCode string, id uuid.UUID) (*Release, error) {
	rel, err := m.mustFind(ctx, siteCode, id)
	if err != nil {
		return nil, err
	}
	if rel.Status != StatusPreview {
		return nil, NewError(ErrContentReleaseNotPublish)
	}
	rel.Status = StatusFreeze
	rel.UpdatedAt = m.now()
	if err := m.store.UpdateRelease(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// Freeze moves a PREVIEW release to FREEZE with a scheduled
// publish_datetime that must be in the future (§4.2).
func (m *Manager) Freeze(ctx context.Context, siteCode string, id uuid.UUID, publishDatetime time.Time) (*Release, error) {
	rel, err := m.mustFind(ctx, siteCode, id)
	if err != nil {
		return nil, err
	}
	if publishDatetime.IsZero() {
		return nil, NewError(ErrNotDatetime)
	}
	if !publishDatetime.After(m.now()) {
		return nil, NewError(ErrPublishDatetimeInPast)
	}
	if rel.Status != StatusPreview {
		return nil, NewError(ErrContentReleasePublish)
	}

	rel.Status = StatusFreeze
	rel.PublishDatetime = &publishDatetime
	rel.UpdatedAt = m.now()
	if err := m.store.UpdateRelease(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// Unfreeze returns a FREEZE release to PREVIEW, as long as it has not yet
// been published (§4.2).
func (m *Manager) Unfreeze(ctx context.Context, siteCode string, id uuid.UUID) (*Release, error) {
	rel, err := m.mustFind(ctx, siteCode, id)
	if err != nil {
		return nil, err
	}
	if rel.Status != StatusFreeze {
		return nil, NewError(ErrContentReleasePublish)
	}

	rel.Status = StatusPreview
	rel.PublishDatetime = nil
	rel.UpdatedAt = m.now()
	if err := m.store.UpdateRelease(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// SetLive promotes id to LIVE, atomically demoting whichever release on
// the site currently holds is_live (§4.2). The serializable transaction is
// the correctness boundary: concurrent promotions on the same site (even of
// distinct targets) are left to run their own transactions and serialize
// against each other at the database (§5).
func (m *Manager) SetLive(ctx context.Context, siteCode string, id uuid.UUID) (*Release, error) {
	var promoted *Release
	txErr := m.store.WithTx(ctx, IsoSerializable, func(ctx context.Context) error {
		rel, err := m.store.FindRelease(ctx, siteCode, id)
		if err != nil {
			if isNotFound(err) {
				return NewError(ErrContentReleaseDoesNotExist)
			}
			return err
		}
		if rel.Status != StatusPreview && rel.Status != StatusFreeze {
			return NewError(ErrContentReleasePublish)
		}

		now := m.now()
		if current, err := m.store.FindCurrentLive(ctx, siteCode); err == nil && current != nil && current.UUID != rel.UUID {
			current.IsLive = false
			current.Status = StatusArchived
			current.UpdatedAt = now
			if err := m.store.UpdateRelease(ctx, current); err != nil {
				return err
			}
		} else if err != nil && !isNoLive(err) {
			return err
		}

		rel.Status = StatusLive
		rel.IsLive = true
		rel.PublishDatetime = &now
		rel.UpdatedAt = now
		if err := m.store.UpdateRelease(ctx, rel); err != nil {
			return err
		}
		promoted = rel
		return nil
	})
	if txErr != nil {
		m.log.Error("set_live failed", logging.Field{Key: "site_code", Value: siteCode}, logging.Field{Key: "release_id", Value: id.String()}, logging.Field{Key: "error", Value: txErr.Error()})
		return nil, txErr
	}
	return promoted, nil
}

// Archive moves a LIVE release to ARCHIVED. Fails
// ErrContentReleaseNotPublish if the release was never LIVE (§4.2).
func (m *Manager) Archive(ctx context.Context, siteCode string, id uuid.UUID) (*Release, error) {
	rel, err := m.mustFind(ctx, siteCode, id)
	if err != nil {
		return nil, err
	}
	if rel.Status != StatusLive {
		return nil, NewError(ErrContentReleaseNotPublish)
	}

	rel.Status = StatusArchived
	rel.IsLive = false
	rel.UpdatedAt = m.now()
	if err := m.store.UpdateRelease(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// Unarchive restores an ARCHIVED release to LIVE, provided the release
// was previously published and no other release currently holds is_live
// on the site. Unlike SetLive, Unarchive never demotes an existing live
// release — doing so silently would let two callers fight over which
// release is live without the serialized promotion protocol arbitrating,
// so a live conflict is reported as ErrContentReleasePublish instead
// (invariant 1; decided ambiguity, see design notes). The release's
// original publish_datetime is preserved.
func (m *Manager) Unarchive(ctx context.Context, siteCode string, id uuid.UUID) (*Release, error) {
	var promoted *Release
	err := m.store.WithTx(ctx, IsoSerializable, func(ctx context.Context) error {
		rel, err := m.store.FindRelease(ctx, siteCode, id)
		if err != nil {
			if isNotFound(err) {
				return NewError(ErrContentReleaseDoesNotExist)
			}
			return err
		}
		if rel.Status != StatusArchived {
			return NewError(ErrContentReleaseNotPublish)
		}
		if rel.PublishDatetime == nil {
			return NewError(ErrContentReleaseNotPublish)
		}
		if current, err := m.store.FindCurrentLive(ctx, siteCode); err == nil && current != nil {
			return NewError(ErrContentReleasePublish)
		} else if err != nil && !isNoLive(err) {
			return err
		}

		rel.Status = StatusLive
		rel.IsLive = true
		rel.UpdatedAt = m.now()
		if err := m.store.UpdateRelease(ctx, rel); err != nil {
			return err
		}
		promoted = rel
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// PromoteDue runs SetLive for every release on siteCode whose status is
// FREEZE and whose publish_datetime has arrived — the core-side query the
// external scheduler collaborator drives (§6).
func (m *Manager) PromoteDue(ctx context.Context, siteCode string, asOf time.Time) ([]*Release, error) {
	due, err := m.store.ListDueForPublish(ctx, siteCode, asOf)
	if err != nil {
		return nil, err
	}
	promoted := make([]*Release, 0, len(due))
	for _, rel := range due {
		p, err := m.SetLive(ctx, siteCode, rel.UUID)
		if err != nil {
			m.log.Warn("scheduled promotion failed", logging.Field{Key: "release_id", Value: rel.UUID.String()}, logging.Field{Key: "error", Value: err.Error()})
			continue
		}
		promoted = append(promoted, p)
	}
	return promoted, nil
}

func (m *Manager) mustFind(ctx context.Context, siteCode string, id uuid.UUID) (*Release, error) {
	rel, err := m.store.FindRelease(ctx, siteCode, id)
	if err != nil {
		if isNotFound(err) {
			return nil, NewError(ErrContentReleaseDoesNotExist)
		}
		return nil, err
	}
	return rel, nil
}

func isNoLive(err error) bool {
	return isNotFound(err)
}
