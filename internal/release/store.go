// SPDX-License-Identifier: AGPL-3.0-or-later

package release

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TxIsolation selects the isolation level a Manager operation needs from
// the Store. The concrete Store implementation (internal/store) maps these
// onto actual database isolation levels; callers never see a driver type.
type TxIsolation int

const (
	// IsoReadCommitted is the default for ordinary multi-row mutations.
	IsoReadCommitted TxIsolation = iota
	// IsoSerializable is required for the set_live promotion protocol so
	// invariant 1 (at most one live release per site) holds under
	// concurrent promotions (§4.2, §5).
	IsoSerializable
	// IsoRepeatableRead is used for compare_content_releases so both
	// effective views are taken from a single snapshot (§4.6, §5).
	IsoRepeatableRead
)

// Store is the persistence adapter the release package depends on. It is
// defined here, by the consumer, rather than in internal/store — the usual
// Go shape for a narrow dependency boundary. internal/store provides the
// Postgres-backed implementation; internal/release/releasetest provides an
// in-memory fake for tests.
//
// Every method is scoped by site_code where the entity it touches carries
// one. Implementations return ErrNotFound / ErrDuplicate (or errors
// wrapping them) so this package can classify the failure without knowing
// about the underlying driver.
type Store interface {
	// WithTx runs fn inside a single transaction at the requested isolation
	// level. Store methods called with the context fn receives participate
	// in that transaction; a non-nil return rolls it back.
	WithTx(ctx context.Context, iso TxIsolation, fn func(ctx context.Context) error) error

	FindRelease(ctx context.Context, siteCode string, id uuid.UUID) (*Release, error)
	FindReleaseByTitleVersion(ctx context.Context, siteCode, title, version string) (*Release, error)
	ListReleases(ctx context.Context, siteCode string, status *Status, since *time.Time) ([]*Release, error)
	FindCurrentLive(ctx context.Context, siteCode string) (*Release, error)
	FindReleasesByParameters(ctx context.Context, siteCode string, params map[string]string) ([]*Release, error)
	ListDueForPublish(ctx context.Context, siteCode string, asOf time.Time) ([]*Release, error)

	CreateRelease(ctx context.Context, rel *Release) error
	UpdateRelease(ctx context.Context, rel *Release) error
	DeleteRelease(ctx context.Context, siteCode string, id uuid.UUID) error

	ReleaseParameters(ctx context.Context, releaseID uuid.UUID) (map[string]string, error)
	ReplaceReleaseParameters(ctx context.Context, releaseID uuid.UUID, params map[string]string, clearFirst bool) error

	// ListAttachedDocuments returns every document directly attached to
	// releaseID, including tombstones, in no particular order. EffectiveView
	// does not depend on this order, since a release has at most one
	// document per (document_key, content_type).
	ListAttachedDocuments(ctx context.Context, releaseID uuid.UUID) ([]*ReleaseDocument, error)
	FindAttachedDocument(ctx context.Context, releaseID uuid.UUID, key, contentType string) (*ReleaseDocument, error)

	// AttachDocument upserts by (release, document_key, content_type): if
	// the triple already exists it is updated in place (created=false),
	// otherwise a new ReleaseDocument is created and linked (created=true).
	AttachDocument(ctx context.Context, releaseID uuid.UUID, doc *ReleaseDocument) (created bool, err error)

	// DetachDocument severs the release/document link. If the document has
	// no remaining links anywhere, the implementation garbage-collects it.
	DetachDocument(ctx context.Context, releaseID uuid.UUID, key, contentType string) error

	DocumentParameters(ctx context.Context, documentID uuid.UUID) (map[string]string, error)
	ReplaceDocumentParameters(ctx context.Context, documentID uuid.UUID, params map[string]string) error
}
