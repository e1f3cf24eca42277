// SPDX-License-Identifier: AGPL-3.0-or-later

package release

import (
	"time"

	"github.com/google/uuid"
)

// Status is a Release's position in the PREVIEW → FREEZE → LIVE → ARCHIVED
// lifecycle. The underlying values are part of the wire contract (§3).
type Status int16

const (
	StatusPreview Status = iota
	StatusFreeze
	StatusLive
	StatusArchived
)

// String returns the wire status name used in JSON-mode responses (§6).
func (s Status) String() string {
	switch s {
	case StatusPreview:
		return "PREVIEW"
	case StatusFreeze:
		return "FREEZE"
	case StatusLive:
		return "LIVE"
	case StatusArchived:
		return "ARCHIVED"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus parses a wire status name back into a Status. It returns false
// for any name outside the four documented states.
func ParseStatus(name string) (Status, bool) {
	switch name {
	case "PREVIEW":
		return StatusPreview, true
	case "FREEZE":
		return StatusFreeze, true
	case "LIVE":
		return StatusLive, true
	case "ARCHIVED":
		return StatusArchived, true
	default:
		return 0, false
	}
}

// Release is a named version of a content snapshot within a site.
//
// Values returned from Manager/Store methods are read-only snapshots —
// callers that want to mutate one and persist the change go through a
// Manager method, never by writing back to a Store directly.
type Release struct {
	UUID     uuid.UUID
	SiteCode string
	Title    string
	Version  string
	Status   Status

	// IsLive is true only for the single release per site currently
	// promoted to LIVE (invariant 1, §3).
	IsLive bool

	// PublishDatetime is the scheduled or actual LIVE promotion time. Nil
	// until Freeze schedules it or SetLive sets it; Unfreeze clears it, and
	// SetStage moves a release to FREEZE without setting it.
	PublishDatetime *time.Time

	// BaseRelease is the explicit baseline for inherited documents, or nil.
	BaseRelease *uuid.UUID

	// UseCurrentLiveAsBaseRelease records whether the caller asked for the
	// implicit-base behavior at creation time (§4.3), even when no live
	// release existed to snapshot.
	UseCurrentLiveAsBaseRelease bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep-enough copy of r so callers can't mutate a cached or
// returned Release out from under the store.
func (r *Release) Clone() *Release {
	if r == nil {
		return nil
	}
	clone := *r
	if r.PublishDatetime != nil {
		t := *r.PublishDatetime
		clone.PublishDatetime = &t
	}
	if r.BaseRelease != nil {
		b := *r.BaseRelease
		clone.BaseRelease = &b
	}
	return &clone
}

// DocKey identifies a document within a release's (or the effective view's)
// namespace. Two documents with the same key but different content types
// are distinct entities (§3).
type DocKey struct {
	DocumentKey string
	ContentType string
}

// DefaultContentType is used whenever a caller omits content_type.
const DefaultContentType = "content"

// NormalizeContentType applies the §3 default.
func NormalizeContentType(contentType string) string {
	if contentType == "" {
		return DefaultContentType
	}
	return contentType
}

// ReleaseDocument is the stored document content attached to one or more
// releases. A ReleaseDocument with Deleted=true is a tombstone: it exists
// solely to mask same-key documents in base releases and contributes no
// content (invariant 5, §3).
type ReleaseDocument struct {
	UUID         uuid.UUID
	DocumentKey  string
	ContentType  string
	DocumentJSON []byte
	Deleted      bool
}

// Key returns the (document_key, content_type) identity diff and lookup
// operate on.
func (d *ReleaseDocument) Key() DocKey {
	return DocKey{DocumentKey: d.DocumentKey, ContentType: d.ContentType}
}
