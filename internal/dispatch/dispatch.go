// SPDX-License-Identifier: AGPL-3.0-or-later

/*

Content Release Store - a versioned, multi-tenant repository of named JSON
documents grouped into immutable-once-published releases.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package dispatch is the single front door onto the release package: one
// Dispatcher exposing every named operation, shaping its response as
// either native Go values or plain JSON-ready values depending on Mode
// (§4.8).
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contentrelease/store/internal/release"
)

// Mode selects how a Dispatcher renders Response.Content.
type Mode string

const (
	// ModeNative returns domain objects (*release.Release, etc.) as-is.
	ModeNative Mode = "native"
	// ModeJSON returns a plain map/slice tree ready for json.Marshal,
	// with uuid.UUID as string, release.Status as its wire name, and
	// timestamps formatted per DATETIME_FORMAT (§6).
	ModeJSON Mode = "json"
)

// DatetimeFormat is the single repo-wide JSON-mode timestamp format
// constant named in §6 — ISO 8601 with timezone.
const DatetimeFormat = time.RFC3339

// Response is the uniform envelope every operation returns (§6).
type Response struct {
	Status    string            `json:"status"`
	Content   any               `json:"content,omitempty"`
	ErrorCode release.ErrorCode `json:"error_code,omitempty"`
}

func success(content any) Response {
	return Response{Status: "success", Content: content}
}

func failure(code release.ErrorCode) Response {
	return Response{Status: "error", ErrorCode: code}
}

// Dispatcher is the operation surface described in §4.8. It holds no
// state beyond the Manager and rendering Mode it was constructed with.
type Dispatcher struct {
	manager *release.Manager
	mode    Mode
}

// New constructs a Dispatcher. Construction with any mode other than
// ModeNative/ModeJSON fails with a descriptive error (§4.8).
func New(manager *release.Manager, mode Mode) (*Dispatcher, error) {
	switch mode {
	case ModeNative, ModeJSON:
	default:
		return nil, fmt.Errorf("dispatch: unknown mode %q", mode)
	}
	return &Dispatcher{manager: manager, mode: mode}, nil
}

// respond converts content to the Dispatcher's output shape and wraps it
// in a success Response. err, if non-nil, short-circuits to a failure
// Response carrying its release.ErrorCode (or a generic internal error
// code for anything unclassified, which should never happen for a
// well-behaved Store).
func (d *Dispatcher) respond(content any, err error) Response {
	if err != nil {
		if code, ok := release.CodeOf(err); ok {
			return failure(code)
		}
		return failure(release.ErrorCode("internal_error"))
	}
	if d.mode == ModeNative {
		return success(content)
	}
	return success(shapeJSON(content))
}

func (d *Dispatcher) AddContentRelease(ctx context.Context, siteCode, title, version string, baseReleaseUUID *uuid.UUID, useCurrentLiveAsBase bool) Response {
	rel, err := d.manager.AddContentRelease(ctx, siteCode, title, version, baseReleaseUUID, useCurrentLiveAsBase)
	return d.respond(rel, err)
}

func (d *Dispatcher) RemoveContentRelease(ctx context.Context, siteCode string, id uuid.UUID) Response {
	err := d.manager.RemoveContentRelease(ctx, siteCode, id)
	return d.respond(nil, err)
}

func (d *Dispatcher) UpdateContentRelease(ctx context.Context, siteCode string, id uuid.UUID, title, version *string, baseReleaseUUID *uuid.UUID, clearBaseRelease bool) Response {
	rel, err := d.manager.UpdateContentRelease(ctx, siteCode, id, title, version, baseReleaseUUID, clearBaseRelease)
	return d.respond(rel, err)
}

func (d *Dispatcher) UpdateContentReleaseParameters(ctx context.Context, id uuid.UUID, rel *release.Release, params map[string]string, clearFirst bool) Response {
	var err error
	if clearFirst {
		err = d.manager.ReplaceExtraParameters(ctx, rel, params)
	} else {
		err = d.manager.SetExtraParameters(ctx, rel, params)
	}
	if err != nil {
		return d.respond(nil, err)
	}
	got, err := d.manager.GetExtraParameters(ctx, rel)
	return d.respond(got, err)
}

func (d *Dispatcher) GetContentReleaseDetails(ctx context.Context, siteCode string, id uuid.UUID) Response {
	rel, err := d.manager.GetContentReleaseDetails(ctx, siteCode, id)
	return d.respond(rel, err)
}

func (d *Dispatcher) GetContentReleaseDetailsQueryParameters(ctx context.Context, siteCode string, params map[string]string) Response {
	rel, err := d.manager.GetContentReleaseDetailsByParameters(ctx, siteCode, params)
	return d.respond(rel, err)
}

func (d *Dispatcher) SetStageContentRelease(ctx context.Context, siteCode string, id uuid.UUID) Response {
	rel, err := d.manager.SetStage(ctx, siteCode, id)
	return d.respond(rel, err)
}

func (d *Dispatcher) SetLiveContentRelease(ctx context.Context, siteCode string, id uuid.UUID) Response {
	rel, err := d.manager.SetLive(ctx, siteCode, id)
	return d.respond(rel, err)
}

func (d *Dispatcher) FreezeContentRelease(ctx context.Context, siteCode string, id uuid.UUID, publishDatetime time.Time) Response {
	rel, err := d.manager.Freeze(ctx, siteCode, id, publishDatetime)
	return d.respond(rel, err)
}

func (d *Dispatcher) UnfreezeContentRelease(ctx context.Context, siteCode string, id uuid.UUID) Response {
	rel, err := d.manager.Unfreeze(ctx, siteCode, id)
	return d.respond(rel, err)
}

func (d *Dispatcher) ArchiveContentRelease(ctx context.Context, siteCode string, id uuid.UUID) Response {
	rel, err := d.manager.Archive(ctx, siteCode, id)
	return d.respond(rel, err)
}

func (d *Dispatcher) UnarchiveContentRelease(ctx context.Context, siteCode string, id uuid.UUID) Response {
	rel, err := d.manager.Unarchive(ctx, siteCode, id)
	return d.respond(rel, err)
}

func (d *Dispatcher) GetLiveContentRelease(ctx context.Context, siteCode string) Response {
	rel, err := d.manager.GetLiveContentRelease(ctx, siteCode)
	return d.respond(rel, err)
}

func (d *Dispatcher) ListContentReleases(ctx context.Context, siteCode string, status *release.Status, since *time.Time) Response {
	rels, err := d.manager.ListContentReleases(ctx, siteCode, status, since)
	return d.respond(rels, err)
}

func (d *Dispatcher) PublishDocumentToContentRelease(ctx context.Context, rel *release.Release, key release.DocKey, documentJSON []byte, params map[string]string) Response {
	created, err := d.manager.PublishDocument(ctx, rel, key, documentJSON, params)
	return d.respond(map[string]any{"created": created}, err)
}

func (d *Dispatcher) UnpublishDocumentFromContentRelease(ctx context.Context, rel *release.Release, key release.DocKey) Response {
	err := d.manager.UnpublishDocument(ctx, rel, key)
	return d.respond(nil, err)
}

func (d *Dispatcher) DeleteDocumentFromContentRelease(ctx context.Context, rel *release.Release, key release.DocKey) Response {
	err := d.manager.DeleteDocument(ctx, rel, key)
	return d.respond(nil, err)
}

func (d *Dispatcher) GetDocumentFromContentRelease(ctx context.Context, siteCode string, rel *release.Release, key release.DocKey) Response {
	doc, err := d.manager.GetDocument(ctx, siteCode, rel, key)
	return d.respond(doc, err)
}

func (d *Dispatcher) GetDocumentExtraFromContentRelease(ctx context.Context, siteCode string, rel *release.Release, key release.DocKey) Response {
	params, err := d.manager.GetDocumentExtra(ctx, siteCode, rel, key)
	return d.respond(params, err)
}

func (d *Dispatcher) GetExtraParameter(ctx context.Context, rel *release.Release, name string) Response {
	v, err := d.manager.GetExtraParameter(ctx, rel, name)
	return d.respond(v, err)
}

func (d *Dispatcher) GetExtraParameters(ctx context.Context, rel *release.Release) Response {
	params, err := d.manager.GetExtraParameters(ctx, rel)
	return d.respond(params, err)
}

func (d *Dispatcher) CompareContentReleases(ctx context.Context, siteCode string, releaseFrom, releaseTo *release.Release) Response {
	result, err := d.manager.Compare(ctx, siteCode, releaseFrom, releaseTo)
	return d.respond(result, err)
}
