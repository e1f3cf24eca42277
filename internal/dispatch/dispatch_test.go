// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch_test

import (
	"context"
	"testing"

	"github.com/contentrelease/store/internal/dispatch"
	"github.com/contentrelease/store/internal/release"
	"github.com/contentrelease/store/internal/release/releasetest"
)

func TestNew_RejectsUnknownMode(t *testing.T) {
	mgr := release.NewManager(releasetest.New(), nil)
	if _, err := dispatch.New(mgr, dispatch.Mode("bogus")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestDispatcher_NativeMode_ReturnsDomainObject(t *testing.T) {
	mgr := release.NewManager(releasetest.New(), nil)
	d, err := dispatch.New(mgr, dispatch.ModeNative)
	if err != nil {
		t.Fatal(err)
	}

	resp := d.AddContentRelease(context.Background(), "site1", "t1", "0.0.1", nil, false)
	if resp.Status != "success" {
		t.Fatalf("expected success, got %+v", resp)
	}
	rel, ok := resp.Content.(*release.Release)
	if !ok {
		t.Fatalf("expected native *release.Release, got %T", resp.Content)
	}
	if rel.Title != "t1" {
		t.Fatalf("unexpected release: %+v", rel)
	}
}

func TestDispatcher_JSONMode_ShapesContent(t *testing.T) {
	mgr := release.NewManager(releasetest.New(), nil)
	d, err := dispatch.New(mgr, dispatch.ModeJSON)
	if err != nil {
		t.Fatal(err)
	}

	resp := d.AddContentRelease(context.Background(), "site1", "t1", "0.0.1", nil, false)
	if resp.Status != "success" {
		t.Fatalf("expected success, got %+v", resp)
	}
	shaped, ok := resp.Content.(map[string]any)
	if !ok {
		t.Fatalf("expected shaped map, got %T", resp.Content)
	}
	if shaped["status"] != release.StatusPreview.String() {
		t.Fatalf("expected status PREVIEW, got %+v", shaped["status"])
	}
	if _, ok := shaped["uuid"].(string); !ok {
		t.Fatalf("expected uuid rendered as string, got %T", shaped["uuid"])
	}
}

func TestDispatcher_ErrorResponse_CarriesCode(t *testing.T) {
	mgr := release.NewManager(releasetest.New(), nil)
	d, err := dispatch.New(mgr, dispatch.ModeNative)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.AddContentRelease(context.Background(), "site1", "t1", "0.0.1", nil, false); err != nil {
		t.Fatal(err)
	}
	resp := d.AddContentRelease(context.Background(), "site1", "t1", "0.0.1", nil, false)
	if resp.Status != "error" || resp.ErrorCode != release.ErrContentReleaseAlreadyExists {
		t.Fatalf("expected content_release_already_exists error, got %+v", resp)
	}
}
