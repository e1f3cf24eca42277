// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"encoding/json"

	"github.com/contentrelease/store/internal/release"
)

// shapeJSON renders a domain value into the plain map/slice/string tree
// ModeJSON promises: uuid.UUID as string, release.Status as its wire
// name, timestamps as DatetimeFormat, everything else passed through
// json.Marshal/Unmarshal for a generic representation (§6).
func shapeJSON(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case *release.Release:
		return shapeRelease(val)
	case []*release.Release:
		out := make([]any, len(val))
		for i, r := range val {
			out[i] = shapeRelease(r)
		}
		return out
	case *release.ReleaseDocument:
		return shapeDocument(val)
	case *release.CompareResult:
		return map[string]any{
			"added":   shapeChangeRecords(val.Added),
			"changed": shapeChangeRecords(val.Changed),
			"removed": shapeChangeRecords(val.Removed),
		}
	default:
		return genericShape(v)
	}
}

func shapeRelease(r *release.Release) map[string]any {
	if r == nil {
		return nil
	}
	out := map[string]any{
		"uuid":                            r.UUID.String(),
		"site_code":                       r.SiteCode,
		"title":                           r.Title,
		"version":                         r.Version,
		"status":                          r.Status.String(),
		"is_live":                         r.IsLive,
		"use_current_live_as_base_release": r.UseCurrentLiveAsBaseRelease,
		"created_at":                      r.CreatedAt.Format(DatetimeFormat),
		"updated_at":                      r.UpdatedAt.Format(DatetimeFormat),
	}
	if r.PublishDatetime != nil {
		out["publish_datetime"] = r.PublishDatetime.Format(DatetimeFormat)
	} else {
		out["publish_datetime"] = nil
	}
	if r.BaseRelease != nil {
		out["base_release"] = r.BaseRelease.String()
	} else {
		out["base_release"] = nil
	}
	return out
}

func shapeDocument(d *release.ReleaseDocument) map[string]any {
	if d == nil {
		return nil
	}
	var content any
	_ = json.Unmarshal(d.DocumentJSON, &content)
	return map[string]any{
		"uuid":         d.UUID.String(),
		"document_key": d.DocumentKey,
		"content_type": d.ContentType,
		"document":     content,
		"deleted":      d.Deleted,
	}
}

func shapeChangeRecords(records []*release.ChangeRecord) []any {
	out := make([]any, len(records))
	for i, r := range records {
		entry := map[string]any{
			"document_key": r.Key.DocumentKey,
			"content_type": r.Key.ContentType,
			"kind":         string(r.Kind),
		}
		switch r.Kind {
		case release.ChangeChanged:
			entry["parameters"] = map[string]any{
				"release_from":       r.ReleaseFromParams,
				"release_compare_to": r.ReleaseCompareToParams,
			}
		case release.ChangeAdded:
			entry["parameters"] = r.ReleaseFromParams
		case release.ChangeRemoved:
			entry["parameters"] = r.ReleaseCompareToParams
		}
		out[i] = entry
	}
	return out
}

// genericShape round-trips v through json.Marshal/Unmarshal, giving a
// plain map/slice/primitive tree for values with no special-cased shape
// (e.g. map[string]string parameter sets, scalars).
func genericShape(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
