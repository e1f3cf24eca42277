// SPDX-License-Identifier: AGPL-3.0-or-later

package release

import "context"

// GetExtraParameters returns every release-scoped parameter key/value pair
// attached directly to rel (§4.7). It does not resolve parameters through
// the base chain — parameters are per-release, not inherited.
func (m *Manager) GetExtraParameters(ctx context.Context, rel *Release) (map[string]string, error) {
	return m.store.ReleaseParameters(ctx, rel.UUID)
}

// GetExtraParameter returns a single release-scoped parameter value. It
// returns ErrContentReleaseExtraParamDoesNotExist if name is not set on
// rel.
func (m *Manager) GetExtraParameter(ctx context.Context, rel *Release, name string) (string, error) {
	params, err := m.store.ReleaseParameters(ctx, rel.UUID)
	if err != nil {
		return "", err
	}
	v, ok := params[name]
	if !ok {
		return "", NewError(ErrContentReleaseExtraParamDoesNotExist)
	}
	return v, nil
}

// SetExtraParameters merges params into rel's parameter set, overwriting
// any existing values for the same key and leaving keys not present in
// params untouched.
func (m *Manager) SetExtraParameters(ctx context.Context, rel *Release, params map[string]string) error {
	return m.store.ReplaceReleaseParameters(ctx, rel.UUID, params, false)
}

// ReplaceExtraParameters discards rel's existing parameter set entirely
// and replaces it with params.
func (m *Manager) ReplaceExtraParameters(ctx context.Context, rel *Release, params map[string]string) error {
	return m.store.ReplaceReleaseParameters(ctx, rel.UUID, params, true)
}

// FindReleasesByParameters returns every release in siteCode whose
// parameter set is a superset of params — every key in params must be
// present with the same value (§4.7). A nil or empty params matches every
// release in the site.
func (m *Manager) FindReleasesByParameters(ctx context.Context, siteCode string, params map[string]string) ([]*Release, error) {
	return m.store.FindReleasesByParameters(ctx, siteCode, params)
}
