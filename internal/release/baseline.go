// SPDX-License-Identifier: AGPL-3.0-or-later

package release

import (
	"context"

	"github.com/google/uuid"
)

// maxBaseChainDepth bounds the number of hops baseChain will follow before
// declaring the chain malformed. A legitimate base chain should never
// approach this; it exists purely as a backstop against a bug elsewhere
// producing a link cycle that visited-set detection alone would still
// catch, but a depth cap fails faster and cheaper on a long chain.
const maxBaseChainDepth = 64

// baseChain resolves rel's baseline chain: rel itself first, then each
// base_release in order, stopping at the first release with no
// base_release or at an ARCHIVED release (an ARCHIVED release is the
// inclusive last node — it contributes its own documents but its base, if
// any, is not followed further; §4.3).
//
// A release_id reappearing while walking the chain is reported as
// ErrReleaseChainCycle rather than looped forever.
func baseChain(ctx context.Context, store Store, siteCode string, rel *Release) ([]*Release, error) {
	chain := make([]*Release, 0, 4)
	visited := make(map[uuid.UUID]struct{}, 4)

	cur := rel
	for {
		if _, seen := visited[cur.UUID]; seen {
			return nil, NewError(ErrReleaseChainCycle)
		}
		visited[cur.UUID] = struct{}{}
		chain = append(chain, cur)

		if len(chain) > maxBaseChainDepth {
			return nil, NewError(ErrReleaseChainCycle)
		}

		if cur.Status == StatusArchived {
			return chain, nil
		}
		if cur.BaseRelease == nil {
			return chain, nil
		}

		base, err := store.FindRelease(ctx, siteCode, *cur.BaseRelease)
		if err != nil {
			if isNotFound(err) {
				return nil, NewError(ErrBaseContentReleaseDoesNotExist)
			}
			return nil, err
		}
		cur = base
	}
}
