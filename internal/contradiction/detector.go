// Package contradiction finds conflicting evidence pairs once both halves are
// collected and tracks their resolution.
package contradiction

import (
	"time"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/errs"
	"github.com/danielpatrickdp/casefiles/internal/progress"
)

// #region types

// Discovery is a contradiction becoming visible to the player.
type Discovery struct {
	ID string
	At time.Time
}

// Resolution is the player's explanation of a discovered contradiction.
type Resolution struct {
	Text string
	At   time.Time
}

// #endregion types

// #region detect
// Detect returns the definitions not yet in discovered whose two evidence
// items are both collected in st, in definition order, stamped with now.
// The discovered map is only read.
func Detect(st progress.State, defs []casedata.ContradictionDef, discovered map[string]time.Time, now time.Time) []Discovery {
	var found []Discovery
	for _, d := range defs {
		if _, ok := discovered[d.ID]; ok {
			continue
		}
		if st.Has(d.Evidence[0]) && st.Has(d.Evidence[1]) {
			found = append(found, Discovery{ID: d.ID, At: now.UTC()})
		}
	}
	return found
}

// #endregion detect

// #region resolve
// Resolve returns a copy of resolved with id marked resolved. Resolving an
// undiscovered contradiction is an *errs.InvalidTransitionError. Resolving one
// that is already resolved is a no-op: the input map is returned unchanged and
// the first resolution text is kept.
func Resolve(id, text string, discovered map[string]time.Time, resolved map[string]Resolution, now time.Time) (map[string]Resolution, error) {
	if _, ok := discovered[id]; !ok {
		return resolved, errs.Transitionf("resolve", id, "contradiction has not been discovered")
	}
	if _, ok := resolved[id]; ok {
		return resolved, nil
	}
	out := make(map[string]Resolution, len(resolved)+1)
	for k, v := range resolved {
		out[k] = v
	}
	out[id] = Resolution{Text: text, At: now.UTC()}
	return out, nil
}

// #endregion resolve
