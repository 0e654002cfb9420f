package progress

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// #region state
// State is an immutable snapshot of a play session's progress. Every
// transition returns a new State whose ParentID is the receiver's VersionID;
// the receiver is never modified.
type State struct {
	VersionID     string
	ParentID      string
	ResourceSpent int
	ProgressUnits int
	CreatedAt     time.Time

	collected map[string]struct{}
	focus     *string
}

// Initial returns the empty snapshot a case starts from.
func Initial(now time.Time) State {
	return State{
		VersionID: uuid.New().String(),
		CreatedAt: now.UTC(),
		collected: map[string]struct{}{},
	}
}

// FromParts rebuilds a State, typically from a save document.
func FromParts(p Parts) State {
	s := State{
		VersionID:     p.VersionID,
		ParentID:      p.ParentID,
		ResourceSpent: p.ResourceSpent,
		ProgressUnits: p.ProgressUnits,
		CreatedAt:     p.CreatedAt,
		collected:     make(map[string]struct{}, len(p.Items)),
	}
	for _, id := range p.Items {
		s.collected[id] = struct{}{}
	}
	if p.Focus != nil {
		f := *p.Focus
		s.focus = &f
	}
	return s
}

// Parts flattens the State. Items are sorted.
func (s State) Parts() Parts {
	p := Parts{
		VersionID:     s.VersionID,
		ParentID:      s.ParentID,
		Items:         s.Items(),
		ResourceSpent: s.ResourceSpent,
		ProgressUnits: s.ProgressUnits,
		CreatedAt:     s.CreatedAt,
	}
	if s.focus != nil {
		f := *s.focus
		p.Focus = &f
	}
	return p
}

// #endregion state

// #region queries

// Has reports whether itemID has been collected.
func (s State) Has(itemID string) bool {
	_, ok := s.collected[itemID]
	return ok
}

// Count returns the number of collected items.
func (s State) Count() int {
	return len(s.collected)
}

// Items returns the collected item ids in sorted order.
func (s State) Items() []string {
	out := make([]string, 0, len(s.collected))
	for id := range s.collected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Focus returns the active focus and whether one is set.
func (s State) Focus() (string, bool) {
	if s.focus == nil {
		return "", false
	}
	return *s.focus, true
}

// Value returns the current value of a metric. Unknown metrics read as zero;
// case loading rejects them before play begins.
func (s State) Value(m Metric) int {
	switch m {
	case MetricProgressUnits:
		return s.ProgressUnits
	case MetricItemCount:
		return len(s.collected)
	case MetricResourceSpent:
		return s.ResourceSpent
	}
	return 0
}

// #endregion queries

// #region transitions

// next copies the receiver into a fresh version. The collected map is cloned
// so the two snapshots never share storage.
func (s State) next(now time.Time) State {
	n := s
	n.VersionID = uuid.New().String()
	n.ParentID = s.VersionID
	n.CreatedAt = now.UTC()
	n.collected = make(map[string]struct{}, len(s.collected)+1)
	for id := range s.collected {
		n.collected[id] = struct{}{}
	}
	if s.focus != nil {
		f := *s.focus
		n.focus = &f
	}
	return n
}

// Collect returns a snapshot with itemID added to the collected set.
func (s State) Collect(itemID string, now time.Time) State {
	n := s.next(now)
	n.collected[itemID] = struct{}{}
	return n
}

// Investigate collects itemID and pays cost in a single version.
func (s State) Investigate(itemID string, cost int, now time.Time) State {
	n := s.next(now)
	n.collected[itemID] = struct{}{}
	n.ResourceSpent += cost
	return n
}

// Spend returns a snapshot with points added to ResourceSpent.
func (s State) Spend(points int, now time.Time) State {
	n := s.next(now)
	n.ResourceSpent += points
	return n
}

// Advance returns a snapshot with units added to ProgressUnits.
func (s State) Advance(units int, now time.Time) State {
	n := s.next(now)
	n.ProgressUnits += units
	return n
}

// WithFocus returns a snapshot whose active focus is id.
func (s State) WithFocus(id string, now time.Time) State {
	n := s.next(now)
	n.focus = &id
	return n
}

// ClearFocus returns a snapshot with no active focus.
func (s State) ClearFocus(now time.Time) State {
	n := s.next(now)
	n.focus = nil
	return n
}

// #endregion transitions
