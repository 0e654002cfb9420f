package contradiction

import (
	"fmt"
	"sort"
	"time"
)

// #region ledger
// Ledger holds the runtime lifecycle of a case's contradictions. Every
// resolved id is also discovered. Methods return new Ledgers.
type Ledger struct {
	discovered map[string]time.Time
	resolved   map[string]Resolution
}

// NewLedger builds a Ledger from persisted maps, rejecting any resolved id
// that was never discovered.
func NewLedger(discovered map[string]time.Time, resolved map[string]Resolution) (Ledger, error) {
	l := Ledger{
		discovered: make(map[string]time.Time, len(discovered)),
		resolved:   make(map[string]Resolution, len(resolved)),
	}
	for k, v := range discovered {
		l.discovered[k] = v
	}
	for k, v := range resolved {
		l.resolved[k] = v
	}
	if err := l.Check(); err != nil {
		return Ledger{}, err
	}
	return l, nil
}

// Record adds discoveries. An id already discovered keeps its original time.
func (l Ledger) Record(ds ...Discovery) Ledger {
	out := Ledger{
		discovered: make(map[string]time.Time, len(l.discovered)+len(ds)),
		resolved:   l.resolved,
	}
	for k, v := range l.discovered {
		out.discovered[k] = v
	}
	for _, d := range ds {
		if _, ok := out.discovered[d.ID]; !ok {
			out.discovered[d.ID] = d.At
		}
	}
	return out
}

// Resolve marks id resolved; see the package-level Resolve for semantics.
func (l Ledger) Resolve(id, text string, now time.Time) (Ledger, error) {
	resolved, err := Resolve(id, text, l.discovered, l.resolved, now)
	if err != nil {
		return l, err
	}
	return Ledger{discovered: l.discovered, resolved: resolved}, nil
}

// Check verifies that resolved ids are a subset of discovered ids.
func (l Ledger) Check() error {
	for id := range l.resolved {
		if _, ok := l.discovered[id]; !ok {
			return fmt.Errorf("contradiction %s resolved but never discovered", id)
		}
	}
	return nil
}

// #endregion ledger

// #region queries

// IsDiscovered reports whether id has been discovered.
func (l Ledger) IsDiscovered(id string) bool {
	_, ok := l.discovered[id]
	return ok
}

// IsResolved reports whether id has been resolved.
func (l Ledger) IsResolved(id string) bool {
	_, ok := l.resolved[id]
	return ok
}

// DiscoveredAt returns the time id was discovered.
func (l Ledger) DiscoveredAt(id string) (time.Time, bool) {
	at, ok := l.discovered[id]
	return at, ok
}

// Resolution returns the resolution recorded for id.
func (l Ledger) Resolution(id string) (Resolution, bool) {
	r, ok := l.resolved[id]
	return r, ok
}

// Discovered returns a copy of the discovered map.
func (l Ledger) Discovered() map[string]time.Time {
	out := make(map[string]time.Time, len(l.discovered))
	for k, v := range l.discovered {
		out[k] = v
	}
	return out
}

// Resolved returns a copy of the resolved map.
func (l Ledger) Resolved() map[string]Resolution {
	out := make(map[string]Resolution, len(l.resolved))
	for k, v := range l.resolved {
		out[k] = v
	}
	return out
}

// DiscoveredIDs returns discovered ids sorted.
func (l Ledger) DiscoveredIDs() []string {
	return sortedKeys(l.discovered)
}

// Unresolved returns discovered but unresolved ids, sorted.
func (l Ledger) Unresolved() []string {
	var ids []string
	for id := range l.discovered {
		if _, ok := l.resolved[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Counts returns the number of discovered and resolved contradictions.
func (l Ledger) Counts() (discovered, resolved int) {
	return len(l.discovered), len(l.resolved)
}

func sortedKeys[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// #endregion queries
