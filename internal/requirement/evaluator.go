package requirement

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/casefiles/internal/progress"
)

// #region is-satisfied
// IsSatisfied reports whether req holds for st. It is pure and total; a nil
// requirement is never satisfied.
func IsSatisfied(req Requirement, st progress.State) bool {
	switch r := req.(type) {
	case ItemCollected:
		return st.Has(r.ItemID)
	case ThresholdMet:
		return st.Value(r.Metric) >= r.Threshold
	case AllOf:
		for _, sub := range r.Reqs {
			if !IsSatisfied(sub, st) {
				return false
			}
		}
		return true
	case AnyOf:
		for _, sub := range r.Reqs {
			if IsSatisfied(sub, st) {
				return true
			}
		}
		return false
	}
	return false
}

// #endregion is-satisfied

// #region match
// Match evaluates req like IsSatisfied and, when it holds, returns a Trigger
// describing what matched. For AnyOf the first satisfied branch in
// declaration order is reported, so the result is reproducible.
func Match(req Requirement, st progress.State) (Trigger, bool) {
	switch r := req.(type) {
	case ItemCollected:
		if !st.Has(r.ItemID) {
			return nil, false
		}
		return ItemTrigger{ItemID: r.ItemID}, true
	case ThresholdMet:
		actual := st.Value(r.Metric)
		if actual < r.Threshold {
			return nil, false
		}
		return ThresholdTrigger{Metric: r.Metric, Threshold: r.Threshold, Actual: actual}, true
	case AllOf:
		branches := make([]Trigger, 0, len(r.Reqs))
		for _, sub := range r.Reqs {
			tr, ok := Match(sub, st)
			if !ok {
				return nil, false
			}
			branches = append(branches, tr)
		}
		return AllOfTrigger{Branches: branches}, true
	case AnyOf:
		for i, sub := range r.Reqs {
			if tr, ok := Match(sub, st); ok {
				return AnyOfTrigger{Index: i, Branch: tr}, true
			}
		}
		return nil, false
	}
	return nil, false
}

// #endregion match

// #region tree-helpers

// Walk calls fn for req and every node beneath it, depth first.
func Walk(req Requirement, fn func(Requirement)) {
	if req == nil {
		return
	}
	fn(req)
	switch r := req.(type) {
	case AllOf:
		for _, sub := range r.Reqs {
			Walk(sub, fn)
		}
	case AnyOf:
		for _, sub := range r.Reqs {
			Walk(sub, fn)
		}
	}
}

// Items returns the item ids referenced anywhere in req, in walk order.
func Items(req Requirement) []string {
	var ids []string
	Walk(req, func(n Requirement) {
		if ic, ok := n.(ItemCollected); ok {
			ids = append(ids, ic.ItemID)
		}
	})
	return ids
}

// SatisfiedBranches counts the direct children of a composite requirement
// that hold for st. A leaf counts as its own single branch.
func SatisfiedBranches(req Requirement, st progress.State) int {
	var children []Requirement
	switch r := req.(type) {
	case AllOf:
		children = r.Reqs
	case AnyOf:
		children = r.Reqs
	default:
		if IsSatisfied(req, st) {
			return 1
		}
		return 0
	}
	n := 0
	for _, c := range children {
		if IsSatisfied(c, st) {
			n++
		}
	}
	return n
}

// Describe renders req in a compact single-line form for logs and the CLI.
func Describe(req Requirement) string {
	switch r := req.(type) {
	case ItemCollected:
		return "item:" + r.ItemID
	case ThresholdMet:
		return fmt.Sprintf("%s>=%d", r.Metric, r.Threshold)
	case AllOf:
		return "all_of(" + describeAll(r.Reqs) + ")"
	case AnyOf:
		return "any_of(" + describeAll(r.Reqs) + ")"
	}
	return "<none>"
}

func describeAll(reqs []Requirement) string {
	parts := make([]string, len(reqs))
	for i, r := range reqs {
		parts[i] = Describe(r)
	}
	return strings.Join(parts, ", ")
}

// #endregion tree-helpers

// #region trigger-helpers

// Leaves returns one descriptor per leaf trigger, e.g. "item:e3" or
// "itemCount>=3".
func Leaves(tr Trigger) []string {
	switch t := tr.(type) {
	case ItemTrigger:
		return []string{"item:" + t.ItemID}
	case ThresholdTrigger:
		return []string{fmt.Sprintf("%s>=%d", t.Metric, t.Threshold)}
	case AllOfTrigger:
		var out []string
		for _, b := range t.Branches {
			out = append(out, Leaves(b)...)
		}
		return out
	case AnyOfTrigger:
		return Leaves(t.Branch)
	}
	return nil
}

// TriggerItems returns the item ids that a trigger matched on.
func TriggerItems(tr Trigger) []string {
	switch t := tr.(type) {
	case ItemTrigger:
		return []string{t.ItemID}
	case AllOfTrigger:
		var out []string
		for _, b := range t.Branches {
			out = append(out, TriggerItems(b)...)
		}
		return out
	case AnyOfTrigger:
		return TriggerItems(t.Branch)
	}
	return nil
}

// #endregion trigger-helpers
