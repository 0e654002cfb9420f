// Package casedata holds the static description of a case: its evidence,
// gated hypotheses and contradiction definitions. Case values are loaded once
// and never modified during play.
package casedata

import (
	"github.com/danielpatrickdp/casefiles/internal/progress"
	"github.com/danielpatrickdp/casefiles/internal/requirement"
)

// #region tier
// Tier is the accessibility level of a gated item.
type Tier int

const (
	Tier1 Tier = 1 // always available
	Tier2 Tier = 2 // unlocked by its requirement tree
)

// #endregion tier

// #region evidence
// Evidence is a discoverable fact.
type Evidence struct {
	ID          string
	Name        string
	Description string
}

// #endregion evidence

// #region gated-item
// GatedItem is a hypothesis the player may consider. Tier-1 items have a nil
// Requires; Tier-2 items always have one.
type GatedItem struct {
	ID       string
	Tier     Tier
	Title    string
	Requires requirement.Requirement
}

// #endregion gated-item

// #region contradiction-def
// ContradictionDef declares two evidence items that conflict.
type ContradictionDef struct {
	ID          string
	Evidence    [2]string
	Description string
}

// #endregion contradiction-def

// #region case
// Case is the full static definition of one investigation.
type Case struct {
	ID             string
	Title          string
	ResourceBudget int // 0 = unlimited
	Metrics        []progress.Metric
	Solution       string // id of the correct hypothesis, may be empty
	Evidence       []Evidence
	Hypotheses     []GatedItem
	Contradictions []ContradictionDef
}

// HasEvidence reports whether id names an evidence item of this case.
func (c *Case) HasEvidence(id string) bool {
	for _, e := range c.Evidence {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Hypothesis looks up a gated item by id.
func (c *Case) Hypothesis(id string) (GatedItem, bool) {
	for _, h := range c.Hypotheses {
		if h.ID == id {
			return h, true
		}
	}
	return GatedItem{}, false
}

// Contradiction looks up a contradiction definition by id.
func (c *Case) Contradiction(id string) (ContradictionDef, bool) {
	for _, d := range c.Contradictions {
		if d.ID == id {
			return d, true
		}
	}
	return ContradictionDef{}, false
}

// Tier2Count returns the number of conditionally unlocked hypotheses.
func (c *Case) Tier2Count() int {
	n := 0
	for _, h := range c.Hypotheses {
		if h.Tier == Tier2 {
			n++
		}
	}
	return n
}

// #endregion case
