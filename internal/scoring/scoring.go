// Package scoring derives review metrics from a session. Every function is
// read-only over its Input and returns a finite value for empty sessions.
package scoring

import (
	"math"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/requirement"
)

// #region scorer
// Scorer computes review metrics with a fixed set of weights.
type Scorer struct {
	config Config
}

// NewScorer creates a scorer with the given weights.
func NewScorer(config Config) *Scorer {
	return &Scorer{config: config}
}

// #endregion scorer

// #region efficiency
// InvestigationEfficiency is the share of spent resource points that went to
// items which later fed an unlock trigger or a discovered contradiction.
// With nothing spent there is nothing wasted, so the score is 1.
func (s *Scorer) InvestigationEfficiency(in Input) float64 {
	total := 0
	for _, sp := range in.Spends {
		total += sp.Points
	}
	if total <= 0 {
		return 1
	}

	useful := make(map[string]bool)
	for _, ev := range in.History.Events() {
		for _, id := range requirement.TriggerItems(ev.Trigger) {
			useful[id] = true
		}
	}
	if in.Case != nil {
		for _, d := range in.Case.Contradictions {
			if in.Ledger.IsDiscovered(d.ID) {
				useful[d.Evidence[0]] = true
				useful[d.Evidence[1]] = true
			}
		}
	}

	spentUseful := 0
	for _, sp := range in.Spends {
		if sp.ItemID != "" && useful[sp.ItemID] {
			spentUseful += sp.Points
		}
	}
	return clamp01(float64(spentUseful) / float64(total))
}

// #endregion efficiency

// #region premature-closure
// PrematureClosure starts at 1 and loses UnresolvedPenalty for each
// contradiction still unresolved when the verdict was given and
// NearMissPenalty for each tier-2 item that was still locked although at
// least one of its branches held. An open case scores 1.
func (s *Scorer) PrematureClosure(in Input) float64 {
	v := in.Verdict
	if v == nil {
		return 1
	}
	penalty := float64(len(v.Ledger.Unresolved())) * s.config.UnresolvedPenalty
	if in.Case != nil {
		for _, h := range in.Case.Hypotheses {
			if h.Tier != casedata.Tier2 || h.Requires == nil || v.History.Has(h.ID) {
				continue
			}
			if requirement.SatisfiedBranches(h.Requires, v.State) > 0 {
				penalty += s.config.NearMissPenalty
			}
		}
	}
	return clamp01(1 - penalty)
}

// #endregion premature-closure

// #region contradiction-resolution
// ContradictionResolution is resolved/discovered, or 1 when nothing has been
// discovered.
func (s *Scorer) ContradictionResolution(in Input) float64 {
	discovered, resolved := in.Ledger.Counts()
	if discovered == 0 {
		return 1
	}
	return clamp01(float64(resolved) / float64(discovered))
}

// #endregion contradiction-resolution

// #region tier-discovery
// TierDiscovery weighs the verdict (full credit for a correct tier-2 answer,
// Tier1Credit for a correct tier-1 answer) against the share of tier-2 items
// the player unlocked on the way.
func (s *Scorer) TierDiscovery(in Input) TierDiscovery {
	td := TierDiscovery{Tier2Unlocked: in.History.Len()}

	leaves := make(map[string]bool)
	for _, ev := range in.History.Events() {
		for _, l := range requirement.Leaves(ev.Trigger) {
			leaves[l] = true
		}
	}
	td.BranchesExercised = len(leaves)

	var verdictCredit float64
	if in.Case != nil {
		td.Tier2Total = in.Case.Tier2Count()
		if in.Verdict != nil {
			if h, ok := in.Case.Hypothesis(in.Verdict.HypothesisID); ok {
				td.VerdictTier = int(h.Tier)
				td.Correct = in.Case.Solution != "" && h.ID == in.Case.Solution
				if td.Correct {
					verdictCredit = s.config.Tier1Credit
					if h.Tier == casedata.Tier2 {
						verdictCredit = 1
					}
				}
			}
		}
	}

	exploration := 1.0
	if td.Tier2Total > 0 {
		exploration = clamp01(float64(td.Tier2Unlocked) / float64(td.Tier2Total))
	}

	w := s.config.HypothesisWeight
	td.Score = clamp01(w*verdictCredit + (1-w)*exploration)
	return td
}

// #endregion tier-discovery

// #region review
// Review computes every metric in a fixed order plus their mean.
func (s *Scorer) Review(in Input) Report {
	td := s.TierDiscovery(in)
	metrics := []Metric{
		{Name: "investigation_efficiency", Value: s.InvestigationEfficiency(in)},
		{Name: "premature_closure", Value: s.PrematureClosure(in)},
		{Name: "contradiction_resolution", Value: s.ContradictionResolution(in)},
		{Name: "tier_discovery", Value: td.Score},
	}
	var sum float64
	for _, m := range metrics {
		sum += m.Value
	}
	return Report{
		Metrics:       metrics,
		Overall:       sum / float64(len(metrics)),
		TierDiscovery: td,
		Closed:        in.Verdict != nil,
	}
}

// #endregion review

// #region helpers
func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// #endregion helpers
