package scoring

import (
	"time"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/contradiction"
	"github.com/danielpatrickdp/casefiles/internal/progress"
	"github.com/danielpatrickdp/casefiles/internal/unlock"
)

// #region verdict
// Verdict is the player's final answer, together with the snapshot the case
// was closed on.
type Verdict struct {
	HypothesisID string
	At           time.Time
	State        progress.State
	Ledger       contradiction.Ledger
	History      unlock.History
}

// #endregion verdict

// #region input
// Input is everything a review reads. Scoring never modifies it.
type Input struct {
	Case    *casedata.Case
	State   progress.State
	History unlock.History
	Ledger  contradiction.Ledger
	Spends  []progress.Spend
	Verdict *Verdict // nil while the case is open
}

// #endregion input

// #region config
// Config holds the weights used by the scoring functions.
type Config struct {
	UnresolvedPenalty float64 // per unresolved contradiction at closure
	NearMissPenalty   float64 // per locked tier-2 item with a satisfied branch
	HypothesisWeight  float64 // share of tier discovery from the verdict
	Tier1Credit       float64 // credit for a correct tier-1 verdict
}

// DefaultConfig returns the standard weights.
func DefaultConfig() Config {
	return Config{
		UnresolvedPenalty: 0.2,
		NearMissPenalty:   0.1,
		HypothesisWeight:  0.7,
		Tier1Credit:       0.6,
	}
}

// #endregion config

// #region report
// Metric is one named score in a report.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TierDiscovery details the tier discovery score.
type TierDiscovery struct {
	Score             float64 `json:"score"`
	Correct           bool    `json:"correct"`
	VerdictTier       int     `json:"verdict_tier"`
	Tier2Unlocked     int     `json:"tier2_unlocked"`
	Tier2Total        int     `json:"tier2_total"`
	BranchesExercised int     `json:"branches_exercised"`
}

// Report is the review-screen summary of a session.
type Report struct {
	Metrics       []Metric      `json:"metrics"`
	Overall       float64       `json:"overall"`
	TierDiscovery TierDiscovery `json:"tier_discovery"`
	Closed        bool          `json:"closed"`
}

// #endregion report
