// Package replay re-runs recorded action sequences against a case with a
// deterministic clock, so unlock and contradiction behaviour can be pinned by
// fixtures and compared across changes.
package replay

import (
	"time"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/scoring"
	"github.com/danielpatrickdp/casefiles/internal/session"
)

// #region types
// ReplayConfig controls a replay run.
type ReplayConfig struct {
	SessionID string
	StartTime time.Time
	Step      time.Duration // clock advance per engine call
	Scoring   scoring.Config
}

// DefaultReplayConfig returns a fixed start time and a one-second step.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		SessionID: "replay",
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Step:      time.Second,
		Scoring:   scoring.DefaultConfig(),
	}
}

// ReplayResult captures the outcome of one replayed action.
type ReplayResult struct {
	Step        int
	Action      session.Action
	Decision    string // "commit" | "reject" | "no_op"
	Reason      string
	Unlocks     []string
	Discoveries []string
	VersionID   string // progress version after the action
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalSteps  int
	Commits     int
	Rejects     int
	NoOps       int
	Unlocks     int
	Discoveries int
	Final       session.Session
	Report      scoring.Report
}

// #endregion types

// #region replay
// Replay applies actions in order from a fresh session. Rejected actions are
// recorded and skipped; they never stop the run.
func Replay(c *casedata.Case, actions []session.Action, cfg ReplayConfig) ([]ReplayResult, *session.Engine, session.Session) {
	now := cfg.StartTime
	clock := func() time.Time {
		now = now.Add(cfg.Step)
		return now
	}
	e := session.NewEngine(c, nil, session.WithClock(clock), session.WithScoring(cfg.Scoring))
	current := e.Start(cfg.SessionID)

	results := make([]ReplayResult, 0, len(actions))
	for i, a := range actions {
		next, out, _ := e.Apply(current, a)
		current = next

		r := ReplayResult{
			Step:      i + 1,
			Action:    a,
			Decision:  out.Decision,
			Reason:    out.Reason,
			VersionID: current.State.VersionID,
		}
		for _, ev := range out.Unlocks {
			r.Unlocks = append(r.Unlocks, ev.ItemID)
		}
		for _, d := range out.Discoveries {
			r.Discoveries = append(r.Discoveries, d.ID)
		}
		results = append(results, r)
	}
	return results, e, current
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult, e *session.Engine, final session.Session) ReplaySummary {
	s := ReplaySummary{
		TotalSteps: len(results),
		Final:      final,
		Report:     e.Review(final),
	}
	for _, r := range results {
		switch r.Decision {
		case "commit":
			s.Commits++
		case "reject":
			s.Rejects++
		case "no_op":
			s.NoOps++
		}
		s.Unlocks += len(r.Unlocks)
		s.Discoveries += len(r.Discoveries)
	}
	return s
}

// #endregion replay
