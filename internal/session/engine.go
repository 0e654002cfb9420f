// Package session applies player actions to a case as atomic transitions:
// old session in, new session out, with unlocks and contradictions
// re-evaluated before the call returns.
package session

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/contradiction"
	"github.com/danielpatrickdp/casefiles/internal/errs"
	"github.com/danielpatrickdp/casefiles/internal/progress"
	"github.com/danielpatrickdp/casefiles/internal/scoring"
	"github.com/danielpatrickdp/casefiles/internal/unlock"
)

// #region engine
// Engine applies actions for one loaded case.
type Engine struct {
	c      *casedata.Case
	clock  func() time.Time
	scorer *scoring.Scorer
	log    *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for deterministic tests and replays.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithScoring replaces the default scoring weights.
func WithScoring(cfg scoring.Config) Option {
	return func(e *Engine) { e.scorer = scoring.NewScorer(cfg) }
}

// NewEngine creates an engine for a validated case. logger may be nil.
func NewEngine(c *casedata.Case, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		c:      c,
		clock:  time.Now,
		scorer: scoring.NewScorer(scoring.DefaultConfig()),
		log:    logger.Named("session").With(zap.String("case_id", c.ID)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Case returns the case the engine was built for.
func (e *Engine) Case() *casedata.Case {
	return e.c
}

// Start opens a new session. An empty id gets a fresh uuid.
func (e *Engine) Start(id string) Session {
	if id == "" {
		id = uuid.New().String()
	}
	now := e.clock().UTC()
	s := Session{
		ID:        id,
		CaseID:    e.c.ID,
		StartedAt: now,
		State:     progress.Initial(now),
	}
	e.log.Info("session started", zap.String("session_id", id))
	return s
}

// #endregion engine

// #region apply
// Apply performs one action. On error the input session is returned unchanged
// together with a "reject" outcome; lifecycle violations are
// *errs.InvalidTransitionError.
func (e *Engine) Apply(s Session, a Action) (Session, Outcome, error) {
	now := e.clock().UTC()
	next, reason, err := e.transition(s, a, now)
	if err != nil {
		e.log.Debug("action rejected",
			zap.String("session_id", s.ID), zap.String("kind", string(a.Kind)), zap.Error(err))
		return s, Outcome{Decision: "reject", Reason: err.Error()}, err
	}

	unlocks := unlock.EvaluateUnlocks(s.State, next.State, e.c.Hypotheses, next.History, now)
	next.History = next.History.Append(unlocks...)

	discoveries := contradiction.Detect(next.State, e.c.Contradictions, next.Ledger.Discovered(), now)
	next.Ledger = next.Ledger.Record(discoveries...)

	out := Outcome{Decision: "commit", Reason: reason, Unlocks: unlocks, Discoveries: discoveries}
	if reason == "" {
		out.Decision = "no_op"
		out.Reason = "nothing changed"
		if len(unlocks) > 0 || len(discoveries) > 0 {
			out.Decision = "commit"
			out.Reason = "re-evaluation"
		}
	}

	for _, ev := range unlocks {
		e.log.Info("hypothesis unlocked",
			zap.String("session_id", s.ID), zap.String("item_id", ev.ItemID), zap.String("event_id", ev.ID))
	}
	for _, d := range discoveries {
		e.log.Info("contradiction discovered", zap.String("session_id", s.ID), zap.String("contradiction_id", d.ID))
	}
	return next, out, nil
}

// transition validates a and applies it to a copy of s. An empty reason
// means nothing changed.
func (e *Engine) transition(s Session, a Action, now time.Time) (Session, string, error) {
	if s.Closed() && a.Kind != ActionAcknowledge {
		return s, "", errs.Transitionf(string(a.Kind), a.Target, "case already closed")
	}

	next := s
	switch a.Kind {
	case ActionCollect:
		if !e.c.HasEvidence(a.Target) {
			return s, "", errs.Transitionf("collect", a.Target, "unknown evidence")
		}
		if a.Amount < 0 {
			return s, "", errs.Transitionf("collect", a.Target, "negative cost %d", a.Amount)
		}
		if s.State.Has(a.Target) {
			return s, "", nil
		}
		if err := e.checkBudget(s.State, a.Amount, "collect", a.Target); err != nil {
			return s, "", err
		}
		next.State = s.State.Investigate(a.Target, a.Amount, now)
		if a.Amount > 0 {
			next.Spends = appendSpend(s.Spends, progress.Spend{ItemID: a.Target, Points: a.Amount, At: now})
		}
		return next, fmt.Sprintf("collected %s", a.Target), nil

	case ActionSpend:
		if a.Amount <= 0 {
			return s, "", errs.Transitionf("spend", "", "points must be positive, got %d", a.Amount)
		}
		if err := e.checkBudget(s.State, a.Amount, "spend", ""); err != nil {
			return s, "", err
		}
		next.State = s.State.Spend(a.Amount, now)
		next.Spends = appendSpend(s.Spends, progress.Spend{Points: a.Amount, At: now})
		return next, fmt.Sprintf("spent %d", a.Amount), nil

	case ActionProgress:
		if a.Amount <= 0 {
			return s, "", errs.Transitionf("progress", "", "units must be positive, got %d", a.Amount)
		}
		if a.Amount > math.MaxInt-s.State.ProgressUnits {
			return s, "", errs.Transitionf("progress", "", "%d units overflow the progress counter", a.Amount)
		}
		next.State = s.State.Advance(a.Amount, now)
		return next, fmt.Sprintf("progress +%d", a.Amount), nil

	case ActionFocus:
		if a.Target == "" {
			if _, ok := s.State.Focus(); !ok {
				return s, "", nil
			}
			next.State = s.State.ClearFocus(now)
			return next, "focus cleared", nil
		}
		if err := e.checkAvailable("focus", a.Target, s.History); err != nil {
			return s, "", err
		}
		if cur, ok := s.State.Focus(); ok && cur == a.Target {
			return s, "", nil
		}
		next.State = s.State.WithFocus(a.Target, now)
		return next, fmt.Sprintf("focus %s", a.Target), nil

	case ActionAcknowledge:
		before := len(s.History.Pending())
		h, err := s.History.Acknowledge(a.Target)
		if err != nil {
			return s, "", err
		}
		if len(h.Pending()) == before {
			return s, "", nil
		}
		next.History = h
		return next, fmt.Sprintf("acknowledged %s", a.Target), nil

	case ActionResolve:
		if a.Text == "" {
			return s, "", errs.Transitionf("resolve", a.Target, "resolution text is required")
		}
		if s.Ledger.IsResolved(a.Target) {
			return s, "", nil
		}
		l, err := s.Ledger.Resolve(a.Target, a.Text, now)
		if err != nil {
			return s, "", err
		}
		next.Ledger = l
		return next, fmt.Sprintf("resolved %s", a.Target), nil

	case ActionVerdict:
		if err := e.checkAvailable("verdict", a.Target, s.History); err != nil {
			return s, "", err
		}
		next.Verdict = &scoring.Verdict{
			HypothesisID: a.Target,
			At:           now,
			State:        s.State,
			Ledger:       s.Ledger,
			History:      s.History,
		}
		return next, fmt.Sprintf("verdict %s", a.Target), nil
	}
	return s, "", errs.Transitionf(string(a.Kind), a.Target, "unknown action")
}

// #endregion apply

// #region review
// Review scores the session.
func (e *Engine) Review(s Session) scoring.Report {
	return e.scorer.Review(e.ScoringInput(s))
}

// ScoringInput assembles the read-only view scoring works on.
func (e *Engine) ScoringInput(s Session) scoring.Input {
	return scoring.Input{
		Case:    e.c,
		State:   s.State,
		History: s.History,
		Ledger:  s.Ledger,
		Spends:  s.Spends,
		Verdict: s.Verdict,
	}
}

// Available lists hypotheses currently open to the player.
func (e *Engine) Available(s Session) []string {
	return unlock.Unlocked(e.c.Hypotheses, s.History)
}

// #endregion review

// #region helpers

func (e *Engine) checkBudget(st progress.State, points int, op, subject string) error {
	if points > math.MaxInt-st.ResourceSpent {
		return errs.Transitionf(op, subject, "spending %d overflows the resource counter", points)
	}
	if e.c.ResourceBudget > 0 && points > e.c.ResourceBudget-st.ResourceSpent {
		return errs.Transitionf(op, subject, "spending %d exceeds budget (%d of %d used)",
			points, st.ResourceSpent, e.c.ResourceBudget)
	}
	return nil
}

func (e *Engine) checkAvailable(op, hypothesisID string, h unlock.History) error {
	item, ok := e.c.Hypothesis(hypothesisID)
	if !ok {
		return errs.Transitionf(op, hypothesisID, "unknown hypothesis")
	}
	if !unlock.IsUnlocked(item, h) {
		return errs.Transitionf(op, hypothesisID, "hypothesis is still locked")
	}
	return nil
}

func appendSpend(spends []progress.Spend, sp progress.Spend) []progress.Spend {
	out := make([]progress.Spend, len(spends), len(spends)+1)
	copy(out, spends)
	return append(out, sp)
}

// #endregion helpers
