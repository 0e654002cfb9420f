package session

import (
	"time"

	"github.com/danielpatrickdp/casefiles/internal/contradiction"
	"github.com/danielpatrickdp/casefiles/internal/progress"
	"github.com/danielpatrickdp/casefiles/internal/scoring"
	"github.com/danielpatrickdp/casefiles/internal/unlock"
)

// #region action-kind
// ActionKind enumerates player actions.
type ActionKind string

const (
	ActionCollect     ActionKind = "collect"
	ActionSpend       ActionKind = "spend"
	ActionProgress    ActionKind = "progress"
	ActionFocus       ActionKind = "focus"
	ActionAcknowledge ActionKind = "acknowledge"
	ActionResolve     ActionKind = "resolve"
	ActionVerdict     ActionKind = "verdict"
)

// #endregion action-kind

// #region action
// Action is one player action. Target and Amount are interpreted per kind:
//
//	collect     Target=evidence id, Amount=resource cost (may be 0)
//	spend       Amount=points spent without finding anything
//	progress    Amount=investigation progress units
//	focus       Target=hypothesis id, empty clears the focus
//	acknowledge Target=unlock event id
//	resolve     Target=contradiction id, Text=resolution
//	verdict     Target=hypothesis id
type Action struct {
	Kind   ActionKind `json:"kind"`
	Target string     `json:"target,omitempty"`
	Amount int        `json:"amount,omitempty"`
	Text   string     `json:"text,omitempty"`
}

func Collect(itemID string, cost int) Action {
	return Action{Kind: ActionCollect, Target: itemID, Amount: cost}
}

func Spend(points int) Action { return Action{Kind: ActionSpend, Amount: points} }

func Progress(units int) Action { return Action{Kind: ActionProgress, Amount: units} }

func Focus(hypothesisID string) Action { return Action{Kind: ActionFocus, Target: hypothesisID} }

func Acknowledge(eventID string) Action { return Action{Kind: ActionAcknowledge, Target: eventID} }

func Resolve(contradictionID, text string) Action {
	return Action{Kind: ActionResolve, Target: contradictionID, Text: text}
}

func Verdict(hypothesisID string) Action { return Action{Kind: ActionVerdict, Target: hypothesisID} }

// #endregion action

// #region session
// Session is the full play state of one case. It is a value: Apply returns a
// new Session and never modifies its argument.
type Session struct {
	ID        string
	CaseID    string
	StartedAt time.Time
	State     progress.State
	History   unlock.History
	Ledger    contradiction.Ledger
	Spends    []progress.Spend
	Verdict   *scoring.Verdict
}

// Closed reports whether a verdict has been given.
func (s Session) Closed() bool {
	return s.Verdict != nil
}

// #endregion session

// #region outcome
// Outcome describes what an action changed. Decision is "commit" when the
// session advanced, "no_op" when the action changed nothing, and "reject"
// when it was refused.
type Outcome struct {
	Decision    string
	Reason      string
	Unlocks     []unlock.Event
	Discoveries []contradiction.Discovery
}

// #endregion outcome
