package logging

import "time"

// #region action-entry
// ActionEntry is a single row in the action_log table.
type ActionEntry struct {
	SessionID   string
	SnapshotID  string
	ActionKind  string
	PayloadJSON string
	Decision    string // "commit" | "reject" | "no_op"
	Reason      string
	CreatedAt   time.Time
}

// #endregion action-entry

// #region action-payload
// ActionPayload is serialized into action_log.payload_json so a session can
// be audited or turned into a replay fixture.
type ActionPayload struct {
	Target      string   `json:"target,omitempty"`
	Amount      int      `json:"amount,omitempty"`
	Text        string   `json:"text,omitempty"`
	Unlocks     []string `json:"unlocks,omitempty"`
	Discoveries []string `json:"discoveries,omitempty"`
}

// #endregion action-payload
