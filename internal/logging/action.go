package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielpatrickdp/casefiles/internal/session"
)

// #region log-action
// LogAction writes an action entry to the action_log table.
func LogAction(db *sql.DB, entry ActionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO action_log (session_id, snapshot_id, action_kind, payload_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.SnapshotID,
		entry.ActionKind,
		nullIfEmpty(entry.PayloadJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log action: %w", err)
	}
	return nil
}

// #endregion log-action

// #region entry-for
// EntryFor builds the log entry for one applied action. snapshotID is the
// session's active snapshot after the action.
func EntryFor(sessionID, snapshotID string, a session.Action, out session.Outcome) (ActionEntry, error) {
	p := ActionPayload{Target: a.Target, Amount: a.Amount, Text: a.Text}
	for _, ev := range out.Unlocks {
		p.Unlocks = append(p.Unlocks, ev.ItemID)
	}
	for _, d := range out.Discoveries {
		p.Discoveries = append(p.Discoveries, d.ID)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return ActionEntry{}, fmt.Errorf("marshal payload: %w", err)
	}
	return ActionEntry{
		SessionID:   sessionID,
		SnapshotID:  snapshotID,
		ActionKind:  string(a.Kind),
		PayloadJSON: string(payload),
		Decision:    out.Decision,
		Reason:      out.Reason,
	}, nil
}

// #endregion entry-for

// #region list-actions
// Actions returns a session's logged actions, oldest first.
func Actions(db *sql.DB, sessionID string) ([]ActionEntry, error) {
	rows, err := db.Query(
		`SELECT session_id, snapshot_id, action_kind, payload_json, decision, reason, created_at
		 FROM action_log WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []ActionEntry
	for rows.Next() {
		var e ActionEntry
		var payload, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.SessionID, &e.SnapshotID, &e.ActionKind, &payload, &e.Decision, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.PayloadJSON = payload.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Action rebuilds the session.Action of a logged entry.
func (e ActionEntry) Action() (session.Action, error) {
	a := session.Action{Kind: session.ActionKind(e.ActionKind)}
	if e.PayloadJSON == "" {
		return a, nil
	}
	var p ActionPayload
	if err := json.Unmarshal([]byte(e.PayloadJSON), &p); err != nil {
		return session.Action{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	a.Target, a.Amount, a.Text = p.Target, p.Amount, p.Text
	return a, nil
}

// #endregion list-actions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
