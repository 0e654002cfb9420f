package store

import "time"

// #region session-record
// SessionRecord is one row of the sessions table.
type SessionRecord struct {
	SessionID string
	CaseID    string
	CasePath  string
	StartedAt time.Time
}

// #endregion session-record

// #region snapshot-record
// SnapshotRecord is one persisted save document. Snapshots of a session form
// a chain through ParentID; StateVersion is the progress version the document
// was taken at, which repeats when an action leaves progress untouched.
type SnapshotRecord struct {
	SnapshotID   string
	SessionID    string
	ParentID     string
	StateVersion string
	Document     []byte
	CreatedAt    time.Time
}

// #endregion snapshot-record

// #region snapshot-with-action
// SnapshotWithAction pairs a snapshot with the action_log row that produced it.
type SnapshotWithAction struct {
	SnapshotRecord
	ActionKind string
	Decision   string
	Reason     string
}

// #endregion snapshot-with-action
