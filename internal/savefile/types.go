package savefile

import (
	"time"

	"github.com/danielpatrickdp/casefiles/internal/progress"
	"github.com/danielpatrickdp/casefiles/internal/requirement"
)

// FormatVersion is the only save format this build reads and writes.
const FormatVersion = 1

// #region document
// Document is the on-disk form of a session. Field names are stable; add
// fields, never rename them, and bump FormatVersion for anything else.
type Document struct {
	FormatVersion int              `json:"format_version"`
	SessionID     string           `json:"session_id"`
	CaseID        string           `json:"case_id"`
	StartedAt     time.Time        `json:"started_at"`
	Snapshot      SnapshotDoc      `json:"snapshot"`
	Spends        []progress.Spend `json:"spends"`
	Verdict       *VerdictDoc      `json:"verdict"`
}

// SnapshotDoc bundles progress, unlock history and contradiction lifecycle
// as they stood at one moment.
type SnapshotDoc struct {
	State         StateDoc        `json:"state"`
	UnlockHistory []EventDoc      `json:"unlock_history"`
	Discovered    []DiscoveryDoc  `json:"discovered"`
	Resolved      []ResolutionDoc `json:"resolved"`
}

type StateDoc struct {
	VersionID      string    `json:"version_id"`
	ParentID       string    `json:"parent_id"`
	CollectedItems []string  `json:"collected_items"`
	ResourceSpent  int       `json:"resource_spent"`
	ProgressUnits  int       `json:"progress_units"`
	ActiveFocus    *string   `json:"active_focus"`
	CreatedAt      time.Time `json:"created_at"`
}

type EventDoc struct {
	ID           string                 `json:"id"`
	ItemID       string                 `json:"item_id"`
	Trigger      requirement.TriggerDoc `json:"trigger"`
	UnlockedAt   time.Time              `json:"unlocked_at"`
	Acknowledged bool                   `json:"acknowledged"`
}

type DiscoveryDoc struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

type ResolutionDoc struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// VerdictDoc records the closing answer and the snapshot it was given on.
type VerdictDoc struct {
	HypothesisID string      `json:"hypothesis_id"`
	At           time.Time   `json:"at"`
	Snapshot     SnapshotDoc `json:"snapshot"`
}

// #endregion document
