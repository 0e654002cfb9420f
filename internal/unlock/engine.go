// Package unlock detects when gated hypotheses become available and keeps the
// append-only record of those unlocks.
package unlock

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/progress"
	"github.com/danielpatrickdp/casefiles/internal/requirement"
)

// #region evaluate-unlocks
// EvaluateUnlocks returns the events for Tier-2 items whose requirement holds
// in next and which have no event in history yet. Events follow the
// declaration order of items and carry fresh ids, the given time, and the
// trigger that matched. Neither the states nor history are modified.
//
// prev is the snapshot before the action. It is not consulted: an item whose
// requirement already held in prev is found in history, and history
// membership alone keeps the result idempotent.
func EvaluateUnlocks(prev, next progress.State, items []casedata.GatedItem, history History, now time.Time) []Event {
	var events []Event
	for _, item := range items {
		if item.Tier != casedata.Tier2 || item.Requires == nil {
			continue
		}
		if history.Has(item.ID) {
			continue
		}
		tr, ok := requirement.Match(item.Requires, next)
		if !ok {
			continue
		}
		events = append(events, Event{
			ID:         uuid.New().String(),
			ItemID:     item.ID,
			Trigger:    tr,
			UnlockedAt: now.UTC(),
		})
	}
	return events
}

// #endregion evaluate-unlocks

// #region unlocked

// IsUnlocked reports whether item is available: Tier-1 items always are,
// Tier-2 items once their event is in history.
func IsUnlocked(item casedata.GatedItem, history History) bool {
	if item.Tier == casedata.Tier1 {
		return true
	}
	return history.Has(item.ID)
}

// Unlocked lists the ids of available items in declaration order.
func Unlocked(items []casedata.GatedItem, history History) []string {
	var ids []string
	for _, item := range items {
		if IsUnlocked(item, history) {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// #endregion unlocked
