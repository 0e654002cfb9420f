package unlock

import (
	"time"

	"github.com/danielpatrickdp/casefiles/internal/requirement"
)

// #region event
// Event is the one-time record of a Tier-2 item's requirement first becoming
// satisfied. Acknowledged flips to true once the UI has shown it and never
// flips back.
type Event struct {
	ID           string
	ItemID       string
	Trigger      requirement.Trigger
	UnlockedAt   time.Time
	Acknowledged bool
}

// #endregion event
