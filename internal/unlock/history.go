package unlock

import (
	"github.com/danielpatrickdp/casefiles/internal/errs"
)

// #region history
// History is the chronological, append-only log of unlock events, indexed by
// gated-item id so duplicate detection does not rescan the log. Append and
// Acknowledge return a new History and leave the receiver untouched.
type History struct {
	events []Event
	byItem map[string]int
}

// NewHistory builds a History from events in chronological order. A later
// event for an item already present is dropped.
func NewHistory(events ...Event) History {
	return History{}.Append(events...)
}

// Append returns a History with events added at the end.
func (h History) Append(events ...Event) History {
	out := History{
		events: make([]Event, len(h.events), len(h.events)+len(events)),
		byItem: make(map[string]int, len(h.byItem)+len(events)),
	}
	copy(out.events, h.events)
	for k, v := range h.byItem {
		out.byItem[k] = v
	}
	for _, ev := range events {
		if _, dup := out.byItem[ev.ItemID]; dup {
			continue
		}
		out.byItem[ev.ItemID] = len(out.events)
		out.events = append(out.events, ev)
	}
	return out
}

// Acknowledge marks the event as displayed. Acknowledging twice is a no-op;
// an unknown id is an *errs.InvalidTransitionError.
func (h History) Acknowledge(eventID string) (History, error) {
	idx := -1
	for i, ev := range h.events {
		if ev.ID == eventID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return h, errs.Transitionf("acknowledge", eventID, "no such unlock event")
	}
	if h.events[idx].Acknowledged {
		return h, nil
	}
	out := h.Append()
	out.events[idx].Acknowledged = true
	return out, nil
}

// #endregion history

// #region queries

// Has reports whether an event for itemID has been recorded.
func (h History) Has(itemID string) bool {
	_, ok := h.byItem[itemID]
	return ok
}

// Event returns the event recorded for itemID.
func (h History) Event(itemID string) (Event, bool) {
	idx, ok := h.byItem[itemID]
	if !ok {
		return Event{}, false
	}
	return h.events[idx], true
}

// Events returns a copy of all events in chronological order.
func (h History) Events() []Event {
	out := make([]Event, len(h.events))
	copy(out, h.events)
	return out
}

// Pending returns events not yet acknowledged, oldest first.
func (h History) Pending() []Event {
	var out []Event
	for _, ev := range h.events {
		if !ev.Acknowledged {
			out = append(out, ev)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (h History) Len() int {
	return len(h.events)
}

// #endregion queries
