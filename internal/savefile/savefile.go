// Package savefile converts sessions to and from a flat, versioned JSON
// document. Decoding validates the raw bytes against an embedded JSON Schema
// before anything is rebuilt.
package savefile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/danielpatrickdp/casefiles/internal/contradiction"
	"github.com/danielpatrickdp/casefiles/internal/progress"
	"github.com/danielpatrickdp/casefiles/internal/requirement"
	"github.com/danielpatrickdp/casefiles/internal/scoring"
	"github.com/danielpatrickdp/casefiles/internal/session"
	"github.com/danielpatrickdp/casefiles/internal/unlock"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://casefiles.local/schemas/save.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func saveSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("load save schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile save schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// #region encode
// FromSession builds the document for s.
func FromSession(s session.Session) (Document, error) {
	snap, err := snapshotDoc(s.State, s.History, s.Ledger)
	if err != nil {
		return Document{}, err
	}
	doc := Document{
		FormatVersion: FormatVersion,
		SessionID:     s.ID,
		CaseID:        s.CaseID,
		StartedAt:     s.StartedAt,
		Snapshot:      snap,
		Spends:        append([]progress.Spend{}, s.Spends...),
	}
	if s.Verdict != nil {
		vs, err := snapshotDoc(s.Verdict.State, s.Verdict.History, s.Verdict.Ledger)
		if err != nil {
			return Document{}, err
		}
		doc.Verdict = &VerdictDoc{HypothesisID: s.Verdict.HypothesisID, At: s.Verdict.At, Snapshot: vs}
	}
	return doc, nil
}

// Encode serializes s as an indented save document.
func Encode(s session.Session) ([]byte, error) {
	doc, err := FromSession(s)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal save: %w", err)
	}
	return data, nil
}

func snapshotDoc(st progress.State, h unlock.History, l contradiction.Ledger) (SnapshotDoc, error) {
	p := st.Parts()
	snap := SnapshotDoc{
		State: StateDoc{
			VersionID:      p.VersionID,
			ParentID:       p.ParentID,
			CollectedItems: p.Items,
			ResourceSpent:  p.ResourceSpent,
			ProgressUnits:  p.ProgressUnits,
			ActiveFocus:    p.Focus,
			CreatedAt:      p.CreatedAt,
		},
		UnlockHistory: []EventDoc{},
		Discovered:    []DiscoveryDoc{},
		Resolved:      []ResolutionDoc{},
	}
	for _, ev := range h.Events() {
		tr, err := requirement.EncodeTrigger(ev.Trigger)
		if err != nil {
			return SnapshotDoc{}, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		snap.UnlockHistory = append(snap.UnlockHistory, EventDoc{
			ID:           ev.ID,
			ItemID:       ev.ItemID,
			Trigger:      tr,
			UnlockedAt:   ev.UnlockedAt,
			Acknowledged: ev.Acknowledged,
		})
	}
	for _, id := range l.DiscoveredIDs() {
		at, _ := l.DiscoveredAt(id)
		snap.Discovered = append(snap.Discovered, DiscoveryDoc{ID: id, At: at})
	}
	resolved := l.Resolved()
	ids := make([]string, 0, len(resolved))
	for id := range resolved {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := resolved[id]
		snap.Resolved = append(snap.Resolved, ResolutionDoc{ID: id, Text: r.Text, At: r.At})
	}
	return snap, nil
}

// #endregion encode

// #region decode
// Decode validates data and rebuilds the session it describes.
func Decode(data []byte) (session.Session, error) {
	doc, err := Parse(data)
	if err != nil {
		return session.Session{}, err
	}
	return doc.Session()
}

// Parse validates data against the save schema and the supported format
// version, returning the raw document.
func Parse(data []byte) (Document, error) {
	schema, err := saveSchema()
	if err != nil {
		return Document{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("parse save: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return Document{}, fmt.Errorf("save schema validation failed: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("unmarshal save: %w", err)
	}
	if doc.FormatVersion != FormatVersion {
		return Document{}, fmt.Errorf("unsupported save format_version %d (want %d)", doc.FormatVersion, FormatVersion)
	}
	return doc, nil
}

// Session rebuilds the session value described by the document.
func (d Document) Session() (session.Session, error) {
	st, h, l, err := d.Snapshot.restore()
	if err != nil {
		return session.Session{}, err
	}
	s := session.Session{
		ID:        d.SessionID,
		CaseID:    d.CaseID,
		StartedAt: d.StartedAt,
		State:     st,
		History:   h,
		Ledger:    l,
		Spends:    append([]progress.Spend(nil), d.Spends...),
	}
	if d.Verdict != nil {
		vst, vh, vl, err := d.Verdict.Snapshot.restore()
		if err != nil {
			return session.Session{}, fmt.Errorf("verdict: %w", err)
		}
		s.Verdict = &scoring.Verdict{
			HypothesisID: d.Verdict.HypothesisID,
			At:           d.Verdict.At,
			State:        vst,
			History:      vh,
			Ledger:       vl,
		}
	}
	return s, nil
}

func (s SnapshotDoc) restore() (progress.State, unlock.History, contradiction.Ledger, error) {
	st := progress.FromParts(progress.Parts{
		VersionID:     s.State.VersionID,
		ParentID:      s.State.ParentID,
		Items:         s.State.CollectedItems,
		ResourceSpent: s.State.ResourceSpent,
		ProgressUnits: s.State.ProgressUnits,
		Focus:         s.State.ActiveFocus,
		CreatedAt:     s.State.CreatedAt,
	})

	events := make([]unlock.Event, 0, len(s.UnlockHistory))
	for _, ed := range s.UnlockHistory {
		tr, err := requirement.DecodeTrigger(ed.Trigger)
		if err != nil {
			return progress.State{}, unlock.History{}, contradiction.Ledger{}, fmt.Errorf("event %s: %w", ed.ID, err)
		}
		events = append(events, unlock.Event{
			ID:           ed.ID,
			ItemID:       ed.ItemID,
			Trigger:      tr,
			UnlockedAt:   ed.UnlockedAt,
			Acknowledged: ed.Acknowledged,
		})
	}

	discovered := make(map[string]time.Time, len(s.Discovered))
	for _, d := range s.Discovered {
		discovered[d.ID] = d.At
	}
	resolved := make(map[string]contradiction.Resolution, len(s.Resolved))
	for _, r := range s.Resolved {
		resolved[r.ID] = contradiction.Resolution{Text: r.Text, At: r.At}
	}
	l, err := contradiction.NewLedger(discovered, resolved)
	if err != nil {
		return progress.State{}, unlock.History{}, contradiction.Ledger{}, err
	}
	return st, unlock.NewHistory(events...), l, nil
}

// #endregion decode
