package replay

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/contradiction"
	"github.com/danielpatrickdp/casefiles/internal/logging"
	"github.com/danielpatrickdp/casefiles/internal/session"
	"github.com/danielpatrickdp/casefiles/internal/unlock"
)

func loadFixture(t *testing.T) (*Fixture, *casedata.Case) {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", "restricted_section.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	c, err := casedata.Load(f.CasePath())
	if err != nil {
		t.Fatalf("load case: %v", err)
	}
	return f, c
}

// TestFixture_RestrictedSection is the regression baseline: any change to
// unlock, contradiction or transition rules that alters a step shows here.
func TestFixture_RestrictedSection(t *testing.T) {
	f, c := loadFixture(t)

	results, e, final := Replay(c, f.Actions, f.ToReplayConfig())
	if len(results) != len(f.Actions) {
		t.Fatalf("expected %d results, got %d", len(f.Actions), len(results))
	}
	for _, m := range f.Compare(results) {
		t.Error(m.String())
	}

	s := Summarize(results, e, final)
	want := struct{ Commits, Rejects, NoOps, Unlocks, Discoveries int }{9, 3, 1, 2, 2}
	got := struct{ Commits, Rejects, NoOps, Unlocks, Discoveries int }{s.Commits, s.Rejects, s.NoOps, s.Unlocks, s.Discoveries}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if !s.Report.Closed || !s.Report.TierDiscovery.Correct {
		t.Fatalf("expected a closed, correct case: %+v", s.Report)
	}
}

func TestReplay_IsDeterministic(t *testing.T) {
	f, c := loadFixture(t)
	cfg := f.ToReplayConfig()

	first, _, a := Replay(c, f.Actions, cfg)
	second, _, b := Replay(c, f.Actions, cfg)

	strip := func(rs []ReplayResult) []ReplayResult {
		out := make([]ReplayResult, len(rs))
		for i, r := range rs {
			r.VersionID = ""
			out[i] = r
		}
		return out
	}
	if diff := cmp.Diff(strip(first), strip(second)); diff != "" {
		t.Fatalf("replays differ (-first +second):\n%s", diff)
	}
	if !a.Verdict.At.Equal(b.Verdict.At) {
		t.Fatalf("verdict time differs: %s vs %s", a.Verdict.At, b.Verdict.At)
	}
	if want := cfg.StartTime.Add(cfg.Step); !a.StartedAt.Equal(want) {
		t.Fatalf("expected session start at %s, got %s", want, a.StartedAt)
	}
}

func TestCompare_ReportsDrift(t *testing.T) {
	f, c := loadFixture(t)
	results, _, _ := Replay(c, f.Actions[:2], f.ToReplayConfig())

	f.ExpectedResults = []FixtureExpectedResult{
		{Step: 1, Decision: "reject"},
		{Step: 2, Decision: "commit", Unlocks: []string{"h3"}},
		{Step: 7, Decision: "commit"},
	}
	got := f.Compare(results)
	fields := make([]string, len(got))
	for i, m := range got {
		fields[i] = m.Field
	}
	if diff := cmp.Diff([]string{"decision", "unlocks", "step"}, fields); diff != "" {
		t.Fatalf("mismatch fields (-want +got):\n%s", diff)
	}
}

func TestFixtureFromLog(t *testing.T) {
	f, c := loadFixture(t)
	results, _, _ := Replay(c, f.Actions, f.ToReplayConfig())

	var entries []logging.ActionEntry
	for _, r := range results {
		out := session.Outcome{Decision: r.Decision, Reason: r.Reason}
		for _, id := range r.Unlocks {
			out.Unlocks = append(out.Unlocks, unlock.Event{ItemID: id})
		}
		for _, id := range r.Discoveries {
			out.Discoveries = append(out.Discoveries, contradiction.Discovery{ID: id})
		}
		entry, err := logging.EntryFor("replay", "snap", r.Action, out)
		if err != nil {
			t.Fatalf("EntryFor: %v", err)
		}
		entries = append(entries, entry)
	}

	exported, err := FixtureFromLog("exported", f.Case, entries)
	if err != nil {
		t.Fatalf("FixtureFromLog: %v", err)
	}
	exported.dir = f.dir
	if diff := cmp.Diff(f.Actions, exported.Actions); diff != "" {
		t.Fatalf("actions differ (-want +got):\n%s", diff)
	}
	if m := exported.Compare(results); len(m) != 0 {
		t.Fatalf("exported fixture should match its own replay: %v", m)
	}
}

func TestFixtureFromLog_SkipsAcknowledgements(t *testing.T) {
	var entries []logging.ActionEntry
	for _, step := range []struct {
		a   session.Action
		out session.Outcome
	}{
		{session.Collect("e1", 2), session.Outcome{Decision: "commit"}},
		{session.Spend(4), session.Outcome{Decision: "commit", Unlocks: []unlock.Event{{ID: "ev-1", ItemID: "h4"}}}},
		{session.Acknowledge("ev-1"), session.Outcome{Decision: "commit"}},
		{session.Progress(1), session.Outcome{Decision: "commit"}},
	} {
		entry, err := logging.EntryFor("s1", "snap", step.a, step.out)
		if err != nil {
			t.Fatalf("EntryFor: %v", err)
		}
		entries = append(entries, entry)
	}

	f, err := FixtureFromLog("acks", "case.yaml", entries)
	if err != nil {
		t.Fatalf("FixtureFromLog: %v", err)
	}
	want := []session.Action{session.Collect("e1", 2), session.Spend(4), session.Progress(1)}
	if diff := cmp.Diff(want, f.Actions); diff != "" {
		t.Fatalf("actions (-want +got):\n%s", diff)
	}
	if got := f.ExpectedResults[2].Step; got != 3 {
		t.Fatalf("expected steps renumbered, last step is %d", got)
	}
	if diff := cmp.Diff([]string{"h4"}, f.ExpectedResults[1].Unlocks); diff != "" {
		t.Fatalf("unlocks (-want +got):\n%s", diff)
	}
}
