package progress

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestInitialIsEmpty(t *testing.T) {
	s := Initial(t0)
	if s.VersionID == "" {
		t.Fatal("expected non-empty version ID")
	}
	if s.ParentID != "" {
		t.Fatalf("expected empty parent, got %s", s.ParentID)
	}
	if s.Count() != 0 || s.ResourceSpent != 0 || s.ProgressUnits != 0 {
		t.Fatalf("expected zero state, got %+v", s.Parts())
	}
	if _, ok := s.Focus(); ok {
		t.Fatal("expected no focus")
	}
}

func TestCollectDoesNotMutateReceiver(t *testing.T) {
	s0 := Initial(t0)
	s1 := s0.Collect("e1", t0.Add(time.Second))
	s2 := s1.Collect("e2", t0.Add(2*time.Second))

	if s0.Has("e1") {
		t.Fatal("initial snapshot must not see e1")
	}
	if s1.Has("e2") {
		t.Fatal("s1 must not see e2")
	}
	if !s2.Has("e1") || !s2.Has("e2") {
		t.Fatal("s2 must hold both items")
	}
	if s1.ParentID != s0.VersionID || s2.ParentID != s1.VersionID {
		t.Fatal("parent chain broken")
	}
	if s1.VersionID == s0.VersionID {
		t.Fatal("transition must mint a new version ID")
	}
}

func TestFocusIsolation(t *testing.T) {
	s0 := Initial(t0).WithFocus("h2", t0)
	s1 := s0.WithFocus("h3", t0)
	s2 := s1.ClearFocus(t0)

	if f, _ := s0.Focus(); f != "h2" {
		t.Fatalf("expected h2, got %s", f)
	}
	if f, _ := s1.Focus(); f != "h3" {
		t.Fatalf("expected h3, got %s", f)
	}
	if _, ok := s2.Focus(); ok {
		t.Fatal("expected cleared focus")
	}
}

func TestValue(t *testing.T) {
	s := Initial(t0).Collect("e1", t0).Collect("e2", t0).Spend(4, t0).Advance(3, t0)

	cases := []struct {
		metric Metric
		want   int
	}{
		{MetricItemCount, 2},
		{MetricResourceSpent, 4},
		{MetricProgressUnits, 3},
		{Metric("bogus"), 0},
	}
	for _, tc := range cases {
		if got := s.Value(tc.metric); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.metric, tc.want, got)
		}
	}
}

func TestPartsRoundTrip(t *testing.T) {
	focus := "h1"
	p := Parts{
		VersionID:     "v2",
		ParentID:      "v1",
		Items:         []string{"e1", "e3"},
		ResourceSpent: 5,
		ProgressUnits: 2,
		Focus:         &focus,
		CreatedAt:     t0,
	}
	got := FromParts(p).Parts()
	if diff := cmp.Diff(p, got); diff != "" {
		t.Fatalf("parts mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMetric(t *testing.T) {
	if m, ok := ParseMetric("resourceSpent"); !ok || m != MetricResourceSpent {
		t.Fatalf("expected resourceSpent, got %q %v", m, ok)
	}
	if _, ok := ParseMetric("investigationPoints"); ok {
		t.Fatal("unknown metric must not parse")
	}
}

func TestInvestigateIsOneVersion(t *testing.T) {
	s0 := Initial(t0)
	s1 := s0.Investigate("e4", 3, t0)
	if s1.ParentID != s0.VersionID {
		t.Fatal("expected a single hop from s0")
	}
	if !s1.Has("e4") || s1.ResourceSpent != 3 {
		t.Fatalf("unexpected state %+v", s1.Parts())
	}
}
