package casedata

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/casefiles/internal/errs"
	"github.com/danielpatrickdp/casefiles/internal/progress"
	"github.com/danielpatrickdp/casefiles/internal/requirement"
)

func TestLoadValidCase(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "valid.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ID != "case-001" || c.ResourceBudget != 12 || c.Solution != "h3" {
		t.Fatalf("unexpected header: %+v", c)
	}
	if len(c.Evidence) != 7 || len(c.Hypotheses) != 4 || len(c.Contradictions) != 2 {
		t.Fatalf("unexpected counts: ev=%d hyp=%d con=%d", len(c.Evidence), len(c.Hypotheses), len(c.Contradictions))
	}
	if diff := cmp.Diff(progress.AllMetrics(), c.Metrics); diff != "" {
		t.Fatalf("default metrics mismatch (-want +got):\n%s", diff)
	}
	if c.Tier2Count() != 2 {
		t.Fatalf("expected 2 tier-2 items, got %d", c.Tier2Count())
	}

	h3, ok := c.Hypothesis("h3")
	if !ok {
		t.Fatal("h3 missing")
	}
	want := requirement.AnyOf{Reqs: []requirement.Requirement{
		requirement.ItemCollected{ItemID: "e5"},
		requirement.AllOf{Reqs: []requirement.Requirement{
			requirement.ItemCollected{ItemID: "e2"},
			requirement.ThresholdMet{Metric: progress.MetricItemCount, Threshold: 4},
		}},
	}}
	if diff := cmp.Diff(requirement.Requirement(want), h3.Requires); diff != "" {
		t.Fatalf("h3 requirement mismatch (-want +got):\n%s", diff)
	}

	h1, _ := c.Hypothesis("h1")
	if h1.Tier != Tier1 || h1.Requires != nil {
		t.Fatalf("h1 should be tier 1 without requirement: %+v", h1)
	}

	c1, ok := c.Contradiction("c1")
	if !ok || c1.Evidence != [2]string{"e3", "e7"} {
		t.Fatalf("unexpected c1: %+v", c1)
	}
	if !c.HasEvidence("e7") || c.HasEvidence("e99") {
		t.Fatal("HasEvidence mismatch")
	}
}

func TestLoadBrokenCaseReportsEveryProblem(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "broken.yaml"))
	if err == nil {
		t.Fatal("expected configuration error")
	}
	var ce *errs.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError in chain, got %T: %v", err, err)
	}

	msg := err.Error()
	for _, want := range []string{
		`unknown metric "investigationPoints"`,
		"negative resource budget",
		"evidence e1: duplicate id",
		"tier 1 item must not carry a requirement",
		"tier 2 item has no requirement",
		"invalid tier 3",
		`solution "h9" is not a hypothesis`,
		`references undefined evidence "e8"`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %q\nfull error: %s", want, msg)
		}
	}
}

func TestParseRequirementNodes(t *testing.T) {
	cases := []struct {
		name    string
		doc     string
		wantErr string
		want    requirement.Requirement
	}{
		{
			name: "empty all_of is kept",
			doc: `
id: c
evidence: [{id: e1}]
hypotheses:
  - {id: h, tier: 2, requires: {all_of: []}}
`,
			want: requirement.AllOf{Reqs: []requirement.Requirement{}},
		},
		{
			name: "empty any_of is kept",
			doc: `
id: c
evidence: [{id: e1}]
hypotheses:
  - {id: h, tier: 2, requires: {any_of: []}}
`,
			want: requirement.AnyOf{Reqs: []requirement.Requirement{}},
		},
		{
			name: "two forms in one node",
			doc: `
id: c
evidence: [{id: e1}]
hypotheses:
  - {id: h, tier: 2, requires: {item: e1, any_of: []}}
`,
			wantErr: "exactly one of",
		},
		{
			name: "unknown threshold metric",
			doc: `
id: c
evidence: [{id: e1}]
hypotheses:
  - {id: h, tier: 2, requires: {threshold: {metric: clues, value: 2}}}
`,
			wantErr: `unknown metric "clues"`,
		},
		{
			name: "metric not enabled for case",
			doc: `
id: c
metrics: [itemCount]
evidence: [{id: e1}]
hypotheses:
  - {id: h, tier: 2, requires: {threshold: {metric: resourceSpent, value: 2}}}
`,
			wantErr: `unknown metric "resourceSpent"`,
		},
		{
			name: "undefined item in nested branch",
			doc: `
id: c
evidence: [{id: e1}]
hypotheses:
  - id: h
    tier: 2
    requires:
      any_of:
        - item: e1
        - all_of: [{item: e2}]
`,
			wantErr: `undefined item "e2"`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Parse([]byte(tc.doc))
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			h, _ := c.Hypothesis("h")
			if diff := cmp.Diff(tc.want, h.Requires); diff != "" {
				t.Fatalf("requirement mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("id: [unterminated")); err == nil {
		t.Fatal("expected yaml error")
	}
}
