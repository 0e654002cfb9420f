package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/danielpatrickdp/casefiles/internal/logging"
	"github.com/danielpatrickdp/casefiles/internal/session"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Case            string                  `json:"case"` // relative to the fixture file
	StartTime       time.Time               `json:"start_time,omitempty"`
	StepSeconds     int                     `json:"step_seconds,omitempty"`
	Actions         []session.Action        `json:"actions"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`

	dir string
}

// FixtureExpectedResult pins what one step must produce. Step is 1-based.
type FixtureExpectedResult struct {
	Step        int      `json:"step"`
	Decision    string   `json:"decision"`
	Unlocks     []string `json:"unlocks,omitempty"`
	Discoveries []string `json:"discoveries,omitempty"`
}

// Mismatch is one difference between a fixture and a replay.
type Mismatch struct {
	Step  int
	Field string
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("step %d %s: want %s, got %s", m.Step, m.Field, m.Want, m.Got)
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Case == "" {
		return nil, fmt.Errorf("fixture %s: case path is required", path)
	}
	f.dir = filepath.Dir(path)
	return &f, nil
}

// CasePath resolves the case file relative to the fixture's directory.
func (f *Fixture) CasePath() string {
	if filepath.IsAbs(f.Case) || f.dir == "" {
		return f.Case
	}
	return filepath.Join(f.dir, f.Case)
}

// ToReplayConfig converts the fixture's clock settings into a ReplayConfig.
func (f *Fixture) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	if !f.StartTime.IsZero() {
		cfg.StartTime = f.StartTime
	}
	if f.StepSeconds > 0 {
		cfg.Step = time.Duration(f.StepSeconds) * time.Second
	}
	return cfg
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-loader

// #region compare

// Compare checks results against the fixture's expectations. Steps without an
// expectation are not checked.
func (f *Fixture) Compare(results []ReplayResult) []Mismatch {
	var out []Mismatch
	for _, exp := range f.ExpectedResults {
		if exp.Step < 1 || exp.Step > len(results) {
			out = append(out, Mismatch{Step: exp.Step, Field: "step", Want: "present", Got: "missing"})
			continue
		}
		r := results[exp.Step-1]
		if exp.Decision != "" && exp.Decision != r.Decision {
			out = append(out, Mismatch{Step: exp.Step, Field: "decision", Want: exp.Decision, Got: r.Decision + " (" + r.Reason + ")"})
		}
		if !sameSet(exp.Unlocks, r.Unlocks) {
			out = append(out, Mismatch{Step: exp.Step, Field: "unlocks", Want: fmt.Sprint(exp.Unlocks), Got: fmt.Sprint(r.Unlocks)})
		}
		if !sameSet(exp.Discoveries, r.Discoveries) {
			out = append(out, Mismatch{Step: exp.Step, Field: "discoveries", Want: fmt.Sprint(exp.Discoveries), Got: fmt.Sprint(r.Discoveries)})
		}
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

// #endregion compare

// #region export

// FixtureFromLog turns a session's action_log into a fixture whose
// expectations are what the session actually produced. Acknowledgements are
// left out: unlock event ids are fresh uuids on every run, and acknowledging
// never changes progress, unlocks or contradictions.
func FixtureFromLog(description, casePath string, entries []logging.ActionEntry) (Fixture, error) {
	f := Fixture{
		Description:     description,
		Case:            casePath,
		Actions:         make([]session.Action, 0, len(entries)),
		ExpectedResults: make([]FixtureExpectedResult, 0, len(entries)),
	}
	for i, e := range entries {
		if e.ActionKind == string(session.ActionAcknowledge) {
			continue
		}
		a, err := e.Action()
		if err != nil {
			return Fixture{}, fmt.Errorf("entry %d: %w", i+1, err)
		}
		var p logging.ActionPayload
		if e.PayloadJSON != "" {
			if err := json.Unmarshal([]byte(e.PayloadJSON), &p); err != nil {
				return Fixture{}, fmt.Errorf("entry %d payload: %w", i+1, err)
			}
		}
		f.Actions = append(f.Actions, a)
		f.ExpectedResults = append(f.ExpectedResults, FixtureExpectedResult{
			Step:        len(f.Actions),
			Decision:    e.Decision,
			Unlocks:     p.Unlocks,
			Discoveries: p.Discoveries,
		})
	}
	return f, nil
}

// #endregion export
