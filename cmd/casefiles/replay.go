package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/replay"
	"github.com/danielpatrickdp/casefiles/internal/session"
)

var errFixtureMismatch = errors.New("replay does not match fixture")

var replayJSON bool

var replayCmd = &cobra.Command{
	Use:   "replay <fixture.json>",
	Short: "Replay a fixture and check every pinned step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd.OutOrStdout(), args[0], replayJSON)
	},
}

func init() {
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "print results and summary as JSON")
}

// #region fixture-mode
type replayOutput struct {
	Description string                `json:"description"`
	Results     []replay.ReplayResult `json:"results"`
	Commits     int                   `json:"commits"`
	Rejects     int                   `json:"rejects"`
	NoOps       int                   `json:"no_ops"`
	Unlocks     int                   `json:"unlocks"`
	Discoveries int                   `json:"discoveries"`
	Mismatches  []string              `json:"mismatches"`
}

func runReplay(out io.Writer, fixturePath string, jsonOut bool) error {
	f, err := replay.LoadFixture(fixturePath)
	if err != nil {
		return err
	}
	c, err := casedata.Load(f.CasePath())
	if err != nil {
		return err
	}

	results, e, final := replay.Replay(c, f.Actions, f.ToReplayConfig())
	s := replay.Summarize(results, e, final)
	mismatches := f.Compare(results)

	if jsonOut {
		res := replayOutput{
			Description: f.Description,
			Results:     results,
			Commits:     s.Commits,
			Rejects:     s.Rejects,
			NoOps:       s.NoOps,
			Unlocks:     s.Unlocks,
			Discoveries: s.Discoveries,
			Mismatches:  make([]string, 0, len(mismatches)),
		}
		for _, m := range mismatches {
			res.Mismatches = append(res.Mismatches, m.String())
		}
		if err := printJSON(out, res); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Fixture: %s\n", f.Description)
		fmt.Fprintf(out, "Case:    %s (%d steps)\n\n", c.ID, len(results))
		fmt.Fprintf(out, "%4s  %-28s  %-7s  %s\n", "Step", "Action", "Result", "Fired")
		for _, r := range results {
			fmt.Fprintf(out, "%4d  %-28s  %-7s  %s\n", r.Step, describeAction(r.Action), r.Decision, fired(r))
		}
		fmt.Fprintf(out, "\n%d commits, %d rejects, %d no-ops, %d unlocks, %d contradictions\n\n",
			s.Commits, s.Rejects, s.NoOps, s.Unlocks, s.Discoveries)
		printReport(out, s.Report)
		if len(mismatches) > 0 {
			fmt.Fprintf(out, "\nFAIL: %d mismatches\n", len(mismatches))
			for _, m := range mismatches {
				fmt.Fprintf(out, "  %s\n", m)
			}
		} else {
			fmt.Fprintln(out, "\nPASS")
		}
	}

	if len(mismatches) > 0 {
		return errFixtureMismatch
	}
	return nil
}

// #endregion fixture-mode

func describeAction(a session.Action) string {
	switch a.Kind {
	case session.ActionCollect:
		if a.Amount > 0 {
			return fmt.Sprintf("collect %s (%d)", a.Target, a.Amount)
		}
		return "collect " + a.Target
	case session.ActionSpend, session.ActionProgress:
		return fmt.Sprintf("%s %d", a.Kind, a.Amount)
	case session.ActionResolve:
		return "resolve " + a.Target
	}
	if a.Target == "" {
		return string(a.Kind)
	}
	return string(a.Kind) + " " + a.Target
}

func fired(r replay.ReplayResult) string {
	var parts []string
	for _, id := range r.Unlocks {
		parts = append(parts, "+"+id)
	}
	for _, id := range r.Discoveries {
		parts = append(parts, "!"+id)
	}
	return strings.Join(parts, " ")
}
