package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/scoring"
	"github.com/danielpatrickdp/casefiles/internal/session"
	"github.com/danielpatrickdp/casefiles/internal/store"
)

var (
	inspectSession  string
	inspectSnapshot string
	inspectLast     int
	inspectJSON     bool
)

// #region command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List sessions, a session's snapshot chain, or one save document",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer st.Close()

		out := cmd.OutOrStdout()
		switch {
		case inspectSnapshot != "":
			return runSnapshotDetail(out, st, inspectSnapshot)
		case inspectSession != "":
			return runSessionMode(out, st, inspectSession, inspectLast, inspectJSON)
		default:
			return runSessionList(out, st, inspectJSON)
		}
	},
}

func init() {
	f := inspectCmd.Flags()
	f.StringVar(&inspectSession, "session", "", "show the snapshot chain of one session")
	f.StringVar(&inspectSnapshot, "snapshot", "", "print one save document")
	f.IntVar(&inspectLast, "last", 20, "show N most recent snapshots")
	f.BoolVar(&inspectJSON, "json", false, "output as JSON instead of table")
}

// #endregion command

// #region session-list
type sessionRow struct {
	SessionID string `json:"session_id"`
	CaseID    string `json:"case_id"`
	CasePath  string `json:"case_path"`
	StartedAt string `json:"started_at"`
}

func runSessionList(out io.Writer, st *store.Store, jsonOut bool) error {
	sessions, err := st.ListSessions()
	if err != nil {
		return err
	}
	rows := make([]sessionRow, len(sessions))
	for i, s := range sessions {
		rows[i] = sessionRow{
			SessionID: s.SessionID,
			CaseID:    s.CaseID,
			CasePath:  s.CasePath,
			StartedAt: s.StartedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if jsonOut {
		return printJSON(out, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "no sessions found")
		return nil
	}
	fmt.Fprintf(out, "%-36s  %-20s  %-20s  %s\n", "Session", "Case", "Started", "Case file")
	for _, r := range rows {
		fmt.Fprintf(out, "%-36s  %-20s  %-20s  %s\n", r.SessionID, r.CaseID, r.StartedAt, r.CasePath)
	}
	return nil
}

// #endregion session-list

// #region session-mode
type snapshotRow struct {
	SnapshotID   string `json:"snapshot_id"`
	StateVersion string `json:"state_version"`
	Action       string `json:"action,omitempty"`
	Decision     string `json:"decision,omitempty"`
	Reason       string `json:"reason,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type sessionOutput struct {
	Session   sessionRow      `json:"session"`
	Snapshots []snapshotRow   `json:"snapshots"`
	Review    *scoring.Report `json:"review,omitempty"`
}

func runSessionMode(out io.Writer, st *store.Store, sessionID string, last int, jsonOut bool) error {
	rec, err := st.Session(sessionID)
	if err != nil {
		return err
	}
	snaps, err := st.ListWithActions(sessionID, last)
	if err != nil {
		return err
	}

	res := sessionOutput{
		Session: sessionRow{
			SessionID: rec.SessionID,
			CaseID:    rec.CaseID,
			CasePath:  rec.CasePath,
			StartedAt: rec.StartedAt.Format("2006-01-02T15:04:05Z"),
		},
		Snapshots: make([]snapshotRow, len(snaps)),
	}
	// store returns newest first; print chronologically
	for i, s := range snaps {
		res.Snapshots[len(snaps)-1-i] = snapshotRow{
			SnapshotID:   s.SnapshotID,
			StateVersion: s.StateVersion,
			Action:       s.ActionKind,
			Decision:     s.Decision,
			Reason:       s.Reason,
			CreatedAt:    s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	// The review needs the case file; a moved file only drops the review.
	if r, err := reviewSession(st, rec); err == nil {
		res.Review = &r
	} else {
		logger.Debug("review unavailable: " + err.Error())
	}

	if jsonOut {
		return printJSON(out, res)
	}

	fmt.Fprintf(out, "Session %s (case %s, started %s)\n\n", res.Session.SessionID, res.Session.CaseID, res.Session.StartedAt)
	fmt.Fprintf(out, "%-12s  %-12s  %-12s  %-8s  %s\n", "Snapshot", "Version", "Action", "Decision", "Time")
	for _, r := range res.Snapshots {
		action := r.Action
		if action == "" {
			action = "start"
		}
		fmt.Fprintf(out, "%-12s  %-12s  %-12s  %-8s  %s\n",
			shortID(r.SnapshotID), shortID(r.StateVersion), action, r.Decision, r.CreatedAt)
	}
	if res.Review != nil {
		fmt.Fprintln(out)
		printReport(out, *res.Review)
	}
	return nil
}

func reviewSession(st *store.Store, rec store.SessionRecord) (scoring.Report, error) {
	c, err := casedata.Load(rec.CasePath)
	if err != nil {
		return scoring.Report{}, err
	}
	sess, err := st.Load(rec.SessionID)
	if err != nil {
		return scoring.Report{}, err
	}
	return session.NewEngine(c, logger).Review(sess), nil
}

// #endregion session-mode

// #region detail-mode
func runSnapshotDetail(out io.Writer, st *store.Store, snapshotID string) error {
	snap, err := st.Snapshot(snapshotID)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, snap.Document, "", "  "); err != nil {
		return fmt.Errorf("snapshot %s: %w", snapshotID, err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(out)
	return err
}

// #endregion detail-mode

// #region helpers
func printReport(out io.Writer, r scoring.Report) {
	status := "open"
	if r.Closed {
		status = "closed"
		if r.TierDiscovery.Correct {
			status += ", correct"
		} else {
			status += ", incorrect"
		}
	}
	fmt.Fprintf(out, "Review (%s)\n", status)
	for _, m := range r.Metrics {
		fmt.Fprintf(out, "  %-26s %.2f\n", m.Name, m.Value)
	}
	fmt.Fprintf(out, "  %-26s %.2f\n", "overall", r.Overall)
	fmt.Fprintf(out, "  tier-2 unlocked %d/%d, branches exercised %d\n",
		r.TierDiscovery.Tier2Unlocked, r.TierDiscovery.Tier2Total, r.TierDiscovery.BranchesExercised)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// #endregion helpers
