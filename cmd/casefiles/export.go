package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/casefiles/internal/logging"
	"github.com/danielpatrickdp/casefiles/internal/replay"
	"github.com/danielpatrickdp/casefiles/internal/store"
)

var (
	exportSession string
	exportOut     string
	exportDesc    string
)

var exportCmd = &cobra.Command{
	Use:   "export-fixture",
	Short: "Write a session's action log as a replay fixture",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer st.Close()
		return runExport(cmd.OutOrStdout(), st, exportSession, exportOut, exportDesc)
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportSession, "session", "", "session to export")
	f.StringVar(&exportOut, "out", "", "output fixture JSON path")
	f.StringVar(&exportDesc, "description", "", "fixture description (default: session id)")
	_ = exportCmd.MarkFlagRequired("session")
	_ = exportCmd.MarkFlagRequired("out")
}

// #region extract
func runExport(out io.Writer, st *store.Store, sessionID, outPath, description string) error {
	rec, err := st.Session(sessionID)
	if err != nil {
		return err
	}
	entries, err := logging.Actions(st.DB(), sessionID)
	if err != nil {
		return fmt.Errorf("read action log: %w", err)
	}
	entries, err = activeBranch(st, sessionID, entries)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("session %s has no logged actions", sessionID)
	}

	if description == "" {
		description = "exported from session " + sessionID
	}
	f, err := replay.FixtureFromLog(description, fixtureCasePath(outPath, rec.CasePath), entries)
	if err != nil {
		return err
	}
	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %d actions to %s\n", len(f.Actions), outPath)
	return nil
}

// activeBranch drops actions taken on snapshots that were later undone, so
// a linear replay reproduces the session as it stands.
func activeBranch(st *store.Store, sessionID string, entries []logging.ActionEntry) ([]logging.ActionEntry, error) {
	cur, err := st.Current(sessionID)
	if err != nil {
		return nil, err
	}
	chain := map[string]bool{}
	for snap := cur; ; {
		chain[snap.SnapshotID] = true
		if snap.ParentID == "" {
			break
		}
		if snap, err = st.Snapshot(snap.ParentID); err != nil {
			return nil, err
		}
	}
	kept := entries[:0]
	for _, e := range entries {
		if chain[e.SnapshotID] {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

// fixtureCasePath makes the case path relative to the fixture's directory
// when possible, matching how LoadFixture resolves it.
func fixtureCasePath(outPath, casePath string) string {
	absCase, err := filepath.Abs(casePath)
	if err != nil {
		return casePath
	}
	absDir, err := filepath.Abs(filepath.Dir(outPath))
	if err != nil {
		return absCase
	}
	rel, err := filepath.Rel(absDir, absCase)
	if err != nil {
		return absCase
	}
	return filepath.ToSlash(rel)
}

// #endregion extract
