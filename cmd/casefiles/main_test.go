package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/casefiles/internal/config"
	"github.com/danielpatrickdp/casefiles/internal/logging"
	"github.com/danielpatrickdp/casefiles/internal/session"
	"github.com/danielpatrickdp/casefiles/internal/store"
)

const casePath = "../../cases/restricted-section.yaml"

func tempStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func play(t *testing.T, st *store.Store, sessionID, script string) string {
	t.Helper()
	var out bytes.Buffer
	p, err := openPlayer(st, casePath, sessionID, nil, &out)
	require.NoError(t, err)
	require.NoError(t, p.run(context.Background(), strings.NewReader(script)))
	return out.String()
}

// #region parse
func TestParseCommand(t *testing.T) {
	tests := []struct {
		line   string
		meta   string
		action session.Action
	}{
		{"collect e1", "", session.Collect("e1", 0)},
		{"COLLECT e1 3", "", session.Collect("e1", 3)},
		{"spend 4", "", session.Spend(4)},
		{"progress 2", "", session.Progress(2)},
		{"focus h3", "", session.Focus("h3")},
		{"focus", "", session.Focus("")},
		{"ack 1234", "ack", session.Acknowledge("1234")},
		{"resolve c1 the wand was borrowed", "", session.Resolve("c1", "the wand was borrowed")},
		{"accuse h2", "", session.Verdict("h2")},
		{"status", "status", session.Action{}},
		{"exit", "quit", session.Action{}},
		{"?", "help", session.Action{}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.meta, got.meta)
			assert.Equal(t, tt.action, got.action)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	for _, line := range []string{"collect", "collect e1 lots", "spend", "spend x", "resolve c1", "verdict", "dance"} {
		_, err := parseCommand(line)
		assert.Error(t, err, line)
	}
}

// #endregion parse

// #region validate
func TestRunValidate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runValidate(&out, []string{casePath}))
	assert.Contains(t, out.String(), "ok (case-001")

	out.Reset()
	err := runValidate(&out, []string{casePath, "../../internal/casedata/testdata/broken.yaml"})
	assert.ErrorIs(t, err, errInvalidCase)
	assert.Contains(t, out.String(), "broken.yaml: invalid")
	assert.GreaterOrEqual(t, strings.Count(out.String(), "  - "), 3, "every problem should be listed")
}

// #endregion validate

// #region play
func TestPlay_ScriptedSession(t *testing.T) {
	st := tempStore(t)
	out := play(t, st, "s1", strings.Join([]string{
		"collect e1 2",
		"spend 4",
		"collect e3 1",
		"collect e7 1",
		"resolve c2 nothing to resolve",
		"resolve c1 the wand was borrowed",
		"ack all",
		"status",
		"verdict h4",
		"collect e5",
		"quit",
	}, "\n"))

	assert.Contains(t, out, "New session s1")
	assert.Contains(t, out, "New theory available:")
	assert.Contains(t, out, "Contradiction:")
	assert.Contains(t, out, "Verdict:")
	assert.Contains(t, out, "Review (closed")
	assert.Equal(t, 2, strings.Count(out, "Not possible:"), "resolving c2 and collecting after the verdict are refused")

	sess, err := st.Load("s1")
	require.NoError(t, err)
	assert.True(t, sess.Closed())
	assert.Equal(t, "h4", sess.Verdict.HypothesisID)
	assert.Empty(t, sess.History.Pending())
	assert.True(t, sess.Ledger.IsResolved("c1"))

	entries, err := logging.Actions(st.DB(), "s1")
	require.NoError(t, err)
	require.Len(t, entries, 9)
	assert.Equal(t, "reject", entries[4].Decision)
	assert.Equal(t, "acknowledge", entries[6].ActionKind)
}

func TestPlay_ResumeAndUndo(t *testing.T) {
	st := tempStore(t)
	play(t, st, "s2", "collect e1 2\ncollect e3\nquit\n")

	out := play(t, st, "s2", "undo\nstatus\nquit\n")
	assert.Contains(t, out, "Resumed session s2")
	assert.Contains(t, out, "Rolled back one step.")

	sess, err := st.Load("s2")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, sess.State.Items())

	out = play(t, st, "s2", "undo\nundo\nquit\n")
	assert.Contains(t, out, "Nothing to undo.")
}

func TestOpenPlayer_RejectsCaseMismatch(t *testing.T) {
	st := tempStore(t)
	play(t, st, "s3", "quit\n")

	raw, err := os.ReadFile(casePath)
	require.NoError(t, err)
	other := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(other, []byte(strings.Replace(string(raw), "id: case-001", "id: case-002", 1)), 0o644))

	_, err = openPlayer(st, other, "s3", nil, &bytes.Buffer{})
	assert.ErrorContains(t, err, "belongs to case")
}

func TestOpenPlayer_NewSessionNeedsCase(t *testing.T) {
	_, err := openPlayer(tempStore(t), "", "fresh", nil, &bytes.Buffer{})
	assert.ErrorContains(t, err, "--case is required")
}

// #endregion play

// #region replay-export
func TestRunReplay_Fixture(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runReplay(&out, "../../fixtures/restricted-section.json", false))
	assert.Contains(t, out.String(), "9 commits, 3 rejects, 1 no-ops, 2 unlocks, 2 contradictions")
	assert.Contains(t, out.String(), "PASS")

	out.Reset()
	require.NoError(t, runReplay(&out, "../../fixtures/restricted-section.json", true))
	assert.Contains(t, out.String(), `"mismatches": []`)
}

func TestExportThenReplay(t *testing.T) {
	st := tempStore(t)
	play(t, st, "s4", strings.Join([]string{
		"collect e1 2",
		"collect e2",
		"undo",
		"spend 4",
		"ack all",
		"collect e3 1",
		"collect e7 1",
		"resolve c9 nope",
		"verdict h4",
		"quit",
	}, "\n"))

	fixture := filepath.Join(t.TempDir(), "s4.json")
	var out bytes.Buffer
	require.NoError(t, runExport(&out, st, "s4", fixture, ""))
	assert.Contains(t, out.String(), "wrote 6 actions")

	out.Reset()
	err := runReplay(&out, fixture, false)
	require.NoError(t, err, out.String())
	assert.Contains(t, out.String(), "PASS")
}

func TestRunReplay_Mismatch(t *testing.T) {
	st := tempStore(t)
	play(t, st, "s5", "collect e1 2\nquit\n")
	fixture := filepath.Join(t.TempDir(), "s5.json")
	require.NoError(t, runExport(&bytes.Buffer{}, st, "s5", fixture, "drift"))

	raw, err := os.ReadFile(fixture)
	require.NoError(t, err)
	drifted := strings.Replace(string(raw), `"decision": "commit"`, `"decision": "reject"`, 1)
	require.NoError(t, os.WriteFile(fixture, []byte(drifted), 0o644))

	var out bytes.Buffer
	err = runReplay(&out, fixture, false)
	assert.True(t, errors.Is(err, errFixtureMismatch))
	assert.Contains(t, out.String(), "FAIL: 1 mismatches")
}

// #endregion replay-export

// #region narration-client
func TestNewNarrationClient(t *testing.T) {
	client, closeFn, err := newNarrationClient(config.Default().Narration, nil)
	require.NoError(t, err)
	assert.Nil(t, client, "no provider configured means plain text")
	closeFn()

	nc := config.Default().Narration
	nc.CodecAddr = "localhost:50051"
	client, closeFn, err = newNarrationClient(nc, nil)
	require.NoError(t, err)
	assert.NotNil(t, client)
	closeFn()
}

// #endregion narration-client

// #region inspect
func TestInspect(t *testing.T) {
	st := tempStore(t)
	play(t, st, "s6", "collect e1 2\nspend 4\nquit\n")

	var out bytes.Buffer
	require.NoError(t, runSessionList(&out, st, false))
	assert.Contains(t, out.String(), "s6")
	assert.Contains(t, out.String(), "case-001")

	out.Reset()
	require.NoError(t, runSessionMode(&out, st, "s6", 20, false))
	text := out.String()
	assert.Contains(t, text, "start")
	assert.Contains(t, text, "collect")
	assert.Contains(t, text, "Review (open)")

	out.Reset()
	require.NoError(t, runSessionMode(&out, st, "s6", 20, true))
	assert.Contains(t, out.String(), `"action": "spend"`)
	assert.Contains(t, out.String(), `"review"`)

	cur, err := st.Current("s6")
	require.NoError(t, err)
	out.Reset()
	require.NoError(t, runSnapshotDetail(&out, st, cur.SnapshotID))
	assert.Contains(t, out.String(), `"format_version": 1`)

	assert.ErrorIs(t, runSessionMode(&out, st, "missing", 20, false), store.ErrNotFound)
}

// #endregion inspect

func TestPlay_HugeSpendKeepsSessionLoadable(t *testing.T) {
	st := tempStore(t)
	out := play(t, st, "s7", "spend 5\nspend 9223372036854775807\nprogress 9223372036854775807\nquit\n")
	assert.Equal(t, 2, strings.Count(out, "Not possible:"))

	sess, err := st.Load("s7")
	require.NoError(t, err)
	assert.Equal(t, 5, sess.State.ResourceSpent)
	assert.Equal(t, 0, sess.State.ProgressUnits)
}

func TestNarratorCommandText(t *testing.T) {
	assert.Equal(t, "Run the narration service", narratorCmd.Short)
	require.Len(t, narratorCmd.Commands(), 1)
	assert.Equal(t, "serve", narratorCmd.Commands()[0].Name())
}
