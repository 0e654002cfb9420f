// Package store persists play sessions in SQLite: a chain of save-document
// snapshots per session, an active pointer used for resume and rollback, and
// the action provenance log.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/casefiles/internal/savefile"
	"github.com/danielpatrickdp/casefiles/internal/session"
)

// ErrNotFound is returned when a session or snapshot does not exist.
var ErrNotFound = errors.New("not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	case_id       TEXT NOT NULL,
	case_path     TEXT,
	started_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	snapshot_id   TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	parent_id     TEXT,
	state_version TEXT NOT NULL,
	document      TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id),
	FOREIGN KEY (parent_id) REFERENCES snapshots(snapshot_id)
);

CREATE TABLE IF NOT EXISTS active_snapshot (
	session_id    TEXT PRIMARY KEY,
	snapshot_id   TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id),
	FOREIGN KEY (snapshot_id) REFERENCES snapshots(snapshot_id)
);

CREATE TABLE IF NOT EXISTS action_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	snapshot_id   TEXT NOT NULL,
	action_kind   TEXT NOT NULL,
	payload_json  TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// #endregion schema

// #region store-struct
// Store manages session snapshots in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the action log writer.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region create-session
// CreateSession registers sess and stores its first snapshot as active.
func (s *Store) CreateSession(sess session.Session, casePath string) (SnapshotRecord, error) {
	doc, err := savefile.Encode(sess)
	if err != nil {
		return SnapshotRecord{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, case_id, case_path, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.CaseID, nullIfEmpty(casePath), sess.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("insert session: %w", err)
	}

	rec, err := s.insertSnapshot(tx, sess, doc, "")
	if err != nil {
		return SnapshotRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return SnapshotRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion create-session

// #region commit
// Commit stores sess as a new snapshot whose parent is the session's current
// active snapshot, then moves the active pointer to it.
func (s *Store) Commit(sess session.Session) (SnapshotRecord, error) {
	doc, err := savefile.Encode(sess)
	if err != nil {
		return SnapshotRecord{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parentID string
	err = tx.QueryRow(`SELECT snapshot_id FROM active_snapshot WHERE session_id = ?`, sess.ID).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, fmt.Errorf("session %s: %w", sess.ID, ErrNotFound)
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("get active: %w", err)
	}

	rec, err := s.insertSnapshot(tx, sess, doc, parentID)
	if err != nil {
		return SnapshotRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return SnapshotRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func (s *Store) insertSnapshot(tx *sql.Tx, sess session.Session, doc []byte, parentID string) (SnapshotRecord, error) {
	rec := SnapshotRecord{
		SnapshotID:   uuid.New().String(),
		SessionID:    sess.ID,
		ParentID:     parentID,
		StateVersion: sess.State.VersionID,
		Document:     doc,
		CreatedAt:    s.now().UTC(),
	}
	_, err := tx.Exec(
		`INSERT INTO snapshots (snapshot_id, session_id, parent_id, state_version, document, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SnapshotID, rec.SessionID, nullIfEmpty(parentID), rec.StateVersion, string(doc),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("insert snapshot: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO active_snapshot (session_id, snapshot_id) VALUES (?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET snapshot_id = excluded.snapshot_id`,
		rec.SessionID, rec.SnapshotID,
	)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("set active: %w", err)
	}
	return rec, nil
}

// #endregion commit

// #region load
// Current returns the active snapshot of a session.
func (s *Store) Current(sessionID string) (SnapshotRecord, error) {
	var snapshotID string
	err := s.db.QueryRow(`SELECT snapshot_id FROM active_snapshot WHERE session_id = ?`, sessionID).Scan(&snapshotID)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("get active: %w", err)
	}
	return s.Snapshot(snapshotID)
}

// Snapshot retrieves one snapshot by id.
func (s *Store) Snapshot(id string) (SnapshotRecord, error) {
	row := s.db.QueryRow(
		`SELECT snapshot_id, session_id, parent_id, state_version, document, created_at
		 FROM snapshots WHERE snapshot_id = ?`, id,
	)
	rec, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return rec, nil
}

// Load decodes the active snapshot of a session.
func (s *Store) Load(sessionID string) (session.Session, error) {
	rec, err := s.Current(sessionID)
	if err != nil {
		return session.Session{}, err
	}
	sess, err := savefile.Decode(rec.Document)
	if err != nil {
		return session.Session{}, fmt.Errorf("decode snapshot %s: %w", rec.SnapshotID, err)
	}
	return sess, nil
}

// Session returns the registration row of a session.
func (s *Store) Session(sessionID string) (SessionRecord, error) {
	var rec SessionRecord
	var casePath sql.NullString
	var startedStr string
	err := s.db.QueryRow(
		`SELECT session_id, case_id, case_path, started_at FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&rec.SessionID, &rec.CaseID, &casePath, &startedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	rec.CasePath = casePath.String
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	return rec, nil
}

// #endregion load

// #region rollback
// Rollback moves a session's active pointer back to one of its own snapshots.
// Later snapshots stay in the table; the next Commit branches from the target.
func (s *Store) Rollback(sessionID, snapshotID string) error {
	rec, err := s.Snapshot(snapshotID)
	if err != nil {
		return err
	}
	if rec.SessionID != sessionID {
		return fmt.Errorf("snapshot %s belongs to session %s, not %s", snapshotID, rec.SessionID, sessionID)
	}
	_, err = s.db.Exec(`UPDATE active_snapshot SET snapshot_id = ? WHERE session_id = ?`, snapshotID, sessionID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list
// ListSnapshots returns a session's most recent snapshots, newest first.
func (s *Store) ListSnapshots(sessionID string, limit int) ([]SnapshotRecord, error) {
	rows, err := s.db.Query(
		`SELECT snapshot_id, session_id, parent_id, state_version, document, created_at
		 FROM snapshots WHERE session_id = ? ORDER BY rowid DESC LIMIT ?`, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListWithActions returns a session's snapshots, newest first, joined with
// the latest action_log row that points at each of them.
func (s *Store) ListWithActions(sessionID string, limit int) ([]SnapshotWithAction, error) {
	rows, err := s.db.Query(
		`SELECT s.snapshot_id, s.session_id, s.parent_id, s.state_version, s.document, s.created_at,
		        COALESCE(a.action_kind, ''), COALESCE(a.decision, ''), COALESCE(a.reason, '')
		 FROM snapshots s
		 LEFT JOIN action_log a ON a.id = (
		     SELECT MAX(id) FROM action_log WHERE snapshot_id = s.snapshot_id AND decision = 'commit'
		 )
		 WHERE s.session_id = ?
		 ORDER BY s.rowid DESC LIMIT ?`, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list with actions: %w", err)
	}
	defer rows.Close()

	var out []SnapshotWithAction
	for rows.Next() {
		var rec SnapshotWithAction
		var parentID sql.NullString
		var doc, createdStr string
		if err := rows.Scan(&rec.SnapshotID, &rec.SessionID, &parentID, &rec.StateVersion, &doc, &createdStr,
			&rec.ActionKind, &rec.Decision, &rec.Reason); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.ParentID = parentID.String
		rec.Document = []byte(doc)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListSessions returns every registered session, newest first.
func (s *Store) ListSessions() ([]SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, case_id, case_path, started_at FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var casePath sql.NullString
		var startedStr string
		if err := rows.Scan(&rec.SessionID, &rec.CaseID, &casePath, &startedStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.CasePath = casePath.String
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion list

// #region helpers
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(r rowScanner) (SnapshotRecord, error) {
	var rec SnapshotRecord
	var parentID sql.NullString
	var doc, createdStr string
	if err := r.Scan(&rec.SnapshotID, &rec.SessionID, &parentID, &rec.StateVersion, &doc, &createdStr); err != nil {
		return SnapshotRecord{}, err
	}
	rec.ParentID = parentID.String
	rec.Document = []byte(doc)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
