// Package storage keeps a durable SQLite copy of every recorded trial, so
// data survives a crash between the per-block CSV rewrites.
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/sequence"
	"github.com/r3d91ll/asrt/pkg/trial"
)

// Store provides SQLite-backed persistence for sessions and trials.
type Store struct {
	db   *sql.DB
	path string
}

// SessionRow describes one session in the store.
type SessionRow struct {
	ID          string
	Participant string
	Session     string
	Language    string
	Sequence    string
	Seed        uint64
	StartedAt   time.Time
}

// Open opens or creates the database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, werrors.IOWrap(err, werrors.ErrStoreFailed, path, "failed to open trial store")
	}
	// one writer; avoids SQLITE_BUSY between the runner and readers
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, werrors.IOWrap(err, werrors.ErrStoreFailed, path, "failed to migrate trial store")
	}
	log.Printf("[store] Opened %s", path)
	return &Store{db: db, path: path}, nil
}

// New returns a Store bound to an existing, migrated database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginSession records the start of a session.
func (s *Store) BeginSession(row SessionRow) error {
	_, err := s.db.Exec(`INSERT INTO sessions (id, participant, session, language, sequence, seed, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Participant, row.Session, row.Language, row.Sequence,
		strconv.FormatUint(row.Seed, 10), row.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return s.fail(err, "begin session")
	}
	return nil
}

// EndSession stamps the end time and whether the session was aborted.
func (s *Store) EndSession(id string, at time.Time, aborted bool) error {
	_, err := s.db.Exec(`UPDATE sessions SET ended_at = ?, aborted = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339Nano), boolInt(aborted), id)
	if err != nil {
		return s.fail(err, "end session")
	}
	return nil
}

// InsertTrial appends one record and returns its row ID.
func (s *Store) InsertTrial(sessionID string, r *trial.Record) (int64, error) {
	result, err := s.db.Exec(`INSERT INTO trials (
			session_id, practice, block_number, trial_number, trial_in_block,
			trial_type, probability_type, sequence_used, position,
			rt_non_cumulative_s, rt_cumulative_s, correct_key, response_key,
			correct, is_nogo, epoch, mw_1, mw_2, mw_3, mw_4)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, boolInt(r.Practice), r.Block, r.TrialNumber, r.TrialInBlock,
		r.Type.String(), r.Class.String(), r.SequenceUsed, int(r.Position),
		nullFloat(r.RTNonCumulative), nullFloat(r.RTCumulative), r.CorrectKey, r.ResponseKey,
		boolInt(r.Correct), boolInt(r.NoGo), r.Epoch,
		r.MindWandering[0], r.MindWandering[1], r.MindWandering[2], r.MindWandering[3])
	if err != nil {
		return -1, s.fail(err, "insert trial")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return -1, s.fail(err, "insert trial: last insert id")
	}
	return id, nil
}

// UpdateBlockRatings backfills the mind-wandering ratings of a block.
func (s *Store) UpdateBlockRatings(sessionID string, practice bool, block int, ratings [4]string) error {
	_, err := s.db.Exec(`UPDATE trials SET mw_1 = ?, mw_2 = ?, mw_3 = ?, mw_4 = ?
		WHERE session_id = ? AND practice = ? AND block_number = ?`,
		ratings[0], ratings[1], ratings[2], ratings[3], sessionID, boolInt(practice), block)
	if err != nil {
		return s.fail(err, "update ratings")
	}
	return nil
}

// Trials returns the records of a session in insertion order. Participant
// and session fields are filled from the sessions table.
func (s *Store) Trials(sessionID string) ([]trial.Record, error) {
	var participant, session string
	err := s.db.QueryRow(`SELECT participant, session FROM sessions WHERE id = ?`, sessionID).
		Scan(&participant, &session)
	if err != nil {
		return nil, s.fail(err, "load session")
	}

	rows, err := s.db.Query(`SELECT practice, block_number, trial_number, trial_in_block,
			trial_type, probability_type, sequence_used, position,
			rt_non_cumulative_s, rt_cumulative_s, correct_key, response_key,
			correct, is_nogo, epoch, mw_1, mw_2, mw_3, mw_4
		FROM trials WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, s.fail(err, "list trials")
	}
	defer rows.Close()

	var out []trial.Record
	for rows.Next() {
		var (
			r                 trial.Record
			practice, correct int
			nogo, pos         int
			typ, class        string
			rtNon, rtCum      sql.NullFloat64
		)
		err := rows.Scan(&practice, &r.Block, &r.TrialNumber, &r.TrialInBlock,
			&typ, &class, &r.SequenceUsed, &pos,
			&rtNon, &rtCum, &r.CorrectKey, &r.ResponseKey,
			&correct, &nogo, &r.Epoch,
			&r.MindWandering[0], &r.MindWandering[1], &r.MindWandering[2], &r.MindWandering[3])
		if err != nil {
			return nil, s.fail(err, "scan trial")
		}
		r.Participant = participant
		r.Session = session
		r.Practice = practice == 1
		r.Correct = correct == 1
		r.NoGo = nogo == 1
		r.Position = sequence.Position(pos)
		r.Type = parseType(typ)
		r.Class = parseClass(class)
		if rtNon.Valid {
			r.RTNonCumulative = trial.Seconds(rtNon.Float64)
		}
		if rtCum.Valid {
			r.RTCumulative = trial.Seconds(rtCum.Float64)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(err, "iterate trials")
	}
	return out, nil
}

// Sessions lists the stored sessions, oldest first.
func (s *Store) Sessions() ([]SessionRow, error) {
	rows, err := s.db.Query(`SELECT id, participant, session, language, sequence, seed, started_at
		FROM sessions ORDER BY started_at`)
	if err != nil {
		return nil, s.fail(err, "list sessions")
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var row SessionRow
		var seed, started string
		if err := rows.Scan(&row.ID, &row.Participant, &row.Session, &row.Language, &row.Sequence, &seed, &started); err != nil {
			return nil, s.fail(err, "scan session")
		}
		row.Seed, _ = strconv.ParseUint(seed, 10, 64)
		row.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(err, "iterate sessions")
	}
	return out, nil
}

func (s *Store) fail(err error, op string) error {
	return werrors.IOWrap(err, werrors.ErrStoreFailed, s.path, "trial store: "+op)
}

func parseType(s string) trial.Type {
	if s == trial.Pattern.String() {
		return trial.Pattern
	}
	return trial.Random
}

func parseClass(s string) trial.ProbabilityClass {
	for _, c := range []trial.ProbabilityClass{trial.High, trial.Low, trial.Trill, trial.Repetition} {
		if c.String() == s {
			return c
		}
	}
	return trial.Undefined
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
