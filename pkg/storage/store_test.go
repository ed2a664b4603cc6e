package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/trial"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "asrt.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func beginTestSession(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.BeginSession(SessionRow{
		ID:          id,
		Participant: "7",
		Session:     "1",
		Language:    "en",
		Sequence:    "1,2,4,3",
		Seed:        99,
		StartedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
}

// --- Migrate ---

func TestMigrate_Idempotent(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate #%d: %v", i+1, err)
		}
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("schema_migrations rows = %d, want 1", n)
	}
}

func TestMigrate_NilDB(t *testing.T) {
	if err := Migrate(nil); err == nil {
		t.Error("expected error for nil db")
	}
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil db")
	}
}

// --- Trials ---

func TestInsertAndLoadTrials(t *testing.T) {
	s := openTestStore(t)
	beginTestSession(t, s, "abc")

	go1 := &trial.Record{
		Block: 1, TrialNumber: 1, TrialInBlock: 1,
		Type: trial.Pattern, Class: trial.High, SequenceUsed: "1,2,4,3", Position: 2,
		RTNonCumulative: trial.Seconds(0.31), RTCumulative: trial.Seconds(0.31),
		CorrectKey: "d", ResponseKey: "d", Correct: true, Epoch: 1,
		MindWandering: trial.NARatings(),
	}
	nogo := &trial.Record{
		Block: 1, TrialNumber: 2, TrialInBlock: 2,
		Type: trial.Random, Class: trial.Repetition, SequenceUsed: "1,2,4,3", Position: 2,
		CorrectKey: trial.NoGoKey, ResponseKey: trial.NoResponse, Correct: true, NoGo: true, Epoch: 1,
		MindWandering: trial.NARatings(),
	}
	for _, r := range []*trial.Record{go1, nogo} {
		if _, err := s.InsertTrial("abc", r); err != nil {
			t.Fatalf("InsertTrial: %v", err)
		}
	}

	got, err := s.Trials("abc")
	if err != nil {
		t.Fatalf("Trials: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d trials, want 2", len(got))
	}
	if got[0].Participant != "7" || got[0].Session != "1" {
		t.Errorf("participant/session = %q/%q", got[0].Participant, got[0].Session)
	}
	if got[0].Type != trial.Pattern || got[0].Class != trial.High || got[0].Position != 2 {
		t.Errorf("first trial = %+v", got[0])
	}
	if got[0].RTCumulative == nil || *got[0].RTCumulative != 0.31 {
		t.Errorf("RTCumulative = %v", got[0].RTCumulative)
	}
	if !got[1].NoGo || got[1].RTCumulative != nil || got[1].Class != trial.Repetition {
		t.Errorf("no-go trial = %+v", got[1])
	}
	if got[1].Type != trial.Random {
		t.Errorf("no-go type = %v", got[1].Type)
	}
}

func TestUpdateBlockRatings(t *testing.T) {
	s := openTestStore(t)
	beginTestSession(t, s, "abc")

	for _, r := range []*trial.Record{
		{Block: 1, TrialInBlock: 1, MindWandering: trial.NARatings()},
		{Block: 2, TrialInBlock: 1, MindWandering: trial.NARatings()},
		{Block: 1, TrialInBlock: 1, Practice: true, MindWandering: trial.NARatings()},
	} {
		if _, err := s.InsertTrial("abc", r); err != nil {
			t.Fatal(err)
		}
	}

	ratings := [4]string{"2", "3", "1", "4"}
	if err := s.UpdateBlockRatings("abc", false, 1, ratings); err != nil {
		t.Fatalf("UpdateBlockRatings: %v", err)
	}
	got, err := s.Trials("abc")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].MindWandering != ratings {
		t.Errorf("block 1 ratings = %v", got[0].MindWandering)
	}
	if got[1].MindWandering != trial.NARatings() {
		t.Errorf("block 2 should be untouched, got %v", got[1].MindWandering)
	}
	if got[2].MindWandering != trial.NARatings() {
		t.Errorf("practice block 1 should be untouched, got %v", got[2].MindWandering)
	}
}

// --- Sessions ---

func TestSessions(t *testing.T) {
	s := openTestStore(t)
	beginTestSession(t, s, "abc")
	if err := s.EndSession("abc", time.Now(), true); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	rows, err := s.Sessions()
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d sessions", len(rows))
	}
	if rows[0].Seed != 99 || rows[0].Sequence != "1,2,4,3" || rows[0].StartedAt.Year() != 2026 {
		t.Errorf("session row = %+v", rows[0])
	}
}

func TestTrials_UnknownSession(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Trials("nope")
	if !werrors.IsCode(err, werrors.ErrStoreFailed) {
		t.Errorf("expected STORE_FAILED, got %v", err)
	}
}

func TestInsertTrial_ForeignKey(t *testing.T) {
	s := openTestStore(t)
	_, err := s.InsertTrial("missing", &trial.Record{MindWandering: trial.NARatings()})
	if !werrors.IsCode(err, werrors.ErrStoreFailed) {
		t.Errorf("expected STORE_FAILED for unknown session, got %v", err)
	}
}
