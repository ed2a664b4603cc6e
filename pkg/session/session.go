// Package session holds the identity and collected records of one run.
package session

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/sequence"
	"github.com/r3d91ll/asrt/pkg/trial"
)

// Info is what the experimenter enters before a run.
type Info struct {
	Participant string `json:"participant"`
	Session     string `json:"session"`
	Language    string `json:"language"`
}

// DefaultInfo returns the dialog defaults.
func DefaultInfo() Info {
	return Info{Participant: "1", Session: "1", Language: "en"}
}

// Validate checks that the participant is an integer and the other fields
// are present.
func (i Info) Validate() error {
	if _, err := strconv.Atoi(strings.TrimSpace(i.Participant)); err != nil {
		return werrors.Session(werrors.ErrSessionInvalidInfo, "participant must be an integer").
			WithContext("participant", i.Participant)
	}
	if strings.TrimSpace(i.Session) == "" {
		return werrors.Session(werrors.ErrSessionInvalidInfo, "session is required")
	}
	if strings.TrimSpace(i.Language) == "" {
		return werrors.Session(werrors.ErrSessionInvalidInfo, "language is required")
	}
	return nil
}

// ParticipantNumber returns the participant as an integer. Info must be valid.
func (i Info) ParticipantNumber() int {
	n, _ := strconv.Atoi(strings.TrimSpace(i.Participant))
	return n
}

// Session is one participant run.
type Session struct {
	ID        string           `json:"id"`
	Info      Info             `json:"info"`
	Pattern   sequence.Pattern `json:"-"`
	Seed      uint64           `json:"seed"`
	StartedAt time.Time        `json:"started_at"`
	EndedAt   *time.Time       `json:"ended_at,omitempty"`
	Aborted   bool             `json:"aborted"`

	mu      sync.RWMutex
	records []trial.Record
}

// New validates info and starts a session. The participant's sequence is
// assigned from the permutation table.
func New(info Info, seed uint64) (*Session, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	info.Participant = strings.TrimSpace(info.Participant)
	return &Session{
		ID:        uuid.New().String(),
		Info:      info,
		Pattern:   sequence.ForParticipant(info.ParticipantNumber()),
		Seed:      seed,
		StartedAt: time.Now(),
	}, nil
}

// FileBase returns the output file name stem shared by the CSV, manifest
// and database files.
func (s *Session) FileBase() string {
	return fmt.Sprintf("participant_%s_session_%s_%s_data",
		s.Info.Participant, s.Info.Session, s.StartedAt.Format("2006-01-02_150405"))
}

// Add appends a record, stamping participant and session, and returns it.
func (s *Session) Add(r trial.Record) trial.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Participant = s.Info.Participant
	r.Session = s.Info.Session
	s.records = append(s.records, r)
	return r
}

// Records returns a copy of everything collected so far.
func (s *Session) Records() []trial.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trial.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Block returns a copy of the records of one block.
func (s *Session) Block(practice bool, block int) []trial.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []trial.Record
	for _, r := range s.records {
		if r.Practice == practice && r.Block == block {
			out = append(out, r)
		}
	}
	return out
}

// BackfillBlock sets the mind-wandering ratings on every record of a block
// and returns how many were updated.
func (s *Session) BackfillBlock(practice bool, block int, ratings [4]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.records {
		if s.records[i].Practice == practice && s.records[i].Block == block {
			s.records[i].MindWandering = ratings
			n++
		}
	}
	return n
}

// End marks the session as ended.
func (s *Session) End(aborted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndedAt = &now
	s.Aborted = aborted
}
