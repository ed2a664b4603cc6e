package monitor

import (
	"log"

	"github.com/r3d91ll/asrt/pkg/feedback"
	"github.com/r3d91ll/asrt/pkg/trial"
)

// -----------------------------------------------------------------------------
// Event Data Types
// -----------------------------------------------------------------------------

// SessionStartEvent announces a new session.
type SessionStartEvent struct {
	SessionID   string `json:"sessionId"`
	Participant string `json:"participant"`
	Session     string `json:"session"`
	Language    string `json:"language"`
	Sequence    string `json:"sequence"`
	Seed        uint64 `json:"seed"`
	Blocks      int    `json:"blocks"`
	Practice    int    `json:"practiceBlocks"`
}

// BlockStartEvent announces a block with its no-go trials (1-based).
type BlockStartEvent struct {
	Block    int    `json:"block"`
	Practice bool   `json:"practice"`
	Epoch    int    `json:"epoch"`
	Sequence string `json:"sequence"`
	NoGo     []int  `json:"nogo"`
	Trials   int    `json:"trials"`
}

// TrialEvent is one recorded response row.
type TrialEvent struct {
	Block        int      `json:"block"`
	Practice     bool     `json:"practice"`
	TrialNumber  int      `json:"trialNumber"`
	TrialInBlock int      `json:"trialInBlock"`
	Type         string   `json:"type"`
	Class        string   `json:"class"`
	Position     int      `json:"position"`
	NoGo         bool     `json:"nogo"`
	Correct      bool     `json:"correct"`
	ResponseKey  string   `json:"responseKey"`
	RT           *float64 `json:"rt,omitempty"`
}

// NewTrialEvent converts a record.
func NewTrialEvent(r *trial.Record) *TrialEvent {
	return &TrialEvent{
		Block:        r.Block,
		Practice:     r.Practice,
		TrialNumber:  r.TrialNumber,
		TrialInBlock: r.TrialInBlock,
		Type:         r.Type.String(),
		Class:        r.Class.Name(),
		Position:     int(r.Position),
		NoGo:         r.NoGo,
		Correct:      r.Correct,
		ResponseKey:  r.ResponseKey,
		RT:           r.RTCumulative,
	}
}

// BlockEndEvent carries the block summary and probe ratings.
type BlockEndEvent struct {
	Block          int       `json:"block"`
	Practice       bool      `json:"practice"`
	MeanRT         float64   `json:"meanRt"`
	RTSD           float64   `json:"rtSd"`
	Accuracy       float64   `json:"accuracy"`
	CommissionRate float64   `json:"commissionRate"`
	Verdict        string    `json:"verdict"`
	Ratings        [4]string `json:"ratings"`
}

// NewBlockEndEvent builds the event from a block summary.
func NewBlockEndEvent(block int, practice bool, s feedback.Summary, ratings [4]string) *BlockEndEvent {
	return &BlockEndEvent{
		Block:          block,
		Practice:       practice,
		MeanRT:         s.MeanRT,
		RTSD:           s.RTSD,
		Accuracy:       s.Accuracy,
		CommissionRate: s.CommissionRate(),
		Verdict:        s.Verdict().TextKey(),
		Ratings:        ratings,
	}
}

// SessionEndEvent announces the end of a session.
type SessionEndEvent struct {
	SessionID string `json:"sessionId"`
	Aborted   bool   `json:"aborted"`
	Records   int    `json:"records"`
}

// Status is the snapshot served at /status and sent to new status
// subscribers.
type Status struct {
	SessionID   string  `json:"sessionId,omitempty"`
	Participant string  `json:"participant,omitempty"`
	Phase       string  `json:"phase"`
	Block       int     `json:"block"`
	Blocks      int     `json:"blocks"`
	Practice    bool    `json:"practice"`
	Records     int     `json:"records"`
	LastRT      float64 `json:"lastRt,omitempty"`
	Accuracy    float64 `json:"lastBlockAccuracy,omitempty"`
	UpdatedAt   string  `json:"updatedAt,omitempty"`
}

// Session phases reported in Status.
const (
	PhaseIdle     = "idle"
	PhaseRunning  = "running"
	PhaseFinished = "finished"
	PhaseAborted  = "aborted"
)

// -----------------------------------------------------------------------------
// Observer
// -----------------------------------------------------------------------------

// Observer receives session progress. Implementations must not block.
type Observer interface {
	SessionStarted(e *SessionStartEvent)
	BlockStarted(e *BlockStartEvent)
	TrialRecorded(r *trial.Record)
	BlockEnded(e *BlockEndEvent)
	SessionEnded(e *SessionEndEvent)
}

// Nop is an Observer that ignores everything.
type Nop struct{}

func (Nop) SessionStarted(*SessionStartEvent) {}
func (Nop) BlockStarted(*BlockStartEvent)     {}
func (Nop) TrialRecorded(*trial.Record)       {}
func (Nop) BlockEnded(*BlockEndEvent)         {}
func (Nop) SessionEnded(*SessionEndEvent)     {}

// Ensure Hub implements Observer at compile time.
var _ Observer = (*Hub)(nil)

// SessionStarted implements Observer.
func (h *Hub) SessionStarted(e *SessionStartEvent) {
	st := h.updateStatus(func(s *Status) {
		*s = Status{SessionID: e.SessionID, Participant: e.Participant, Phase: PhaseRunning, Blocks: e.Blocks}
	})
	h.publish(ChannelStatus, EventTypeSessionStart, e)
	h.publish(ChannelStatus, EventTypeStatus, st)
}

// BlockStarted implements Observer.
func (h *Hub) BlockStarted(e *BlockStartEvent) {
	h.updateStatus(func(s *Status) {
		s.Block = e.Block
		s.Practice = e.Practice
	})
	h.publish(ChannelStatus, EventTypeBlockStart, e)
}

// TrialRecorded implements Observer.
func (h *Hub) TrialRecorded(r *trial.Record) {
	h.updateStatus(func(s *Status) {
		s.Records++
		if r.RTCumulative != nil {
			s.LastRT = *r.RTCumulative
		}
	})
	h.publish(ChannelTrials, EventTypeTrial, NewTrialEvent(r))
}

// BlockEnded implements Observer.
func (h *Hub) BlockEnded(e *BlockEndEvent) {
	h.updateStatus(func(s *Status) { s.Accuracy = e.Accuracy })
	h.publish(ChannelStatus, EventTypeBlockEnd, e)
}

// SessionEnded implements Observer.
func (h *Hub) SessionEnded(e *SessionEndEvent) {
	st := h.updateStatus(func(s *Status) {
		s.Phase = PhaseFinished
		if e.Aborted {
			s.Phase = PhaseAborted
		}
		s.Records = e.Records
	})
	h.publish(ChannelStatus, EventTypeSessionEnd, e)
	h.publish(ChannelStatus, EventTypeStatus, st)
}

func (h *Hub) publish(channel, typ string, data interface{}) {
	if err := h.BroadcastToChannel(channel, &Message{Type: typ, Data: data, Timestamp: now()}); err != nil {
		log.Printf("[monitor] broadcast %s: %v", typ, err)
	}
}
