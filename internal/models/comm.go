package models

import "time"

// CommKind distinguishes the two exchange shapes the manager can request.
type CommKind string

const (
	KindPrivateChat CommKind = "private_chat"
	KindMeeting     CommKind = "meeting"
)

// CommunicationDecision is the manager's call on whether to open a
// clarification exchange this cycle. Immutable once created; every one is
// appended to the audit log regardless of outcome.
type CommunicationDecision struct {
	ShouldCommunicate bool         `json:"should_communicate"`
	Kind              CommKind     `json:"kind,omitempty"`
	Topic             string       `json:"topic,omitempty"`
	Targets           []ProducerID `json:"targets,omitempty"`
	Rationale         string       `json:"rationale"`
	Cycle             int          `json:"cycle"`
	Timestamp         time.Time    `json:"timestamp"`
}

// ExchangeResult is what a private chat or meeting produced: revised signals
// plus how many of them actually changed direction or confidence. Consumed
// immediately to decide whether the negotiation loop continues.
type ExchangeResult struct {
	AdjustmentsMade int                     `json:"adjustments_made"`
	UpdatedSignals  map[ProducerID][]Signal `json:"updated_signals"`
	Rounds          int                     `json:"rounds"`
}

// ChatRecord and MeetingRecord are the audit-log entries for completed
// exchanges.
type ChatRecord struct {
	Cycle       int        `json:"cycle"`
	Producer    ProducerID `json:"producer"`
	Topic       string     `json:"topic"`
	Rounds      int        `json:"rounds"`
	Adjustments int        `json:"adjustments"`
	At          time.Time  `json:"at"`
}

type MeetingRecord struct {
	Cycle        int          `json:"cycle"`
	Participants []ProducerID `json:"participants"`
	Topic        string       `json:"topic"`
	Rounds       int          `json:"rounds"`
	Adjustments  int          `json:"adjustments"`
	At           time.Time    `json:"at"`
}

// CommLog is the complete replayable trace of one session's deliberation.
type CommLog struct {
	Decisions []CommunicationDecision `json:"decisions"`
	Chats     []ChatRecord            `json:"chats"`
	Meetings  []MeetingRecord         `json:"meetings"`
}

func (l CommLog) Clone() CommLog {
	out := CommLog{
		Decisions: make([]CommunicationDecision, len(l.Decisions)),
		Chats:     make([]ChatRecord, len(l.Chats)),
		Meetings:  make([]MeetingRecord, len(l.Meetings)),
	}
	copy(out.Decisions, l.Decisions)
	copy(out.Chats, l.Chats)
	copy(out.Meetings, l.Meetings)
	return out
}
