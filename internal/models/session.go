package models

import (
	"sort"
	"time"
)

// DateRange is the bounded lookback window a session analyses.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Flags configures one session's behavior.
type Flags struct {
	Mode          Mode `json:"mode"`
	CommEnabled   bool `json:"comm_enabled"`
	NotifyEnabled bool `json:"notify_enabled"`
	MaxCycles     int  `json:"max_cycles"`
}

// DayStatus summarises how a trading day ended.
type DayStatus string

const (
	DayComplete DayStatus = "complete"
	DayPartial  DayStatus = "partial"
	DaySkipped  DayStatus = "skipped"
)

// SessionState is the shared bag of facts one trading day runs over. Within a
// day it is never touched by more than one writer at a time: coordinator
// tasks work on clones and the orchestrating goroutine applies all merges.
// Cross-day continuity goes through the persist/restore boundary only.
type SessionState struct {
	SessionID string    `json:"session_id"`
	Date      time.Time `json:"date"`
	// SessionIndex counts the trading days this session has executed,
	// 1-based. It persists with the snapshot so reputation cadences keep
	// their position across restarts.
	SessionIndex int              `json:"session_index"`
	Tickers      []TickerID       `json:"tickers"`
	Window       DateRange        `json:"window"`
	Signals      []SignalEnvelope `json:"signals"`
	CommLog      CommLog          `json:"comm_log"`
	Portfolio    Portfolio        `json:"portfolio"`
	Weights      WeightState      `json:"weights"`
	Flags        Flags            `json:"flags"`

	// Final decisions for the day, keyed by ticker. Rewritten after each
	// negotiation cycle; only the last map is final.
	Decisions map[TickerID]Decision `json:"decisions"`

	Status DayStatus `json:"status,omitempty"`
}

// Clone is a structural deep copy. Coordinator tasks receive clones so
// concurrent readers can never race on nested mutable fields.
func (s *SessionState) Clone() *SessionState {
	out := *s
	out.Tickers = make([]TickerID, len(s.Tickers))
	copy(out.Tickers, s.Tickers)
	out.Signals = make([]SignalEnvelope, len(s.Signals))
	copy(out.Signals, s.Signals)
	out.CommLog = s.CommLog.Clone()
	out.Portfolio = s.Portfolio.Clone()
	out.Weights = s.Weights.Clone()
	out.Decisions = make(map[TickerID]Decision, len(s.Decisions))
	for k, v := range s.Decisions {
		out.Decisions[k] = v
	}
	return &out
}

// AppendSignal records a new signal envelope. History is append-only.
func (s *SessionState) AppendSignal(env SignalEnvelope) {
	if env.RecordedAt.IsZero() {
		env.RecordedAt = time.Now().UTC()
	}
	s.Signals = append(s.Signals, env)
}

// LatestSignal returns the most recent signal a producer holds, searching by
// tag order: later cycles beat earlier cycles, later rounds beat earlier
// rounds, insertion order breaks ties.
func (s *SessionState) LatestSignal(p ProducerID) (Signal, bool) {
	best := -1
	for i, env := range s.Signals {
		if env.Producer != p {
			continue
		}
		if best < 0 || envelopeRank(env) >= envelopeRank(s.Signals[best]) {
			best = i
		}
	}
	if best < 0 {
		return Signal{}, false
	}
	return s.Signals[best].Signal, true
}

// LatestSignals returns the most recent signal per producer.
func (s *SessionState) LatestSignals() map[ProducerID]Signal {
	out := make(map[ProducerID]Signal)
	for _, p := range s.Producers() {
		if sig, ok := s.LatestSignal(p); ok {
			out[p] = sig
		}
	}
	return out
}

// LatestSignalFor returns a producer's most recent signal on one ticker.
func (s *SessionState) LatestSignalFor(p ProducerID, ticker TickerID) (Signal, bool) {
	best := -1
	for i, env := range s.Signals {
		if env.Producer != p || env.Signal.Ticker != ticker {
			continue
		}
		if best < 0 || envelopeRank(env) >= envelopeRank(s.Signals[best]) {
			best = i
		}
	}
	if best < 0 {
		return Signal{}, false
	}
	return s.Signals[best].Signal, true
}

// SignalsFor collects each producer's latest opinion on one ticker.
func (s *SessionState) SignalsFor(ticker TickerID) map[ProducerID]Signal {
	out := make(map[ProducerID]Signal)
	for _, p := range s.Producers() {
		if sig, ok := s.LatestSignalFor(p, ticker); ok {
			out[p] = sig
		}
	}
	return out
}

// Producers lists every producer with at least one signal, sorted for
// deterministic iteration.
func (s *SessionState) Producers() []ProducerID {
	seen := make(map[ProducerID]bool)
	var out []ProducerID
	for _, env := range s.Signals {
		if !seen[env.Producer] {
			seen[env.Producer] = true
			out = append(out, env.Producer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func envelopeRank(env SignalEnvelope) int {
	// Cycles always supersede rounds; within a cycle the tag orders them.
	return env.Round + env.CycleTag*100
}
