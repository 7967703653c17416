package models

import "time"

type TickerID string

type ProducerID string

// Direction is a producer's directional opinion on one ticker.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Signal is one directional opinion with confidence on a single ticker.
type Signal struct {
	Ticker     TickerID  `json:"ticker"`
	Direction  Direction `json:"direction"`
	Confidence int       `json:"confidence"` // 0..100
	Rationale  string    `json:"rationale"`
}

// SignalEnvelope tags a signal with the round and negotiation cycle that
// produced it. History is append-only: a revised signal gets a new envelope,
// the old one is never overwritten.
type SignalEnvelope struct {
	Producer   ProducerID `json:"producer"`
	Round      int        `json:"round"`               // 1 = cold analysis, 2 = seeded second round
	CycleTag   int        `json:"cycle_tag,omitempty"` // 0 = not from a negotiation cycle
	Signal     Signal     `json:"signal"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// NeutralSignal is the schema-valid default used when an oracle call is
// exhausted, so downstream code always has well-typed input.
func NeutralSignal(ticker TickerID) Signal {
	return Signal{
		Ticker:     ticker,
		Direction:  Neutral,
		Confidence: 50,
		Rationale:  "no usable analysis available",
	}
}
