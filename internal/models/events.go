package models

import "time"

// EventType names the outward feed events.
type EventType string

const (
	EventSnapshot        EventType = "snapshot"
	EventPriceTick       EventType = "price_tick"
	EventDayStart        EventType = "day_start"
	EventDayComplete     EventType = "day_complete"
	EventPortfolio       EventType = "portfolio"
	EventProducerMessage EventType = "producer_message"
)

// Event is the stable envelope every feed consumer sees.
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewEvent(t EventType, payload interface{}) Event {
	return Event{Type: t, Payload: payload, Timestamp: time.Now().UTC()}
}

// Notice is a broadcast message a producer or the scheduler posts during a
// day; round-two analysis tasks see these as extra context.
type Notice struct {
	From    string    `json:"from"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}
