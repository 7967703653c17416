package models

// Action is what the manager decided to do with one ticker.
type Action string

const (
	// Direction mode: record-only stance, no sizing.
	ActionLong  Action = "long"
	ActionShort Action = "short"
	ActionHold  Action = "hold"

	// Portfolio mode: sized ledger mutations.
	ActionBuy   Action = "buy"
	ActionSell  Action = "sell"
	ActionCover Action = "cover"
)

// Mode selects how ledger execution treats decisions.
type Mode string

const (
	ModeDirection Mode = "direction"
	ModePortfolio Mode = "portfolio"
)

// Decision is the manager's consolidated call for one ticker. Quantity is
// meaningful in portfolio mode only. Only the last negotiation cycle's
// decision map is final.
type Decision struct {
	Ticker     TickerID `json:"ticker"`
	Action     Action   `json:"action"`
	Quantity   int      `json:"quantity,omitempty"`
	Confidence int      `json:"confidence"`
	Rationale  string   `json:"rationale"`
}

// ValidAction reports whether the action is legal for the given mode.
func ValidAction(mode Mode, a Action) bool {
	switch mode {
	case ModeDirection:
		return a == ActionLong || a == ActionShort || a == ActionHold
	case ModePortfolio:
		return a == ActionBuy || a == ActionSell || a == ActionShort ||
			a == ActionCover || a == ActionHold
	}
	return false
}
