package negotiation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/models"
	"github.com/alphadesk/alphadesk/internal/oracle"
)

// Manager consolidates producer signals into trading decisions and drives
// the negotiation loop. All of its oracle calls run on the orchestrating
// goroutine, one at a time.
type Manager struct {
	ID     string
	oracle oracle.Client
	logger *zap.Logger
}

func NewManager(id string, client oracle.Client, logger *zap.Logger) *Manager {
	return &Manager{ID: id, oracle: client, logger: logger.With(zap.String("manager", id))}
}

type decisionSheet struct {
	Decisions []struct {
		Ticker     string `json:"ticker"`
		Action     string `json:"action"`
		Quantity   int    `json:"quantity"`
		Confidence int    `json:"confidence"`
		Rationale  string `json:"rationale"`
	} `json:"decisions"`
}

// GenerateDecisions produces one decision per session ticker from the latest
// signals. When the oracle is exhausted it falls back to a deterministic
// weighted vote, so the day still produces decisions.
func (m *Manager) GenerateDecisions(ctx context.Context, state *models.SessionState) map[models.TickerID]models.Decision {
	spec := m.decisionPrompt(state)

	var sheet decisionSheet
	if err := m.oracle.Generate(ctx, spec, &sheet); err != nil {
		m.logger.Warn("decision generation fell back to weighted vote", zap.Error(err))
		return m.voteDecisions(state)
	}

	decisions := make(map[models.TickerID]models.Decision, len(state.Tickers))
	for _, raw := range sheet.Decisions {
		ticker := models.TickerID(raw.Ticker)
		if !containsTicker(state.Tickers, ticker) {
			continue
		}
		action := models.Action(strings.ToLower(raw.Action))
		if !models.ValidAction(state.Flags.Mode, action) {
			action = models.ActionHold
		}
		qty := raw.Quantity
		if state.Flags.Mode == models.ModeDirection || action == models.ActionHold {
			qty = 0
		}
		decisions[ticker] = models.Decision{
			Ticker:     ticker,
			Action:     action,
			Quantity:   qty,
			Confidence: raw.Confidence,
			Rationale:  raw.Rationale,
		}
	}

	// Tickers the oracle skipped are held, never dropped.
	for _, t := range state.Tickers {
		if _, ok := decisions[t]; !ok {
			decisions[t] = holdDecision(t, "manager produced no decision for this ticker")
		}
	}
	return decisions
}

// voteDecisions is the schema-valid deterministic fallback: a weight-scaled
// directional vote across the latest signals. Portfolio mode falls back to
// stance-only decisions with no sizing.
func (m *Manager) voteDecisions(state *models.SessionState) map[models.TickerID]models.Decision {
	decisions := make(map[models.TickerID]models.Decision, len(state.Tickers))
	for _, ticker := range state.Tickers {
		signals := state.SignalsFor(ticker)
		var score, totalWeight float64
		for producer, sig := range signals {
			w := state.Weights.Weights[producer]
			if w == 0 {
				w = 1.0 / float64(len(signals))
			}
			switch sig.Direction {
			case models.Bullish:
				score += w * float64(sig.Confidence)
			case models.Bearish:
				score -= w * float64(sig.Confidence)
			}
			totalWeight += w
		}

		action := models.ActionHold
		if totalWeight > 0 {
			normalized := score / (totalWeight * 100)
			switch {
			case normalized > 0.2 && state.Flags.Mode == models.ModeDirection:
				action = models.ActionLong
			case normalized < -0.2 && state.Flags.Mode == models.ModeDirection:
				action = models.ActionShort
			}
		}
		decisions[ticker] = models.Decision{
			Ticker:     ticker,
			Action:     action,
			Confidence: 50,
			Rationale:  "weighted directional vote (oracle unavailable)",
		}
	}
	return decisions
}

type commSheet struct {
	ShouldCommunicate bool     `json:"should_communicate"`
	Kind              string   `json:"kind"`
	Topic             string   `json:"topic"`
	Targets           []string `json:"targets"`
	Rationale         string   `json:"rationale"`
}

// DecideCommunication asks whether this cycle warrants a clarification
// exchange. A false answer is terminal for the loop. The default on oracle
// exhaustion is no communication.
func (m *Manager) DecideCommunication(ctx context.Context, state *models.SessionState, cycle int) models.CommunicationDecision {
	spec := m.commPrompt(state, cycle)

	sheet := oracle.GenerateOrDefault(ctx, m.oracle, spec, commSheet{
		ShouldCommunicate: false,
		Rationale:         "communication decision unavailable, proceeding with current signals",
	})

	cd := models.CommunicationDecision{
		ShouldCommunicate: sheet.ShouldCommunicate,
		Rationale:         sheet.Rationale,
		Cycle:             cycle,
		Timestamp:         time.Now().UTC(),
	}
	if !cd.ShouldCommunicate {
		return cd
	}

	switch sheet.Kind {
	case string(models.KindMeeting):
		cd.Kind = models.KindMeeting
	default:
		cd.Kind = models.KindPrivateChat
	}
	cd.Topic = sheet.Topic

	known := make(map[models.ProducerID]bool)
	for _, p := range state.Producers() {
		known[p] = true
	}
	for _, t := range sheet.Targets {
		if id := models.ProducerID(t); known[id] {
			cd.Targets = append(cd.Targets, id)
		}
	}
	if len(cd.Targets) == 0 {
		// Nobody valid to talk to: terminal, but still audited.
		cd.ShouldCommunicate = false
		cd.Rationale = fmt.Sprintf("%s (no valid targets named)", cd.Rationale)
	}
	return cd
}

func holdDecision(t models.TickerID, why string) models.Decision {
	return models.Decision{Ticker: t, Action: models.ActionHold, Confidence: 50, Rationale: why}
}

func containsTicker(tickers []models.TickerID, t models.TickerID) bool {
	for _, x := range tickers {
		if x == t {
			return true
		}
	}
	return false
}
