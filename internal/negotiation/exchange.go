package negotiation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/analysts"
	"github.com/alphadesk/alphadesk/internal/models"
	"github.com/alphadesk/alphadesk/internal/oracle"
)

type challengeSheet struct {
	Done    bool   `json:"done"`
	Message string `json:"message"`
}

type replySheet struct {
	Settled bool        `json:"settled"`
	Signals []rawSignal `json:"signals"`
	Note    string      `json:"note"`
}

type meetingSheet struct {
	Adjourned bool                   `json:"adjourned"`
	Minutes   string                 `json:"minutes"`
	Signals   map[string][]rawSignal `json:"signals"`
}

type rawSignal struct {
	Ticker     string `json:"ticker"`
	Direction  string `json:"direction"`
	Confidence int    `json:"confidence"`
	Rationale  string `json:"rationale"`
}

// PrivateChat runs one bounded bilateral exchange between the manager and a
// single producer. Sequential oracle calls on the orchestrating goroutine;
// there is no concurrency inside an exchange.
func (m *Manager) PrivateChat(ctx context.Context, state *models.SessionState, profile analysts.Profile, topic string, maxRounds int) models.ExchangeResult {
	result := models.ExchangeResult{UpdatedSignals: make(map[models.ProducerID][]models.Signal)}
	var history strings.Builder

	for round := 1; round <= maxRounds; round++ {
		challenge := oracle.GenerateOrDefault(ctx, m.oracle,
			challengePrompt(m.ID, profile, state, topic, history.String()),
			challengeSheet{Done: true})
		if challenge.Done {
			break
		}
		fmt.Fprintf(&history, "Manager: %s\n", challenge.Message)

		reply := oracle.GenerateOrDefault(ctx, m.oracle,
			chatPrompt(profile, state, topic, round, history.String()),
			replySheet{Settled: true})
		if reply.Note != "" {
			fmt.Fprintf(&history, "%s: %s\n", profile.Title, reply.Note)
		}
		result.Rounds = round

		changed := m.collectRevisions(state, profile.ID, reply.Signals, &result)
		m.logger.Debug("chat round done",
			zap.String("producer", string(profile.ID)),
			zap.Int("round", round),
			zap.Int("changed", changed))

		if reply.Settled {
			break
		}
	}
	return result
}

// Meeting runs one bounded multi-party exchange producing a consolidated
// signal set and an aggregate adjustment counter.
func (m *Manager) Meeting(ctx context.Context, state *models.SessionState, profiles []analysts.Profile, topic string, maxRounds int) models.ExchangeResult {
	result := models.ExchangeResult{UpdatedSignals: make(map[models.ProducerID][]models.Signal)}
	var minutes strings.Builder

	byID := make(map[models.ProducerID]analysts.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	for round := 1; round <= maxRounds; round++ {
		sheet := oracle.GenerateOrDefault(ctx, m.oracle,
			meetingPrompt(m.ID, profiles, state, topic, round, minutes.String()),
			meetingSheet{Adjourned: true})
		if sheet.Minutes != "" {
			fmt.Fprintf(&minutes, "Round %d: %s\n", round, sheet.Minutes)
		}
		if sheet.Minutes == "" && len(sheet.Signals) == 0 {
			break
		}
		result.Rounds = round

		for id, raws := range sheet.Signals {
			producer := models.ProducerID(id)
			if _, ok := byID[producer]; !ok {
				continue
			}
			m.collectRevisions(state, producer, raws, &result)
		}

		if sheet.Adjourned {
			break
		}
	}
	return result
}

// collectRevisions normalizes raw revised signals, counts the ones that
// actually moved against the producer's latest known signal (on record or
// already pending in this exchange), and stashes them for Apply. A later
// round revising the same ticker replaces the pending revision rather than
// stacking a second one. Returns how many moved this call.
func (m *Manager) collectRevisions(state *models.SessionState, producer models.ProducerID, raws []rawSignal, result *models.ExchangeResult) int {
	changed := 0
	for _, raw := range raws {
		ticker := models.TickerID(raw.Ticker)
		if !containsTicker(state.Tickers, ticker) {
			continue
		}
		revised := models.Signal{
			Ticker:     ticker,
			Direction:  parseDirection(raw.Direction),
			Confidence: clampConfidence(raw.Confidence),
			Rationale:  raw.Rationale,
		}

		pending := result.UpdatedSignals[producer]
		pendingIdx := -1
		for i, sig := range pending {
			if sig.Ticker == ticker {
				pendingIdx = i
				break
			}
		}

		prev, had := state.LatestSignalFor(producer, ticker)
		if pendingIdx >= 0 {
			prev, had = pending[pendingIdx], true
		}
		if had && prev.Direction == revised.Direction && prev.Confidence == revised.Confidence {
			continue
		}

		if pendingIdx >= 0 {
			pending[pendingIdx] = revised
		} else {
			result.UpdatedSignals[producer] = append(pending, revised)
		}
		result.AdjustmentsMade++
		changed++
	}
	return changed
}

func parseDirection(s string) models.Direction {
	switch models.Direction(s) {
	case models.Bullish, models.Bearish, models.Neutral:
		return models.Direction(s)
	}
	return models.Neutral
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
