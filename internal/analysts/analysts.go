// Package analysts holds the specialist producer roster. Each analyst turns
// the session window plus a market brief into directional signals through the
// oracle, with a neutral fallback so a bad day never yields untyped output.
package analysts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/coordinator"
	"github.com/alphadesk/alphadesk/internal/models"
	"github.com/alphadesk/alphadesk/internal/oracle"
)

// Profile identifies one specialist role and the lens it analyses through.
type Profile struct {
	ID    models.ProducerID
	Title string
	Focus string
}

// Roster is the default four-specialist desk.
func Roster() []Profile {
	return []Profile{
		{
			ID:    "fundamentals",
			Title: "Fundamentals Analyst",
			Focus: "company financials, earnings quality, balance sheet strength and cash flow durability",
		},
		{
			ID:    "technical",
			Title: "Technical Analyst",
			Focus: "price action, trend structure, momentum, support/resistance and volume behavior",
		},
		{
			ID:    "sentiment",
			Title: "Sentiment Analyst",
			Focus: "news flow, market mood, positioning and crowd behavior around the names",
		},
		{
			ID:    "valuation",
			Title: "Valuation Analyst",
			Focus: "intrinsic value versus market price, multiples relative to history and peers",
		},
	}
}

// DayContext is everything the scheduler prepares for one analysis round.
// Market data is prefetched so the oracle call is the only network operation
// a worker performs.
type DayContext struct {
	MarketBrief     map[models.TickerID]string
	RoundOneSummary string
	Notices         []models.Notice
}

// Analyst is one producer. Its Task method yields the closure the
// coordinator schedules.
type Analyst struct {
	profile Profile
	oracle  oracle.Client
	notices *coordinator.NoticeBoard
	logger  *zap.Logger
}

func New(profile Profile, client oracle.Client, notices *coordinator.NoticeBoard, logger *zap.Logger) *Analyst {
	return &Analyst{
		profile: profile,
		oracle:  client,
		notices: notices,
		logger:  logger.With(zap.String("analyst", string(profile.ID))),
	}
}

func (a *Analyst) ID() models.ProducerID { return a.profile.ID }

// signalSheet is the JSON shape the oracle is asked to fill in.
type signalSheet struct {
	Signals []struct {
		Ticker     string `json:"ticker"`
		Direction  string `json:"direction"`
		Confidence int    `json:"confidence"`
		Rationale  string `json:"rationale"`
	} `json:"signals"`
}

// Task builds the producer task for one round. Round 1 is the cold pass;
// round 2 re-reads the desk through the round-one summary and any notices.
func (a *Analyst) Task(day DayContext, round int) coordinator.TaskFunc {
	return func(ctx context.Context, state *models.SessionState) ([]models.Signal, error) {
		if len(state.Tickers) == 0 {
			return nil, nil
		}

		spec := a.buildPrompt(state, day, round)

		var sheet signalSheet
		err := a.oracle.Generate(ctx, spec, &sheet)
		if err != nil {
			a.logger.Warn("analysis fell back to neutral signals",
				zap.Int("round", round), zap.Error(err))
		}

		signals := a.normalize(state.Tickers, sheet)

		if a.notices != nil && round == 1 {
			for _, sig := range signals {
				if sig.Confidence >= 80 && sig.Direction != models.Neutral {
					a.notices.Post(string(a.profile.ID), fmt.Sprintf(
						"high conviction %s on %s (%d%%)",
						sig.Direction, sig.Ticker, sig.Confidence))
				}
			}
		}

		return signals, nil
	}
}

// normalize keeps only signals for session tickers and backfills a neutral
// signal for any ticker the oracle skipped.
func (a *Analyst) normalize(tickers []models.TickerID, sheet signalSheet) []models.Signal {
	byTicker := make(map[models.TickerID]models.Signal)
	for _, raw := range sheet.Signals {
		sig := models.Signal{
			Ticker:     models.TickerID(raw.Ticker),
			Direction:  parseDirection(raw.Direction),
			Confidence: clampConfidence(raw.Confidence),
			Rationale:  raw.Rationale,
		}
		byTicker[sig.Ticker] = sig
	}

	out := make([]models.Signal, 0, len(tickers))
	for _, t := range tickers {
		if sig, ok := byTicker[t]; ok {
			out = append(out, sig)
			continue
		}
		out = append(out, models.NeutralSignal(t))
	}
	return out
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
