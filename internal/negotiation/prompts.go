package negotiation

import (
	"fmt"
	"strings"

	"github.com/alphadesk/alphadesk/internal/analysts"
	"github.com/alphadesk/alphadesk/internal/models"
	"github.com/alphadesk/alphadesk/internal/oracle"
)

func (m *Manager) decisionPrompt(state *models.SessionState) oracle.PromptSpec {
	var actions string
	if state.Flags.Mode == models.ModePortfolio {
		actions = `"buy", "sell", "short", "cover" or "hold"; include an integer "quantity" in shares for sized actions`
	} else {
		actions = `"long", "short" or "hold"; omit quantity`
	}

	system := fmt.Sprintf(`You are the desk manager. Consolidate your analysts' signals into one decision per ticker.
Action must be %s.

Respond with JSON only:
{"decisions":[{"ticker":"AAPL","action":"buy","quantity":100,"confidence":0,"rationale":"..."}]}`, actions)

	var b strings.Builder
	fmt.Fprintf(&b, "Trading date: %s\n", state.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Cash: %.2f, margin used: %.2f\n\n", state.Portfolio.Cash, state.Portfolio.MarginUsed)

	for _, ticker := range state.Tickers {
		fmt.Fprintf(&b, "## %s\n", ticker)
		if pos, ok := state.Portfolio.Positions[ticker]; ok && !pos.Flat() {
			fmt.Fprintf(&b, "position: long %d @ %.2f, short %d @ %.2f\n",
				pos.LongQty, pos.LongCostBasis, pos.ShortQty, pos.ShortCostBasis)
		}
		for producer, sig := range state.SignalsFor(ticker) {
			w := state.Weights.Weights[producer]
			fmt.Fprintf(&b, "- %s (weight %.2f): %s, confidence %d. %s\n",
				producer, w, sig.Direction, sig.Confidence, sig.Rationale)
		}
	}

	return oracle.PromptSpec{System: system, User: b.String()}
}

func (m *Manager) commPrompt(state *models.SessionState, cycle int) oracle.PromptSpec {
	system := fmt.Sprintf(`You are the desk manager reviewing your consolidated decisions before settlement.
Decide whether any analyst's signal needs clarification before you commit. Open an exchange only
when signals genuinely conflict or a rationale is too thin to act on. This is review cycle %d.

Respond with JSON only:
{"should_communicate":false,"kind":"private_chat|meeting","topic":"...","targets":["technical"],"rationale":"..."}`, cycle)

	var b strings.Builder
	b.WriteString("Current decisions:\n")
	for _, d := range state.Decisions {
		fmt.Fprintf(&b, "- %s: %s (confidence %d) - %s\n", d.Ticker, d.Action, d.Confidence, d.Rationale)
	}
	b.WriteString("\nLatest signals:\n")
	for _, ticker := range state.Tickers {
		for producer, sig := range state.SignalsFor(ticker) {
			fmt.Fprintf(&b, "- %s on %s: %s %d - %s\n", producer, ticker, sig.Direction, sig.Confidence, sig.Rationale)
		}
	}
	return oracle.PromptSpec{System: system, User: b.String()}
}

func chatPrompt(profile analysts.Profile, state *models.SessionState, topic string, round int, history string) oracle.PromptSpec {
	system := fmt.Sprintf(`You are the %s in a private exchange with your desk manager. Your lens: %s.
Defend or revise your signals on the topic at hand. Revise only when the manager's challenge has merit.

Respond with JSON only:
{"settled":false,"signals":[{"ticker":"AAPL","direction":"bullish|bearish|neutral","confidence":0,"rationale":"..."}],"note":"one sentence back to the manager"}

Set "settled" to true when you have nothing further to add. Include only the signals you are revising.`,
		profile.Title, profile.Focus)

	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nExchange round %d.\n\nYour current signals:\n", topic, round)
	for _, ticker := range state.Tickers {
		if sig, ok := state.LatestSignalFor(profile.ID, ticker); ok {
			fmt.Fprintf(&b, "- %s: %s %d - %s\n", sig.Ticker, sig.Direction, sig.Confidence, sig.Rationale)
		}
	}
	if history != "" {
		b.WriteString("\nExchange so far:\n")
		b.WriteString(history)
	}
	return oracle.PromptSpec{System: system, User: b.String()}
}

func challengePrompt(managerID string, profile analysts.Profile, state *models.SessionState, topic string, history string) oracle.PromptSpec {
	system := `You are the desk manager challenging one analyst in a private exchange.
Ask the single most decision-relevant question about their signals, or close the exchange.

Respond with JSON only:
{"done":false,"message":"your question or challenge in one or two sentences"}`

	var b strings.Builder
	fmt.Fprintf(&b, "Analyst: %s\nTopic: %s\n\nTheir current signals:\n", profile.Title, topic)
	for _, ticker := range state.Tickers {
		if sig, ok := state.LatestSignalFor(profile.ID, ticker); ok {
			fmt.Fprintf(&b, "- %s: %s %d - %s\n", sig.Ticker, sig.Direction, sig.Confidence, sig.Rationale)
		}
	}
	if history != "" {
		b.WriteString("\nExchange so far:\n")
		b.WriteString(history)
	}
	return oracle.PromptSpec{System: system, User: b.String()}
}

func meetingPrompt(managerID string, profiles []analysts.Profile, state *models.SessionState, topic string, round int, history string) oracle.PromptSpec {
	system := `You moderate a desk meeting between the manager and several analysts. Play every seat faithfully:
each analyst argues strictly from their own lens, the manager pushes for a resolution on the topic.
After the discussion, report each analyst's post-meeting signals.

Respond with JSON only:
{"adjourned":false,"minutes":"short paragraph of who argued what",
 "signals":{"technical":[{"ticker":"AAPL","direction":"bullish|bearish|neutral","confidence":0,"rationale":"..."}]}}

Include an analyst under "signals" only if the meeting changed their view. Set "adjourned" to true when positions have converged or hardened.`

	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nMeeting round %d.\nParticipants:\n", topic, round)
	for _, p := range profiles {
		fmt.Fprintf(&b, "- %s (%s)\n", p.Title, p.ID)
		for _, ticker := range state.Tickers {
			if sig, ok := state.LatestSignalFor(p.ID, ticker); ok {
				fmt.Fprintf(&b, "    %s: %s %d - %s\n", sig.Ticker, sig.Direction, sig.Confidence, sig.Rationale)
			}
		}
	}
	if history != "" {
		b.WriteString("\nMinutes so far:\n")
		b.WriteString(history)
	}
	return oracle.PromptSpec{System: system, User: b.String()}
}
