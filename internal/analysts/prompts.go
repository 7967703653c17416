package analysts

import (
	"fmt"
	"strings"

	"github.com/alphadesk/alphadesk/internal/models"
	"github.com/alphadesk/alphadesk/internal/oracle"
)

func (a *Analyst) buildPrompt(state *models.SessionState, day DayContext, round int) oracle.PromptSpec {
	system := fmt.Sprintf(`You are the %s on an investment desk. You analyze strictly through your own lens: %s.

Respond with JSON only, in this shape:
{"signals":[{"ticker":"AAPL","direction":"bullish|bearish|neutral","confidence":0,"rationale":"one or two sentences"}]}

Give exactly one signal per ticker you are asked about. Confidence is an integer from 0 to 100.`,
		a.profile.Title, a.profile.Focus)

	var b strings.Builder
	fmt.Fprintf(&b, "Trading date: %s\n", state.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Lookback window: %s to %s\n\n",
		state.Window.Start.Format("2006-01-02"), state.Window.End.Format("2006-01-02"))

	b.WriteString("Tickers under review:\n")
	for _, t := range state.Tickers {
		fmt.Fprintf(&b, "## %s\n", t)
		if brief, ok := day.MarketBrief[t]; ok && brief != "" {
			b.WriteString(brief)
			b.WriteString("\n")
		} else {
			b.WriteString("(no market data available for this window)\n")
		}
	}

	if round > 1 {
		b.WriteString("\nThis is your second pass. First-round desk summary:\n")
		b.WriteString(day.RoundOneSummary)
		if len(day.Notices) > 0 {
			b.WriteString("\nDesk notices posted since the first round:\n")
			for _, n := range day.Notices {
				fmt.Fprintf(&b, "- [%s] %s\n", n.From, n.Message)
			}
		}
		b.WriteString("\nRevise your signals only where the new context genuinely changes your view.\n")
	}

	return oracle.PromptSpec{System: system, User: b.String()}
}
