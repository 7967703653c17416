// Package display renders run results for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alphadesk/alphadesk/internal/models"
	"github.com/alphadesk/alphadesk/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1).
		MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(1, 2).
		Width(80)

	completeStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	partialStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	skippedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	lossStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444"))

	gainStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))
)

// Banner prints the desk banner.
func Banner() {
	banner := titleStyle.Render("alphadesk") + "  multi-agent deliberation desk"
	fmt.Println(banner)
}

// RunSummary renders the whole session, one line per day plus totals.
func RunSummary(summary *store.Summary) {
	var b strings.Builder

	fmt.Fprintf(&b, "Session %s  mode=%s  tickers=%s\n\n",
		summary.SessionID, summary.Mode, joinTickers(summary.Tickers))

	for _, day := range summary.Days {
		fmt.Fprintf(&b, "%s  %-9s cycles=%d adj=%d stop=%-16s cash=%s realized=%s",
			day.Date,
			statusStyleFor(day.Status).Render(string(day.Status)),
			day.Cycles,
			day.Adjustments,
			day.StopReason,
			money(day.Cash),
			pnl(day.RealizedTotal))
		if len(day.FailedProducers) > 0 {
			fmt.Fprintf(&b, " failed=%s", strings.Join(day.FailedProducers, ","))
		}
		b.WriteByte('\n')
	}

	if n := len(summary.Days); n > 0 {
		last := summary.Days[n-1]
		fmt.Fprintf(&b, "\n%d trading day(s), final cash %s, realized %s",
			n, money(last.Cash), pnl(last.RealizedTotal))
	}

	fmt.Println(panelStyle.Render(b.String()))
}

// DayDecisions renders one day's final decisions.
func DayDecisions(state *models.SessionState) {
	var b strings.Builder
	fmt.Fprintf(&b, "Decisions for %s\n\n", state.Date.Format("2006-01-02"))
	for _, t := range state.Tickers {
		d, ok := state.Decisions[t]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%-8s %-6s qty=%-6d conf=%d  %s\n",
			t, d.Action, d.Quantity, d.Confidence, truncate(d.Rationale, 48))
	}
	fmt.Println(panelStyle.Render(b.String()))
}

func statusStyleFor(status models.DayStatus) lipgloss.Style {
	switch status {
	case models.DayComplete:
		return completeStyle
	case models.DayPartial:
		return partialStyle
	default:
		return skippedStyle
	}
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func pnl(v float64) string {
	s := fmt.Sprintf("%+.2f", v)
	if v < 0 {
		return lossStyle.Render(s)
	}
	return gainStyle.Render(s)
}

func joinTickers(tickers []models.TickerID) string {
	parts := make([]string, len(tickers))
	for i, t := range tickers {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
