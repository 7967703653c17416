// Package marketdata feeds the deliberation loop with prices. Providers may
// return empty or zero data; callers degrade (the ledger skips) rather than
// fault.
package marketdata

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alphadesk/alphadesk/internal/config"
	"github.com/alphadesk/alphadesk/internal/models"
)

// PricePoint is one daily bar.
type PricePoint struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Provider is the market data seam. Implementations cache aggressively and
// retry internally; callers see a plain blocking call.
type Provider interface {
	Prices(ticker models.TickerID, window models.DateRange) ([]PricePoint, error)
	CurrentPrice(ticker models.TickerID) (float64, error)
}

// NewProvider builds the configured provider.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.MarketProvider {
	case "yahoo":
		return NewYahooProvider(cfg), nil
	case "longport":
		return NewLongportProvider(cfg)
	}
	return nil, fmt.Errorf("unknown market provider %q", cfg.MarketProvider)
}

// Closes extracts close prices as floats, oldest first.
func Closes(bars []PricePoint) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.Close.InexactFloat64())
	}
	return out
}

// LastClose returns the final close, or 0 when there are no bars.
func LastClose(bars []PricePoint) float64 {
	if len(bars) == 0 {
		return 0
	}
	return bars[len(bars)-1].Close.InexactFloat64()
}

// FormatBrief renders a compact window summary for analyst prompts.
func FormatBrief(bars []PricePoint) string {
	if len(bars) == 0 {
		return ""
	}

	var b strings.Builder
	first := bars[0].Close.InexactFloat64()
	last := bars[len(bars)-1].Close.InexactFloat64()
	change := 0.0
	if first > 0 {
		change = (last - first) / first * 100
	}

	high, low := bars[0].High, bars[0].Low
	for _, bar := range bars[1:] {
		if bar.High.GreaterThan(high) {
			high = bar.High
		}
		if bar.Low.LessThan(low) {
			low = bar.Low
		}
	}

	fmt.Fprintf(&b, "%d sessions, close %.2f → %.2f (%+.1f%%), range %s–%s\n",
		len(bars), first, last, change, low.StringFixed(2), high.StringFixed(2))

	// Tail of the window, most recent last.
	tail := bars
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	for _, bar := range tail {
		fmt.Fprintf(&b, "%s O:%s H:%s L:%s C:%s V:%d\n",
			bar.Date.Format("2006-01-02"),
			bar.Open.StringFixed(2), bar.High.StringFixed(2),
			bar.Low.StringFixed(2), bar.Close.StringFixed(2), bar.Volume)
	}
	return b.String()
}
