// Package ledger turns the manager's final decisions into cash, position and
// margin mutations under the accounting invariants. Direction mode records
// stances without sizing; portfolio mode settles for real.
package ledger

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/models"
)

// ReportStatus summarises one execution pass.
type ReportStatus string

const (
	StatusExecuted ReportStatus = "executed"
	StatusSkipped  ReportStatus = "skipped"
)

// EntryStatus classifies one ticker's outcome within a pass. Partial success
// is the norm, not an exception.
type EntryStatus string

const (
	EntryExecuted EntryStatus = "executed"
	EntryHeld     EntryStatus = "held"
	EntryFailed   EntryStatus = "failed"
)

// Entry is one ticker's line in the execution report.
type Entry struct {
	Ticker    models.TickerID `json:"ticker"`
	Action    models.Action   `json:"action"`
	Requested int             `json:"requested"`
	Filled    int             `json:"filled"`
	Price     float64         `json:"price"`
	Realized  float64         `json:"realized"`
	Status    EntryStatus     `json:"status"`
	Note      string          `json:"note,omitempty"`
}

// Report always lists every decided ticker, executed or not.
type Report struct {
	Date    time.Time    `json:"date"`
	Status  ReportStatus `json:"status"`
	Entries []Entry      `json:"entries"`
}

type Ledger struct {
	mode   models.Mode
	logger *zap.Logger
}

func New(mode models.Mode, logger *zap.Logger) *Ledger {
	return &Ledger{mode: mode, logger: logger}
}

// Execute applies decisions at the given prices. maxShares carries the
// risk-derived per-ticker cap, computed outside and passed in; zero means
// uncapped. If no ticker has a strictly positive price the whole pass is
// skipped with zero mutation, protecting the ledger from stale data.
func (l *Ledger) Execute(decisions map[models.TickerID]models.Decision, prices map[models.TickerID]float64, maxShares map[models.TickerID]int, pf models.Portfolio, date time.Time) (models.Portfolio, Report) {
	report := Report{Date: date, Status: StatusExecuted}

	if !anyPositive(prices) {
		l.logger.Warn("execution skipped, no usable prices", zap.Time("date", date))
		report.Status = StatusSkipped
		return pf, report
	}

	out := pf.Clone()
	for _, ticker := range sortedTickers(decisions) {
		d := decisions[ticker]
		price, ok := prices[ticker]
		if !ok || price <= 0 {
			report.Entries = append(report.Entries, Entry{
				Ticker: ticker, Action: d.Action, Requested: d.Quantity,
				Status: EntryFailed, Note: "no price for date",
			})
			continue
		}

		if l.mode == models.ModeDirection {
			report.Entries = append(report.Entries, Entry{
				Ticker: ticker, Action: d.Action, Price: price, Status: EntryExecuted,
				Note: "direction mode, stance recorded",
			})
			continue
		}

		entry := l.settle(&out, d, price, capFor(maxShares, ticker))
		report.Entries = append(report.Entries, entry)
	}

	return out, report
}

// settle applies one portfolio-mode decision. Settlement rules:
// same-direction adds update a weighted-average basis; reductions realize
// (execPrice − costBasis) × closedQty; flips fully close the opposite side
// first; shorts move cash by proceeds and margin by proceeds × requirement.
func (l *Ledger) settle(pf *models.Portfolio, d models.Decision, price float64, cap int) Entry {
	entry := Entry{Ticker: d.Ticker, Action: d.Action, Requested: d.Quantity, Price: price}
	pos := pf.Positions[d.Ticker]

	switch d.Action {
	case models.ActionHold:
		entry.Status = EntryHeld
		return entry

	case models.ActionBuy:
		covered := 0
		if pos.ShortQty > 0 {
			// Opposite-side open: the short is fully covered first.
			covered = pos.ShortQty
			entry.Realized += l.coverShort(pf, d.Ticker, &pos, pos.ShortQty, price)
		}
		qty := clip(d.Quantity, cap)
		affordable := int(math.Floor(pf.Cash / price))
		if qty > affordable {
			qty = affordable
		}
		if qty <= 0 {
			storePosition(pf, d.Ticker, pos)
			if covered > 0 {
				// The cover leg settled even though the long leg did not.
				entry.Status = EntryExecuted
				entry.Note = fmt.Sprintf("covered %d short, insufficient funds for long entry", covered)
				return entry
			}
			entry.Status = EntryFailed
			entry.Note = "insufficient funds"
			return entry
		}
		l.openLong(pf, &pos, qty, price)
		entry.Filled = qty

	case models.ActionSell:
		if pos.LongQty <= 0 {
			entry.Status = EntryFailed
			entry.Note = "no long position to sell"
			return entry
		}
		qty := d.Quantity
		if qty > pos.LongQty {
			qty = pos.LongQty
		}
		entry.Realized += l.closeLong(pf, d.Ticker, &pos, qty, price)
		entry.Filled = qty

	case models.ActionShort:
		closed := 0
		if pos.LongQty > 0 {
			// Flip: the long side is fully closed before the short opens.
			closed = pos.LongQty
			entry.Realized += l.closeLong(pf, d.Ticker, &pos, pos.LongQty, price)
		}
		qty := clip(d.Quantity, cap)
		if qty <= 0 {
			storePosition(pf, d.Ticker, pos)
			if closed > 0 {
				entry.Status = EntryExecuted
				entry.Note = fmt.Sprintf("closed %d long, short entry clipped to zero", closed)
				return entry
			}
			entry.Status = EntryFailed
			entry.Note = "quantity clipped to zero"
			return entry
		}
		l.openShort(pf, &pos, qty, price)
		entry.Filled = qty

	case models.ActionCover:
		if pos.ShortQty <= 0 {
			entry.Status = EntryFailed
			entry.Note = "no short position to cover"
			return entry
		}
		qty := d.Quantity
		if qty > pos.ShortQty {
			qty = pos.ShortQty
		}
		entry.Realized += l.coverShort(pf, d.Ticker, &pos, qty, price)
		entry.Filled = qty

	default:
		entry.Status = EntryFailed
		entry.Note = fmt.Sprintf("action %q not executable in portfolio mode", d.Action)
		return entry
	}

	storePosition(pf, d.Ticker, pos)
	entry.Status = EntryExecuted
	return entry
}

func storePosition(pf *models.Portfolio, t models.TickerID, pos models.Position) {
	if pos.Flat() {
		delete(pf.Positions, t)
		return
	}
	pf.Positions[t] = pos
}

func (l *Ledger) openLong(pf *models.Portfolio, pos *models.Position, qty int, price float64) {
	cost := float64(qty) * price
	pf.Cash -= cost
	if pos.LongQty > 0 {
		total := float64(pos.LongQty)*pos.LongCostBasis + cost
		pos.LongCostBasis = total / float64(pos.LongQty+qty)
	} else {
		pos.LongCostBasis = price
	}
	pos.LongQty += qty
}

func (l *Ledger) closeLong(pf *models.Portfolio, ticker models.TickerID, pos *models.Position, qty int, price float64) float64 {
	realized := (price - pos.LongCostBasis) * float64(qty)
	pf.Cash += float64(qty) * price
	pos.LongQty -= qty
	if pos.LongQty == 0 {
		pos.LongCostBasis = 0
	}
	g := pf.RealizedGains[ticker]
	g.Long += realized
	pf.RealizedGains[ticker] = g
	return realized
}

func (l *Ledger) openShort(pf *models.Portfolio, pos *models.Position, qty int, price float64) {
	proceeds := float64(qty) * price
	pf.Cash += proceeds
	pf.MarginUsed += proceeds * pf.MarginRequirement
	if pos.ShortQty > 0 {
		total := float64(pos.ShortQty)*pos.ShortCostBasis + proceeds
		pos.ShortCostBasis = total / float64(pos.ShortQty+qty)
	} else {
		pos.ShortCostBasis = price
	}
	pos.ShortQty += qty
}

func (l *Ledger) coverShort(pf *models.Portfolio, ticker models.TickerID, pos *models.Position, qty int, price float64) float64 {
	realized := (pos.ShortCostBasis - price) * float64(qty)
	pf.Cash -= float64(qty) * price
	pf.MarginUsed -= float64(qty) * pos.ShortCostBasis * pf.MarginRequirement
	if pf.MarginUsed < 0 {
		pf.MarginUsed = 0
	}
	pos.ShortQty -= qty
	if pos.ShortQty == 0 {
		pos.ShortCostBasis = 0
	}
	g := pf.RealizedGains[ticker]
	g.Short += realized
	pf.RealizedGains[ticker] = g
	return realized
}

func sortedTickers(decisions map[models.TickerID]models.Decision) []models.TickerID {
	out := make([]models.TickerID, 0, len(decisions))
	for t := range decisions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func anyPositive(prices map[models.TickerID]float64) bool {
	for _, p := range prices {
		if p > 0 {
			return true
		}
	}
	return false
}

func clip(qty, cap int) int {
	if qty < 0 {
		return 0
	}
	if cap > 0 && qty > cap {
		return cap
	}
	return qty
}

func capFor(maxShares map[models.TickerID]int, t models.TickerID) int {
	if maxShares == nil {
		return 0
	}
	return maxShares[t]
}
