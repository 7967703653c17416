package models

// Position carries both sides for one ticker. Both sides being open at once
// is transient: opening the opposite side first closes the existing side, so
// longQty>0 && shortQty>0 never persists past a settlement step.
type Position struct {
	LongQty        int     `json:"long_qty"`
	ShortQty       int     `json:"short_qty"`
	LongCostBasis  float64 `json:"long_cost_basis"`
	ShortCostBasis float64 `json:"short_cost_basis"`
}

func (p Position) Flat() bool { return p.LongQty == 0 && p.ShortQty == 0 }

// RealizedGain splits realized P&L by the side that produced it.
type RealizedGain struct {
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
}

// Portfolio is the ledger state carried across trading days. Created once on
// the first session day, mutated by the ledger, persisted at day end and read
// back as the next day's seed.
type Portfolio struct {
	Cash              float64                   `json:"cash"`
	Positions         map[TickerID]Position     `json:"positions"`
	MarginRequirement float64                   `json:"margin_requirement"`
	MarginUsed        float64                   `json:"margin_used"`
	RealizedGains     map[TickerID]RealizedGain `json:"realized_gains"`
}

func NewPortfolio(cash, marginRequirement float64) Portfolio {
	return Portfolio{
		Cash:              cash,
		Positions:         make(map[TickerID]Position),
		MarginRequirement: marginRequirement,
		RealizedGains:     make(map[TickerID]RealizedGain),
	}
}

func (p Portfolio) Clone() Portfolio {
	out := p
	out.Positions = make(map[TickerID]Position, len(p.Positions))
	for k, v := range p.Positions {
		out.Positions[k] = v
	}
	out.RealizedGains = make(map[TickerID]RealizedGain, len(p.RealizedGains))
	for k, v := range p.RealizedGains {
		out.RealizedGains[k] = v
	}
	return out
}

// TotalValue marks the portfolio to the given prices: cash plus long market
// value minus short liability. Tickers without a price are valued at basis.
func (p Portfolio) TotalValue(prices map[TickerID]float64) float64 {
	total := p.Cash
	for ticker, pos := range p.Positions {
		price, ok := prices[ticker]
		if !ok || price <= 0 {
			total += float64(pos.LongQty)*pos.LongCostBasis - float64(pos.ShortQty)*pos.ShortCostBasis
			continue
		}
		total += float64(pos.LongQty) * price
		total -= float64(pos.ShortQty) * price
	}
	return total
}

// TotalRealized sums realized gains across tickers and sides.
func (p Portfolio) TotalRealized() float64 {
	var sum float64
	for _, g := range p.RealizedGains {
		sum += g.Long + g.Short
	}
	return sum
}
