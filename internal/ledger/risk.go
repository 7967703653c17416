package ledger

import (
	"math"

	"github.com/alphadesk/alphadesk/internal/models"
)

// RiskConfig bounds the volatility scaling applied to position caps.
type RiskConfig struct {
	Fraction      float64 // fraction of account value one position may consume
	BaselineVol   float64 // annualized vol treated as multiplier 1.0
	MultiplierMin float64
	MultiplierMax float64
}

func DefaultRiskConfig(fraction float64) RiskConfig {
	if fraction <= 0 {
		fraction = 0.1
	}
	return RiskConfig{
		Fraction:      fraction,
		BaselineVol:   0.20,
		MultiplierMin: 0.5,
		MultiplierMax: 3.0,
	}
}

// MaxShares derives the per-ticker cap: a volatility-scaled fraction of the
// total account value. A more volatile name gets a smaller cap. Tickers
// without a usable price get cap 0 (ledger treats that as uncapped only when
// absent entirely, so callers should include every session ticker).
func MaxShares(cfg RiskConfig, accountValue float64, closes map[models.TickerID][]float64, last map[models.TickerID]float64) map[models.TickerID]int {
	out := make(map[models.TickerID]int, len(last))
	for ticker, price := range last {
		if price <= 0 {
			out[ticker] = 0
			continue
		}
		mult := volMultiplier(cfg, annualizedVol(closes[ticker]))
		budget := accountValue * cfg.Fraction / mult
		out[ticker] = int(math.Floor(budget / price))
	}
	return out
}

// annualizedVol is the stddev of daily log returns scaled by √252.
func annualizedVol(closes []float64) float64 {
	if len(closes) < 3 {
		return 0
	}
	var returns []float64
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	if len(returns) < 2 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance) * math.Sqrt(252)
}

func volMultiplier(cfg RiskConfig, vol float64) float64 {
	if vol <= 0 || cfg.BaselineVol <= 0 {
		return 1.0
	}
	mult := vol / cfg.BaselineVol
	if mult < cfg.MultiplierMin {
		mult = cfg.MultiplierMin
	}
	if mult > cfg.MultiplierMax {
		mult = cfg.MultiplierMax
	}
	return mult
}
