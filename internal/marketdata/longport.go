package marketdata

import (
	"context"
	"errors"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"
	"github.com/shopspring/decimal"

	"github.com/alphadesk/alphadesk/internal/config"
	"github.com/alphadesk/alphadesk/internal/models"
)

// LongportProvider serves daily candlesticks through the Longport OpenAPI.
type LongportProvider struct {
	quoteCtx *quote.QuoteContext
}

func NewLongportProvider(cfg *config.Config) (*LongportProvider, error) {
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		return nil, errors.New("longport API credentials not configured")
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken))
	if err != nil {
		return nil, err
	}
	quoteContext, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}
	return &LongportProvider{quoteCtx: quoteContext}, nil
}

func (lp *LongportProvider) Prices(ticker models.TickerID, window models.DateRange) ([]PricePoint, error) {
	if lp.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}

	days := int(window.End.Sub(window.Start).Hours()/24) + 1
	sticks, err := lp.quoteCtx.Candlesticks(context.Background(), string(ticker),
		quote.PeriodDay, int32(days), quote.AdjustTypeNo)
	if err != nil {
		return nil, err
	}

	var out []PricePoint
	for _, stick := range sticks {
		ts := time.Unix(stick.Timestamp, 0)
		if ts.Before(window.Start) || ts.After(window.End.Add(24*time.Hour)) {
			continue
		}
		out = append(out, PricePoint{
			Date:   ts,
			Open:   fromLPDecimal(stick.Open),
			High:   fromLPDecimal(stick.High),
			Low:    fromLPDecimal(stick.Low),
			Close:  fromLPDecimal(stick.Close),
			Volume: stick.Volume,
		})
	}
	return out, nil
}

func (lp *LongportProvider) CurrentPrice(ticker models.TickerID) (float64, error) {
	if lp.quoteCtx == nil {
		return 0, errors.New("quote context is nil")
	}
	quotes, err := lp.quoteCtx.Quote(context.Background(), []string{string(ticker)})
	if err != nil {
		return 0, err
	}
	if len(quotes) == 0 {
		return 0, errors.New("empty quote response")
	}
	return fromLPDecimal(quotes[0].LastDone).InexactFloat64(), nil
}

func fromLPDecimal(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
