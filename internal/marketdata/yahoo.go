package marketdata

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"github.com/alphadesk/alphadesk/internal/config"
	"github.com/alphadesk/alphadesk/internal/models"
)

// YahooProvider serves daily bars and quotes from Yahoo Finance.
type YahooProvider struct {
	cache *CacheManager
}

func NewYahooProvider(cfg *config.Config) *YahooProvider {
	cacheDir := filepath.Join(cfg.DataCacheDir, "yahoo")
	return &YahooProvider{
		cache: NewCacheManager(cacheDir, 24*time.Hour, cfg.CacheEnabled),
	}
}

func (yp *YahooProvider) Prices(ticker models.TickerID, window models.DateRange) ([]PricePoint, error) {
	cacheKey := map[string]interface{}{
		"ticker": string(ticker),
		"start":  window.Start.Format("2006-01-02"),
		"end":    window.End.Format("2006-01-02"),
	}

	var cached []PricePoint
	if yp.cache.Get("yahoo", "daily", cacheKey, &cached) {
		return cached, nil
	}

	var result []PricePoint
	err := WithRetry(DefaultRetryConfig(), func() error {
		params := &chart.Params{
			Symbol:   string(ticker),
			Start:    datetime.New(&window.Start),
			End:      datetime.New(&window.End),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)
		result = result[:0]
		for iter.Next() {
			bar := iter.Bar()
			result = append(result, PricePoint{
				Date:   time.Unix(int64(bar.Timestamp), 0),
				Open:   bar.Open,
				High:   bar.High,
				Low:    bar.Low,
				Close:  bar.Close,
				Volume: int64(bar.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("chart fetch for %s: %w", ticker, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yp.cache.Set("yahoo", "daily", cacheKey, result)
	return result, nil
}

func (yp *YahooProvider) CurrentPrice(ticker models.TickerID) (float64, error) {
	var price float64
	err := WithRetry(DefaultRetryConfig(), func() error {
		q, err := quote.Get(string(ticker))
		if err != nil {
			return fmt.Errorf("quote for %s: %w", ticker, err)
		}
		price = q.RegularMarketPrice
		return nil
	})
	if err != nil {
		return 0, err
	}
	return price, nil
}
