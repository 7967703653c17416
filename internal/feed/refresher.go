package feed

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alphadesk/alphadesk/internal/marketdata"
	"github.com/alphadesk/alphadesk/internal/models"
)

// PriceTick is the payload of a price_tick event.
type PriceTick struct {
	Ticker models.TickerID `json:"ticker"`
	Price  float64         `json:"price"`
}

// Refresher polls current prices on a fixed interval and publishes ticks to
// the hub. A rate limiter spaces the provider calls so a long ticker list
// cannot burst the upstream API.
type Refresher struct {
	provider marketdata.Provider
	tickers  []models.TickerID
	hub      *Hub
	interval time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func NewRefresher(provider marketdata.Provider, tickers []models.TickerID, hub *Hub, interval time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Refresher{
		provider: provider,
		tickers:  tickers,
		hub:      hub,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		logger:   logger,
	}
}

// Run polls until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	for _, t := range r.tickers {
		if err := r.limiter.Wait(ctx); err != nil {
			return
		}
		price, err := r.provider.CurrentPrice(t)
		if err != nil {
			r.logger.Debug("quote refresh failed",
				zap.String("ticker", string(t)), zap.Error(err))
			continue
		}
		if price <= 0 {
			continue
		}
		r.hub.Publish(models.NewEvent(models.EventPriceTick, PriceTick{Ticker: t, Price: price}))
	}
}
