package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/config"
	"github.com/alphadesk/alphadesk/internal/debug"
	"github.com/alphadesk/alphadesk/internal/display"
	"github.com/alphadesk/alphadesk/internal/feed"
	"github.com/alphadesk/alphadesk/internal/logging"
	"github.com/alphadesk/alphadesk/internal/marketdata"
	"github.com/alphadesk/alphadesk/internal/models"
	"github.com/alphadesk/alphadesk/internal/oracle"
	"github.com/alphadesk/alphadesk/internal/scheduler"
	"github.com/alphadesk/alphadesk/internal/store"
)

type runOptions struct {
	SessionID string
	Tickers   []models.TickerID
	Start     time.Time
	End       time.Time
	Serve     bool
}

// runInteractive collects run parameters through prompts and starts a session.
func runInteractive(cfg *config.Config) error {
	display.Banner()

	rawTickers, err := PromptForTickers()
	if err != nil {
		return err
	}
	tickers, err := parseTickers(rawTickers)
	if err != nil {
		return err
	}
	start, err := PromptForDate("First session date:", time.Now().AddDate(0, 0, -7))
	if err != nil {
		return err
	}
	end, err := PromptForDate("Last session date:", time.Now())
	if err != nil {
		return err
	}
	mode, err := PromptForMode()
	if err != nil {
		return err
	}
	serve, err := PromptForFeed()
	if err != nil {
		return err
	}
	cfg.Mode = mode

	return runSession(cfg, runOptions{
		Tickers: tickers,
		Start:   start,
		End:     end,
		Serve:   serve,
	})
}

// runSession wires the full desk and drives it over the requested window.
func runSession(cfg *config.Config, opts runOptions) error {
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := debug.NewEinoDebugger(cfg, logger).Initialize(ctx); err != nil {
		logger.Warn("eino debugger not started", zap.Error(err))
	}

	client, err := oracle.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("oracle setup: %w", err)
	}
	provider, err := marketdata.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("market data setup: %w", err)
	}
	calendar := marketdata.NewCalendar(cfg, logger)
	st := store.New(cfg.ResultsDir, logger)

	sched := scheduler.New(cfg, client, provider, calendar, st, logger)

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("desk-%s", uuid.New().String()[:8])
	}

	if opts.Serve {
		hub := feed.NewHub(func() any {
			summary, err := st.LoadSummary(sessionID)
			if err != nil {
				return map[string]any{"session_id": sessionID}
			}
			return summary
		}, logger)
		go hub.Run(ctx)
		go func() {
			if err := hub.Serve(ctx, cfg.FeedAddr); err != nil {
				logger.Error("feed server stopped", zap.Error(err))
			}
		}()
		refresher := feed.NewRefresher(provider, opts.Tickers, hub,
			time.Duration(cfg.QuoteRefreshSeconds)*time.Second, logger)
		go refresher.Run(ctx)
		sched.SetPublisher(hub)
	}

	summary, err := sched.Run(ctx, sessionID, opts.Tickers, opts.Start, opts.End)
	if summary != nil {
		display.RunSummary(summary)
	}
	return err
}
