package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/config"
	"github.com/alphadesk/alphadesk/internal/marketdata"
	"github.com/alphadesk/alphadesk/internal/models"
	"github.com/alphadesk/alphadesk/internal/oracle"
	"github.com/alphadesk/alphadesk/internal/store"
)

// flatProvider serves a flat price series so runs are deterministic.
type flatProvider struct {
	price float64
}

func (p flatProvider) Prices(ticker models.TickerID, window models.DateRange) ([]marketdata.PricePoint, error) {
	d := decimal.NewFromFloat(p.price)
	var bars []marketdata.PricePoint
	for cur := window.Start; !cur.After(window.End); cur = cur.AddDate(0, 0, 1) {
		if wd := cur.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		bars = append(bars, marketdata.PricePoint{
			Date: cur, Open: d, High: d, Low: d, Close: d, Volume: 1000,
		})
	}
	return bars, nil
}

func (p flatProvider) CurrentPrice(models.TickerID) (float64, error) {
	return p.price, nil
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.ResultsDir = t.TempDir()
	cfg.SecondRound = false
	cfg.CommEnabled = true
	cfg.Mode = string(models.ModePortfolio)
	return cfg
}

func newTestSchedulerWith(t *testing.T, cfg *config.Config, client oracle.Client) (*Scheduler, *store.Store) {
	logger := zap.NewNop()
	st := store.New(cfg.ResultsDir, logger)
	cal := marketdata.NewCalendar(cfg, logger)
	return New(cfg, client, flatProvider{price: 100}, cal, st, logger), st
}

func newTestScheduler(t *testing.T, cfg *config.Config) (*Scheduler, *store.Store) {
	// Exhausted oracle: analysts fall back to neutral, manager to the
	// weighted vote, communication to silence.
	return newTestSchedulerWith(t, cfg, &oracle.StaticClient{})
}

func TestRunProducesOneSummaryLinePerTradingDay(t *testing.T) {
	cfg := testConfig(t)
	sched, st := newTestScheduler(t, cfg)

	// Thu 2024-03-07 through Mon 2024-03-11 spans one weekend.
	start := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	summary, err := sched.Run(context.Background(), "desk-test", []models.TickerID{"AAPL"}, start, end)
	require.NoError(t, err)
	require.Len(t, summary.Days, 3)
	assert.Equal(t, "2024-03-07", summary.Days[0].Date)
	assert.Equal(t, "2024-03-08", summary.Days[1].Date)
	assert.Equal(t, "2024-03-11", summary.Days[2].Date)

	for _, day := range summary.Days {
		assert.Equal(t, models.DayComplete, day.Status)
		assert.True(t, day.CalendarDegraded)
		// Neutral fallback signals vote to hold; cash never moves.
		assert.InDelta(t, cfg.InitialCash, day.Cash, 1e-9)
	}

	// Every day persisted a restorable snapshot.
	for _, date := range []time.Time{start, start.AddDate(0, 0, 1), end} {
		state, err := st.LoadDay("desk-test", date)
		require.NoError(t, err)
		assert.Equal(t, models.DayComplete, state.Status)
		assert.NotEmpty(t, state.Signals)
		assert.NotEmpty(t, state.Decisions)
	}

	// Summary persisted too.
	loaded, err := st.LoadSummary("desk-test")
	require.NoError(t, err)
	assert.Len(t, loaded.Days, 3)
}

func TestRunRestoresPriorTradingDay(t *testing.T) {
	cfg := testConfig(t)
	sched, st := newTestScheduler(t, cfg)

	// Persist a prior day (Tue 2024-03-12) with a distinctive portfolio.
	prior := &models.SessionState{
		SessionID: "desk-test",
		Date:      time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		Tickers:   []models.TickerID{"AAPL"},
		Portfolio: models.NewPortfolio(54321, 0.5),
		Weights:   models.NewWeightState([]models.ProducerID{"fundamentals", "technical", "sentiment", "valuation"}),
		Status:    models.DayComplete,
	}
	require.NoError(t, st.SaveDay(prior))

	day := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	summary, err := sched.Run(context.Background(), "desk-test", []models.TickerID{"AAPL"}, day, day)
	require.NoError(t, err)
	require.Len(t, summary.Days, 1)

	// The restored cash carried into the new day.
	assert.InDelta(t, 54321.0, summary.Days[0].Cash, 1e-9)
}

func TestRunColdStartsWithoutSnapshot(t *testing.T) {
	cfg := testConfig(t)
	sched, _ := newTestScheduler(t, cfg)

	day := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	summary, err := sched.Run(context.Background(), "desk-fresh", []models.TickerID{"AAPL"}, day, day)
	require.NoError(t, err)
	require.Len(t, summary.Days, 1)
	assert.InDelta(t, cfg.InitialCash, summary.Days[0].Cash, 1e-9)
}

// Cross-day continuity goes through the snapshot files only: when a day's
// save fails, the next day must seed cold instead of warm-carrying the
// unpersisted in-memory state.
func TestRunColdStartsNextDayWhenSnapshotNotPersisted(t *testing.T) {
	cfg := testConfig(t)
	cfg.CommEnabled = false

	// Day one: four identical analyst sheets (the pool races for them), then
	// the manager's seed decision buying 10 shares at the flat price of 100.
	// Day two runs on an exhausted oracle and holds everything.
	analystSheet := `{"signals":[{"ticker":"AAPL","direction":"bullish","confidence":70,"rationale":"uptrend"}]}`
	buySheet := `{"decisions":[{"ticker":"AAPL","action":"buy","quantity":10,"confidence":80,"rationale":"enter"}]}`
	client := &oracle.StaticClient{Responses: []string{
		analystSheet, analystSheet, analystSheet, analystSheet,
		buySheet,
	}}
	sched, _ := newTestSchedulerWith(t, cfg, client)

	// Squat a directory on every snapshot temp path so each SaveDay fails
	// while leaving no snapshot behind.
	sessionDir := filepath.Join(cfg.ResultsDir, "desk-test")
	for _, name := range []string{"session_2024-03-07.json.tmp", "session_2024-03-08.json.tmp"} {
		require.NoError(t, os.MkdirAll(filepath.Join(sessionDir, name), 0755))
	}

	start := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	summary, err := sched.Run(context.Background(), "desk-test", []models.TickerID{"AAPL"}, start, end)
	require.NoError(t, err)
	require.Len(t, summary.Days, 2)

	// Day one bought 10 @ 100 in memory.
	assert.InDelta(t, cfg.InitialCash-1000, summary.Days[0].Cash, 1e-9)
	// Its snapshot never landed, so day two seeds from initial cash.
	assert.InDelta(t, cfg.InitialCash, summary.Days[1].Cash, 1e-9)
}

func TestWeightCadenceKeysOffPersistedSessionCount(t *testing.T) {
	cfg := testConfig(t)
	sched, st := newTestScheduler(t, cfg)

	ids := []models.ProducerID{"fundamentals", "technical", "sentiment", "valuation"}
	weights := models.NewWeightState(ids)
	weights.Hits["technical"] = []int{1, 1}

	prior := &models.SessionState{
		SessionID:    "desk-test",
		SessionIndex: 4,
		Date:         time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		Tickers:      []models.TickerID{"AAPL"},
		Portfolio:    models.NewPortfolio(cfg.InitialCash, 0.5),
		Weights:      weights,
		Status:       models.DayComplete,
	}
	require.NoError(t, st.SaveDay(prior))

	day := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	_, err := sched.Run(context.Background(), "desk-test", []models.TickerID{"AAPL"}, day, day)
	require.NoError(t, err)

	// The restored count makes this day session five, which triggers the
	// five-session weight recompute even though this run is one day old.
	state, err := st.LoadDay("desk-test", day)
	require.NoError(t, err)
	assert.Equal(t, 5, state.SessionIndex)
	// Accuracies: technical 1.0, the rest at the 0.5 prior.
	assert.InDelta(t, 0.4, state.Weights.Weights["technical"], 1e-9)
	assert.InDelta(t, 0.2, state.Weights.Weights["fundamentals"], 1e-9)
}

func TestRunRejectsEmptyInputs(t *testing.T) {
	cfg := testConfig(t)
	sched, _ := newTestScheduler(t, cfg)

	day := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	_, err := sched.Run(context.Background(), "desk-test", nil, day, day)
	assert.Error(t, err)

	_, err = sched.Run(context.Background(), "desk-test", []models.TickerID{"AAPL"}, day, day.AddDate(0, 0, -1))
	assert.Error(t, err)

	// A weekend-only window has no trading sessions.
	sat := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	_, err = sched.Run(context.Background(), "desk-test", []models.TickerID{"AAPL"}, sat, sat.AddDate(0, 0, 1))
	assert.Error(t, err)
}

func TestRegistryOrderAndReplacement(t *testing.T) {
	sched, _ := newTestScheduler(t, testConfig(t))
	reg := sched.Registry()

	ids := reg.IDs()
	require.Len(t, ids, 4)
	assert.Equal(t, models.ProducerID("fundamentals"), ids[0])
	assert.Len(t, reg.Producers(), 4)
	assert.Len(t, reg.Profiles(), 4)
	assert.NotNil(t, reg.Board())
}
