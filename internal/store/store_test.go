package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/models"
)

func sampleState(date time.Time) *models.SessionState {
	state := &models.SessionState{
		SessionID: "desk-test",
		Date:      date,
		Tickers:   []models.TickerID{"AAPL"},
		Portfolio: models.NewPortfolio(100000, 0.5),
		Weights:   models.NewWeightState([]models.ProducerID{"fundamentals"}),
		Decisions: map[models.TickerID]models.Decision{
			"AAPL": {Ticker: "AAPL", Action: models.ActionBuy, Quantity: 10, Confidence: 70},
		},
		Status: models.DayComplete,
	}
	state.AppendSignal(models.SignalEnvelope{
		Producer: "fundamentals", Round: 1,
		Signal: models.Signal{Ticker: "AAPL", Direction: models.Bullish, Confidence: 70},
	})
	state.Portfolio.Positions["AAPL"] = models.Position{LongQty: 10, LongCostBasis: 150}
	return state
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir(), zap.NewNop())
	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	require.NoError(t, st.SaveDay(sampleState(date)))

	loaded, err := st.LoadDay("desk-test", date)
	require.NoError(t, err)
	assert.Equal(t, "desk-test", loaded.SessionID)
	assert.Len(t, loaded.Signals, 1)
	assert.Equal(t, 10, loaded.Portfolio.Positions["AAPL"].LongQty)
	assert.Equal(t, models.ActionBuy, loaded.Decisions["AAPL"].Action)
	assert.InDelta(t, 0.5, loaded.Weights.Weights["fundamentals"], 1e-9)
}

func TestLoadMissingSnapshotIsColdStart(t *testing.T) {
	st := New(t.TempDir(), zap.NewNop())

	_, err := st.LoadDay("desk-test", time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestLoadDateMismatchIsHardError(t *testing.T) {
	dir := t.TempDir()
	st := New(dir, zap.NewNop())

	recorded := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	requested := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveDay(sampleState(recorded)))

	// A snapshot filed under the wrong date must never restore silently.
	wrongName := filepath.Join(dir, "desk-test", "session_2024-03-11.json")
	rightName := filepath.Join(dir, "desk-test", "session_2024-03-08.json")
	require.NoError(t, os.Rename(rightName, wrongName))

	_, err := st.LoadDay("desk-test", requested)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
	assert.Contains(t, err.Error(), "2024-03-08")
}

func TestSaveOverwritesSameDate(t *testing.T) {
	st := New(t.TempDir(), zap.NewNop())
	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	first := sampleState(date)
	require.NoError(t, st.SaveDay(first))

	second := sampleState(date)
	second.Portfolio.Cash = 42
	require.NoError(t, st.SaveDay(second))

	loaded, err := st.LoadDay("desk-test", date)
	require.NoError(t, err)
	assert.InDelta(t, 42.0, loaded.Portfolio.Cash, 1e-9)
}

func TestSummaryRoundTrip(t *testing.T) {
	st := New(t.TempDir(), zap.NewNop())

	summary := Summary{
		SessionID: "desk-test",
		Tickers:   []models.TickerID{"AAPL", "MSFT"},
		Mode:      models.ModePortfolio,
		Days: []DaySummary{
			{Date: "2024-03-11", Status: models.DayComplete, Cycles: 2, Cash: 85000},
			{Date: "2024-03-12", Status: models.DaySkipped, LedgerStatus: "skipped", Cash: 85000},
		},
	}
	require.NoError(t, st.SaveSummary(summary))

	loaded, err := st.LoadSummary("desk-test")
	require.NoError(t, err)
	require.Len(t, loaded.Days, 2)
	assert.Equal(t, models.DaySkipped, loaded.Days[1].Status)
	assert.Equal(t, models.ModePortfolio, loaded.Mode)
}
