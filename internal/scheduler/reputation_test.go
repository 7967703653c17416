package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/models"
)

func TestDirectionHit(t *testing.T) {
	assert.True(t, directionHit(models.Bullish, 0.02))
	assert.False(t, directionHit(models.Bullish, -0.02))
	assert.False(t, directionHit(models.Bullish, 0.001))

	assert.True(t, directionHit(models.Bearish, -0.02))
	assert.False(t, directionHit(models.Bearish, 0.02))

	assert.True(t, directionHit(models.Neutral, 0.001))
	assert.False(t, directionHit(models.Neutral, 0.03))
}

func TestRecordAccuracyScoresPreviousCalls(t *testing.T) {
	prev := &models.SessionState{
		Tickers: []models.TickerID{"AAPL", "MSFT"},
		Date:    time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	prev.AppendSignal(models.SignalEnvelope{
		Producer: "technical", Round: 1,
		Signal: models.Signal{Ticker: "AAPL", Direction: models.Bullish, Confidence: 70},
	})
	prev.AppendSignal(models.SignalEnvelope{
		Producer: "technical", Round: 1,
		Signal: models.Signal{Ticker: "MSFT", Direction: models.Bearish, Confidence: 60},
	})

	weights := models.NewWeightState([]models.ProducerID{"technical"})
	returns := map[models.TickerID]float64{"AAPL": 0.02, "MSFT": 0.01}

	recordAccuracy(prev, returns, weights)
	require.Len(t, weights.Hits["technical"], 2)
	// Bullish AAPL was right, bearish MSFT was wrong.
	assert.Equal(t, []int{1, 0}, weights.Hits["technical"])

	// Nil previous state records nothing.
	recordAccuracy(nil, returns, weights)
	assert.Len(t, weights.Hits["technical"], 2)
}

func TestRecomputeWeightsNormalizes(t *testing.T) {
	producers := []models.ProducerID{"sharp", "blunt"}
	weights := models.NewWeightState(producers)
	for i := 0; i < 10; i++ {
		weights.Record("sharp", true)
		weights.Record("blunt", i%5 == 0)
	}

	recomputeWeights(weights, producers, zap.NewNop())

	sum := weights.Weights["sharp"] + weights.Weights["blunt"]
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, weights.Weights["sharp"], weights.Weights["blunt"])
}

func TestRotateWorstResetsLoser(t *testing.T) {
	producers := []models.ProducerID{"sharp", "blunt"}
	weights := models.NewWeightState(producers)
	for i := 0; i < 10; i++ {
		weights.Record("sharp", true)
		weights.Record("blunt", false)
	}
	recomputeWeights(weights, producers, zap.NewNop())

	rotateWorst(weights, producers, zap.NewNop())

	assert.Empty(t, weights.Hits["blunt"])
	assert.True(t, weights.NewHires["blunt"])
	assert.InDelta(t, 0.5, weights.Weights["blunt"], 1e-9)
	assert.Len(t, weights.Hits["sharp"], 10)
}

func TestRotateWorstNoHistoryNoOp(t *testing.T) {
	producers := []models.ProducerID{"a", "b"}
	weights := models.NewWeightState(producers)

	rotateWorst(weights, producers, zap.NewNop())
	assert.Empty(t, weights.NewHires)
}
