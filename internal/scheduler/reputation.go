package scheduler

import (
	"math"

	"go.uber.org/zap"

	"github.com/alphadesk/alphadesk/internal/models"
)

// flatBand is the daily-return band inside which a neutral call counts as
// correct and a directional call counts as wrong.
const flatBand = 0.005

// accuracyWindow bounds how far back the hit-rate looks when weights are
// recomputed or the worst producer is identified.
const accuracyWindow = 20

// directionHit scores one call against the realized daily return.
func directionHit(dir models.Direction, ret float64) bool {
	switch dir {
	case models.Bullish:
		return ret > flatBand
	case models.Bearish:
		return ret < -flatBand
	default:
		return math.Abs(ret) <= flatBand
	}
}

// recordAccuracy scores the previous session's final calls against the
// returns realized since, one observation per producer per ticker.
func recordAccuracy(prev *models.SessionState, returns map[models.TickerID]float64, weights models.WeightState) {
	if prev == nil {
		return
	}
	for _, p := range prev.Producers() {
		for _, t := range prev.Tickers {
			ret, ok := returns[t]
			if !ok {
				continue
			}
			sig, ok := prev.LatestSignalFor(p, t)
			if !ok {
				continue
			}
			weights.Record(p, directionHit(sig.Direction, ret))
		}
	}
}

// recomputeWeights rebuilds influence weights from recent hit rates,
// normalized so they sum to one. A producer with no history sits at the
// 0.5 prior, so fresh hires keep a neutral share.
func recomputeWeights(weights models.WeightState, producers []models.ProducerID, logger *zap.Logger) {
	if len(producers) == 0 {
		return
	}
	total := 0.0
	acc := make(map[models.ProducerID]float64, len(producers))
	for _, p := range producers {
		a := weights.Accuracy(p, accuracyWindow)
		acc[p] = a
		total += a
	}
	if total <= 0 {
		even := 1.0 / float64(len(producers))
		for _, p := range producers {
			weights.Weights[p] = even
		}
		return
	}
	for _, p := range producers {
		weights.Weights[p] = acc[p] / total
		if len(weights.Hits[p]) >= accuracyWindow {
			delete(weights.NewHires, p)
		}
	}
	logger.Debug("reputation weights recomputed", zap.Any("weights", weights.Weights))
}

// rotateWorst resets the single worst-performing producer: its accuracy
// record is wiped, it is flagged as a new hire, and its weight returns to
// the even share.
func rotateWorst(weights models.WeightState, producers []models.ProducerID, logger *zap.Logger) {
	if len(producers) == 0 {
		return
	}
	var worst models.ProducerID
	worstAcc := math.Inf(1)
	for _, p := range producers {
		if len(weights.Hits[p]) == 0 {
			continue
		}
		if a := weights.Accuracy(p, accuracyWindow); a < worstAcc {
			worstAcc = a
			worst = p
		}
	}
	if worst == "" {
		return
	}
	weights.Hits[worst] = nil
	weights.NewHires[worst] = true
	weights.Weights[worst] = 1.0 / float64(len(producers))
	logger.Info("worst producer rotated",
		zap.String("producer", string(worst)),
		zap.Float64("accuracy", worstAcc))
}
