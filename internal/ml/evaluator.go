package ml

import (
	"math"

	"github.com/AquaNexus/aquanexus_backend/internal/models"
)

const mapeEpsilon = 1e-8

// Score computes held-out metrics over flattened prediction matrices.
// MAPE here pads denominators with a tiny epsilon so near-zero actuals
// do not divide by zero; the value can be inflated when actuals hug
// zero, which is why offline validation uses FilteredMAPE instead.
func Score(predicted, actual [][]float64) *models.EvaluationMetrics {
	var sqSum, absSum, pctSum, actualSum float64
	count := 0
	for i := range actual {
		for j := range actual[i] {
			a := actual[i][j]
			p := predicted[i][j]
			diff := p - a
			sqSum += diff * diff
			absSum += math.Abs(diff)
			pctSum += math.Abs(diff) / (math.Abs(a) + mapeEpsilon)
			actualSum += a
			count++
		}
	}
	if count == 0 {
		return &models.EvaluationMetrics{}
	}

	mse := sqSum / float64(count)
	mae := absSum / float64(count)
	mean := actualSum / float64(count)

	var ssTot float64
	for i := range actual {
		for j := range actual[i] {
			d := actual[i][j] - mean
			ssTot += d * d
		}
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - sqSum/ssTot
	}

	return &models.EvaluationMetrics{
		MSE:     mse,
		RMSE:    math.Sqrt(mse),
		MAE:     mae,
		MAPE:    pctSum / float64(count) * 100,
		R2:      r2,
		ValLoss: mse,
		ValMAE:  mae,
	}
}

// FilteredMAPE is the honest percentage error for offline validation:
// pairs whose actual value is effectively zero are excluded rather than
// padded. Returns the MAPE and the number of pairs scored.
func FilteredMAPE(predicted, actual []float64) (float64, int) {
	var pctSum float64
	count := 0
	for i := range actual {
		if math.Abs(actual[i]) <= mapeEpsilon {
			continue
		}
		pctSum += math.Abs(predicted[i]-actual[i]) / math.Abs(actual[i])
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return pctSum / float64(count) * 100, count
}

// PerStepMAE computes the mean absolute error per forecast step, which
// shows how fast accuracy degrades over the horizon.
func PerStepMAE(predicted, actual [][]float64) []float64 {
	if len(actual) == 0 {
		return nil
	}
	steps := len(actual[0])
	sums := make([]float64, steps)
	for i := range actual {
		for s := 0; s < steps; s++ {
			sums[s] += math.Abs(predicted[i][s] - actual[i][s])
		}
	}
	out := make([]float64, steps)
	for s := range sums {
		out[s] = sums[s] / float64(len(actual))
	}
	return out
}

// Confidence assigns a per-step score from the spread of the scaled
// input window: volatile inputs lower the base, and each step further
// out decays it by 2%. Scores clamp to [0.5, 0.99]. This is a heuristic
// ranking signal, not a calibrated probability.
func Confidence(window [][]float64, steps int) []float64 {
	var sum float64
	count := 0
	for _, row := range window {
		for _, v := range row {
			sum += v
			count++
		}
	}
	std := 0.0
	if count > 0 {
		mean := sum / float64(count)
		var sqSum float64
		for _, row := range window {
			for _, v := range row {
				d := v - mean
				sqSum += d * d
			}
		}
		std = math.Sqrt(sqSum / float64(count))
	}

	base := 0.95 - 0.1*std
	out := make([]float64, steps)
	for i := 0; i < steps; i++ {
		c := base * (1 - 0.02*float64(i))
		if c < 0.5 {
			c = 0.5
		}
		if c > 0.99 {
			c = 0.99
		}
		out[i] = c
	}
	return out
}
