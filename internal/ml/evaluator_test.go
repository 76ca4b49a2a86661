package ml

import (
	"math"
	"testing"
)

func TestScore_PerfectPrediction(t *testing.T) {
	actual := [][]float64{{1, 2}, {3, 4}}
	metrics := Score(actual, actual)

	if metrics.MSE != 0 || metrics.MAE != 0 {
		t.Errorf("Expected zero error for perfect prediction, got MSE=%v MAE=%v", metrics.MSE, metrics.MAE)
	}
	if metrics.R2 != 1 {
		t.Errorf("Expected R2=1 for perfect prediction, got %v", metrics.R2)
	}
}

func TestScore_ConstantActualsGiveZeroR2(t *testing.T) {
	actual := [][]float64{{5, 5}, {5, 5}}
	predicted := [][]float64{{4, 6}, {5, 5}}

	metrics := Score(predicted, actual)
	if metrics.R2 != 0 {
		t.Errorf("Expected R2=0 when actuals have no variance, got %v", metrics.R2)
	}
}

func TestScore_KnownValues(t *testing.T) {
	actual := [][]float64{{1, 2, 3}}
	predicted := [][]float64{{2, 2, 5}}

	metrics := Score(predicted, actual)
	if math.Abs(metrics.MAE-1.0) > 1e-9 {
		t.Errorf("Expected MAE 1.0, got %v", metrics.MAE)
	}
	wantMSE := (1.0 + 0.0 + 4.0) / 3
	if math.Abs(metrics.MSE-wantMSE) > 1e-9 {
		t.Errorf("Expected MSE %v, got %v", wantMSE, metrics.MSE)
	}
	if math.Abs(metrics.RMSE-math.Sqrt(wantMSE)) > 1e-9 {
		t.Errorf("Expected RMSE %v, got %v", math.Sqrt(wantMSE), metrics.RMSE)
	}
}

func TestScore_MAPEInflatesNearZeroActuals(t *testing.T) {
	// The epsilon-padded MAPE blows up when actuals sit near zero,
	// while the filtered variant simply excludes those pairs.
	predicted := [][]float64{{1.0, 10.0}}
	actual := [][]float64{{0.0, 10.0}}

	metrics := Score(predicted, actual)
	if metrics.MAPE < 1000 {
		t.Errorf("Expected padded MAPE to explode on zero actual, got %v", metrics.MAPE)
	}

	filtered, scored := FilteredMAPE([]float64{1.0, 10.0}, []float64{0.0, 10.0})
	if scored != 1 {
		t.Fatalf("Expected 1 scored pair after filtering, got %d", scored)
	}
	if filtered != 0 {
		t.Errorf("Expected filtered MAPE 0 for the exact pair, got %v", filtered)
	}
}

func TestFilteredMAPE_AllZeroActuals(t *testing.T) {
	mape, scored := FilteredMAPE([]float64{1, 2}, []float64{0, 0})
	if scored != 0 || mape != 0 {
		t.Errorf("Expected no scored pairs, got mape=%v scored=%d", mape, scored)
	}
}

func TestPerStepMAE(t *testing.T) {
	predicted := [][]float64{{1, 2}, {3, 6}}
	actual := [][]float64{{1, 3}, {4, 4}}

	perStep := PerStepMAE(predicted, actual)
	if len(perStep) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(perStep))
	}
	if math.Abs(perStep[0]-0.5) > 1e-9 {
		t.Errorf("Step 0: expected 0.5, got %v", perStep[0])
	}
	if math.Abs(perStep[1]-1.5) > 1e-9 {
		t.Errorf("Step 1: expected 1.5, got %v", perStep[1])
	}
}

func TestConfidence_DecaysOverHorizon(t *testing.T) {
	window := [][]float64{{0.5, 0.5}, {0.5, 0.5}}
	scores := Confidence(window, 24)

	if len(scores) != 24 {
		t.Fatalf("Expected 24 scores, got %d", len(scores))
	}
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[i-1] {
			t.Fatalf("Confidence increased from step %d to %d: %v -> %v", i-1, i, scores[i-1], scores[i])
		}
	}
	for i, score := range scores {
		if score < 0.5 || score > 0.99 {
			t.Errorf("Step %d confidence %v outside [0.5, 0.99]", i, score)
		}
	}

	// A flat window has zero spread, so the first step sits at the base
	if math.Abs(scores[0]-0.95) > 1e-9 {
		t.Errorf("Expected base confidence 0.95 for flat window, got %v", scores[0])
	}
}

func TestConfidence_VolatileWindowScoresLower(t *testing.T) {
	flat := [][]float64{{0.5}, {0.5}, {0.5}}
	volatile := [][]float64{{0.0}, {1.0}, {0.0}}

	flatScores := Confidence(flat, 4)
	volatileScores := Confidence(volatile, 4)

	for i := range flatScores {
		if volatileScores[i] > flatScores[i] {
			t.Errorf("Step %d: volatile window scored higher (%v) than flat (%v)", i, volatileScores[i], flatScores[i])
		}
	}
}

func TestConfidence_ClampsFloor(t *testing.T) {
	// Long horizons decay below 0.5 without the clamp
	window := [][]float64{{0.5}}
	scores := Confidence(window, 60)
	last := scores[len(scores)-1]
	if last != 0.5 {
		t.Errorf("Expected floor clamp at 0.5, got %v", last)
	}
}
