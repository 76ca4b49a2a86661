package timeseries

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"
)

func makeFrame(t *testing.T, columns []string, values [][]float64) *Frame {
	t.Helper()
	frame := &Frame{Columns: columns}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, row := range values {
		frame.Times = append(frame.Times, start.Add(time.Duration(i)*time.Hour))
		frame.Data = append(frame.Data, row)
	}
	return frame
}

func TestProcessor_FitTransform_RoundTrip(t *testing.T) {
	p := NewProcessor(3, 2, []string{"height", "temperature"}, "height")
	frame := makeFrame(t, p.FeatureColumns, [][]float64{
		{10, 20},
		{15, 25},
		{20, 30},
	})

	state, scaled, err := p.FitTransform(frame)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// Scaled values land in [0,1] with min at 0 and max at 1
	if scaled[0][0] != 0 || scaled[2][0] != 1 {
		t.Errorf("Expected height scaled to [0,1], got %v and %v", scaled[0][0], scaled[2][0])
	}

	// Inverse transform of the scaled target recovers the original values
	targetScaled := []float64{scaled[0][0], scaled[1][0], scaled[2][0]}
	recovered, err := p.InverseTransformTarget(state, targetScaled)
	if err != nil {
		t.Fatalf("InverseTransformTarget failed: %v", err)
	}
	want := []float64{10, 15, 20}
	for i := range want {
		if math.Abs(recovered[i]-want[i]) > 1e-9 {
			t.Errorf("Round trip value %d: expected %v, got %v", i, want[i], recovered[i])
		}
	}
}

func TestProcessor_FitIsIdempotent(t *testing.T) {
	p := NewProcessor(3, 2, []string{"height"}, "height")
	frame := makeFrame(t, p.FeatureColumns, [][]float64{{1}, {2}, {3}})

	first, err := p.Fit(frame)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	second, err := p.Fit(frame)
	if err != nil {
		t.Fatalf("Second fit failed: %v", err)
	}

	if first.TargetMin != second.TargetMin || first.TargetMax != second.TargetMax {
		t.Errorf("Fitting the same data twice changed the state: %+v vs %+v", first, second)
	}
}

func TestProcessor_TransformBeforeFit(t *testing.T) {
	p := NewProcessor(3, 2, []string{"height"}, "height")
	frame := makeFrame(t, p.FeatureColumns, [][]float64{{1}})

	_, err := p.Transform(frame, nil)
	if !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}
	_, err = p.InverseTransformTarget(nil, []float64{0.5})
	if !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted from inverse transform, got %v", err)
	}
}

func TestProcessor_FitEmptyFrame(t *testing.T) {
	p := NewProcessor(3, 2, []string{"height"}, "height")
	frame := &Frame{Columns: p.FeatureColumns}

	_, err := p.Fit(frame)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestProcessor_ConstantColumnDoesNotExplode(t *testing.T) {
	p := NewProcessor(2, 1, []string{"height"}, "height")
	frame := makeFrame(t, p.FeatureColumns, [][]float64{{7}, {7}, {7}})

	state, scaled, err := p.FitTransform(frame)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	for _, row := range scaled {
		if math.IsNaN(row[0]) || math.IsInf(row[0], 0) {
			t.Fatalf("Constant column produced non-finite scaled value %v", row[0])
		}
	}

	recovered, err := p.InverseTransformTarget(state, []float64{scaled[0][0]})
	if err != nil {
		t.Fatalf("InverseTransformTarget failed: %v", err)
	}
	if math.Abs(recovered[0]-7) > 1e-9 {
		t.Errorf("Expected constant value 7 recovered, got %v", recovered[0])
	}
}

func TestProcessor_SaveLoadParams(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model_processor.json")

	p := NewProcessor(24, 12, []string{"height", "temperature"}, "height")
	frame := makeFrame(t, p.FeatureColumns, [][]float64{
		{10, 20},
		{30, 40},
	})
	state, err := p.Fit(frame)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if err := p.SaveParams(path, state); err != nil {
		t.Fatalf("SaveParams failed: %v", err)
	}

	loaded, loadedState, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams failed: %v", err)
	}

	if loaded.SequenceLength != 24 || loaded.PredictionSteps != 12 {
		t.Errorf("Configuration not restored: %+v", loaded)
	}
	if loaded.TargetColumn != "height" || len(loaded.FeatureColumns) != 2 {
		t.Errorf("Columns not restored: %+v", loaded)
	}
	if loadedState.TargetMin != state.TargetMin || loadedState.TargetMax != state.TargetMax {
		t.Errorf("Target scaler not restored: %+v vs %+v", loadedState, state)
	}

	// A value scaled with the original state inverts identically with
	// the loaded state
	scaled, err := p.TransformTarget(state, []float64{17.5})
	if err != nil {
		t.Fatalf("TransformTarget failed: %v", err)
	}
	recovered, err := loaded.InverseTransformTarget(loadedState, scaled)
	if err != nil {
		t.Fatalf("InverseTransformTarget failed: %v", err)
	}
	if math.Abs(recovered[0]-17.5) > 1e-9 {
		t.Errorf("Persisted round trip drifted: expected 17.5, got %v", recovered[0])
	}
}

func TestProcessor_SaveUnfittedLoadsNilState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unfitted_processor.json")

	p := NewProcessor(4, 2, []string{"height"}, "height")
	if err := p.SaveParams(path, nil); err != nil {
		t.Fatalf("SaveParams failed: %v", err)
	}

	loaded, state, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams failed: %v", err)
	}
	if state != nil {
		t.Errorf("Expected nil scaler state for unfitted processor, got %+v", state)
	}
	if loaded.SequenceLength != 4 {
		t.Errorf("Configuration not restored: %+v", loaded)
	}
}

func TestLoadParams_MalformedRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken_processor.json")

	if err := writeFileAtomic(path, []byte(`{"feature_columns": ["height"]}`)); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	_, _, err := LoadParams(path)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("Expected ErrMalformedRecord for missing keys, got %v", err)
	}
}

func TestNewProcessor_DefaultsFeaturesToTarget(t *testing.T) {
	p := NewProcessor(4, 2, nil, "height")
	if len(p.FeatureColumns) != 1 || p.FeatureColumns[0] != "height" {
		t.Errorf("Expected features to default to target, got %v", p.FeatureColumns)
	}
	if p.TargetIndex() != 0 {
		t.Errorf("Expected target index 0, got %d", p.TargetIndex())
	}
}
