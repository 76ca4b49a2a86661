package timeseries

import (
	"errors"
	"math"
	"testing"
)

func rampData(rows, cols int) [][]float64 {
	data := make([][]float64, rows)
	for i := range data {
		row := make([]float64, cols)
		for j := range row {
			row[j] = float64(i) + float64(j)/10
		}
		data[i] = row
	}
	return data
}

func TestCreateTrainingWindows_Count(t *testing.T) {
	cases := []struct {
		rows, seq, steps, want int
	}{
		{48, 24, 12, 13},
		{36, 24, 12, 1},  // exactly seq+steps rows yields one window
		{35, 24, 12, 0},  // one row short yields none
		{10, 24, 12, 0},  // far too short still no error
		{100, 24, 12, 65},
	}

	for _, tc := range cases {
		p := NewProcessor(tc.seq, tc.steps, []string{"a", "b"}, "a")
		inputs, targets, err := p.CreateTrainingWindows(rampData(tc.rows, 2), 0)
		if err != nil {
			t.Fatalf("rows=%d: unexpected error %v", tc.rows, err)
		}
		if len(inputs) != tc.want || len(targets) != tc.want {
			t.Errorf("rows=%d seq=%d steps=%d: expected %d windows, got %d inputs / %d targets",
				tc.rows, tc.seq, tc.steps, tc.want, len(inputs), len(targets))
		}
	}
}

func TestCreateTrainingWindows_Alignment(t *testing.T) {
	p := NewProcessor(24, 12, []string{"a"}, "a")
	data := rampData(48, 1)

	inputs, targets, err := p.CreateTrainingWindows(data, 0)
	if err != nil {
		t.Fatalf("CreateTrainingWindows failed: %v", err)
	}

	// First window covers rows 0..23; its targets are rows 24..35
	if inputs[0][0][0] != data[0][0] || inputs[0][23][0] != data[23][0] {
		t.Errorf("First window misaligned: starts %v ends %v", inputs[0][0][0], inputs[0][23][0])
	}
	for j := 0; j < 12; j++ {
		if targets[0][j] != data[24+j][0] {
			t.Errorf("Target %d: expected %v, got %v", j, data[24+j][0], targets[0][j])
		}
	}

	// Stride is one row
	if inputs[1][0][0] != data[1][0] {
		t.Errorf("Second window should start at row 1, got %v", inputs[1][0][0])
	}
}

func TestCreateTrainingWindows_CopiesData(t *testing.T) {
	p := NewProcessor(2, 1, []string{"a"}, "a")
	data := rampData(5, 1)

	inputs, _, err := p.CreateTrainingWindows(data, 0)
	if err != nil {
		t.Fatalf("CreateTrainingWindows failed: %v", err)
	}

	data[0][0] = 999
	if inputs[0][0][0] == 999 {
		t.Error("Window shares backing storage with source data")
	}
}

func TestCreateTrainingWindows_RejectsNaN(t *testing.T) {
	p := NewProcessor(2, 1, []string{"a"}, "a")
	data := rampData(5, 1)
	data[3][0] = math.NaN()

	_, _, err := p.CreateTrainingWindows(data, 0)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData for NaN data, got %v", err)
	}
}

func TestCreateInferenceWindow(t *testing.T) {
	p := NewProcessor(3, 1, []string{"a"}, "a")
	data := rampData(10, 1)

	window, err := p.CreateInferenceWindow(data)
	if err != nil {
		t.Fatalf("CreateInferenceWindow failed: %v", err)
	}
	if len(window) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(window))
	}
	if window[0][0] != data[7][0] || window[2][0] != data[9][0] {
		t.Errorf("Expected last 3 rows, got %v..%v", window[0][0], window[2][0])
	}
}

func TestCreateInferenceWindow_TooShort(t *testing.T) {
	p := NewProcessor(24, 1, []string{"a"}, "a")

	_, err := p.CreateInferenceWindow(rampData(10, 1))
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestSplitWindows_SuffixHeldOut(t *testing.T) {
	p := NewProcessor(2, 1, []string{"a"}, "a")
	inputs, targets, err := p.CreateTrainingWindows(rampData(13, 1), 0)
	if err != nil {
		t.Fatalf("CreateTrainingWindows failed: %v", err)
	}
	if len(inputs) != 11 {
		t.Fatalf("Expected 11 windows, got %d", len(inputs))
	}

	trainX, testX, trainY, testY := SplitWindows(inputs, targets, 0.2)
	if len(trainX) != 8 || len(testX) != 3 {
		t.Fatalf("Expected 8/3 split, got %d/%d", len(trainX), len(testX))
	}
	if len(trainY) != 8 || len(testY) != 3 {
		t.Fatalf("Targets split differently from inputs: %d/%d", len(trainY), len(testY))
	}

	// Held-out windows are the chronologically last ones
	if testX[0][0][0] != inputs[8][0][0] {
		t.Error("Test set is not the suffix of the window sequence")
	}
}

func TestSplitWindows_Empty(t *testing.T) {
	trainX, testX, trainY, testY := SplitWindows(nil, nil, 0.2)
	if len(trainX) != 0 || len(testX) != 0 || len(trainY) != 0 || len(testY) != 0 {
		t.Error("Expected empty splits from empty input")
	}
}
