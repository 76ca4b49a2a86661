package timeseries

import (
	"fmt"
	"math"
)

// CreateTrainingWindows slices scaled data into stride-1 sliding
// (input, target) pairs. Each input is sequence_length rows of all
// feature columns; each target is the following prediction_steps values
// of the target column. For a table of length L the window count is
// max(0, L - sequence_length - prediction_steps + 1); too-short tables
// yield zero windows without error. Data containing NaN means a feature
// column never observed a value, which is unrecoverable here.
func (p *Processor) CreateTrainingWindows(data [][]float64, targetIdx int) ([][][]float64, [][]float64, error) {
	if err := checkObserved(data); err != nil {
		return nil, nil, err
	}

	count := len(data) - p.SequenceLength - p.PredictionSteps + 1
	if count < 0 {
		count = 0
	}

	inputs := make([][][]float64, 0, count)
	targets := make([][]float64, 0, count)
	for i := 0; i < count; i++ {
		window := make([][]float64, p.SequenceLength)
		for j := 0; j < p.SequenceLength; j++ {
			row := make([]float64, len(data[i+j]))
			copy(row, data[i+j])
			window[j] = row
		}

		target := make([]float64, p.PredictionSteps)
		for j := 0; j < p.PredictionSteps; j++ {
			target[j] = data[i+p.SequenceLength+j][targetIdx]
		}

		inputs = append(inputs, window)
		targets = append(targets, target)
	}
	return inputs, targets, nil
}

// CreateInferenceWindow takes exactly the last sequence_length rows of
// already scaled recent data as a single model input.
func (p *Processor) CreateInferenceWindow(data [][]float64) ([][]float64, error) {
	if err := checkObserved(data); err != nil {
		return nil, err
	}
	if len(data) < p.SequenceLength {
		return nil, fmt.Errorf("%w: need %d rows for an inference window, got %d", ErrInsufficientData, p.SequenceLength, len(data))
	}

	window := make([][]float64, p.SequenceLength)
	for i, row := range data[len(data)-p.SequenceLength:] {
		out := make([]float64, len(row))
		copy(out, row)
		window[i] = out
	}
	return window, nil
}

// SplitWindows reserves a held-out suffix fraction of the windows for
// evaluation. The split is by window index, never shuffled, so no
// future rows leak into the training set.
func SplitWindows(inputs [][][]float64, targets [][]float64, testFraction float64) (trainX [][][]float64, testX [][][]float64, trainY [][]float64, testY [][]float64) {
	splitIdx := int(float64(len(inputs)) * (1 - testFraction))
	if splitIdx < 0 {
		splitIdx = 0
	}
	if splitIdx > len(inputs) {
		splitIdx = len(inputs)
	}
	return inputs[:splitIdx], inputs[splitIdx:], targets[:splitIdx], targets[splitIdx:]
}

// checkObserved rejects data containing NaN cells, which survive
// normalization only when an entire column had no observed values.
func checkObserved(data [][]float64) error {
	for _, row := range data {
		for _, v := range row {
			if math.IsNaN(v) {
				return fmt.Errorf("%w: a feature column has no observed values", ErrInsufficientData)
			}
		}
	}
	return nil
}
