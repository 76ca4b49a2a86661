package ml

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/timeseries"
)

// FitOptions control a training run.
type FitOptions struct {
	ValidationSplit float64
	Epochs          int
	BatchSize       int
	Patience        int
	CheckpointPath  string
}

// withDefaults fills in unset options so callers and the results record
// agree on what a run actually used.
func (o FitOptions) withDefaults() FitOptions {
	if o.Epochs <= 0 {
		o.Epochs = 100
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 32
	}
	if o.Patience <= 0 {
		o.Patience = 10
	}
	if o.ValidationSplit <= 0 || o.ValidationSplit >= 1 {
		o.ValidationSplit = 0.2
	}
	return o
}

// Regressor is a multi-step forecaster over scaled sliding windows.
// Implementations are swappable behind this interface so the training
// and prediction flow never depends on a particular model family.
type Regressor interface {
	Fit(inputs [][][]float64, targets [][]float64, opts FitOptions) (*models.TrainingSummary, error)
	Predict(inputs [][][]float64) ([][]float64, error)
	Save(path string) error
	Load(path string) error
}

// LinearRegressor predicts each forecast step as a linear combination
// of the flattened input window, trained by mini-batch gradient descent
// with early stopping on validation loss.
type LinearRegressor struct {
	LearningRate float64

	inputDim int
	steps    int
	weights  [][]float64
	bias     []float64
}

// NewLinearRegressor returns an unfitted regressor with the default
// learning rate.
func NewLinearRegressor() *LinearRegressor {
	return &LinearRegressor{LearningRate: 0.01}
}

func flattenWindow(window [][]float64) []float64 {
	if len(window) == 0 {
		return nil
	}
	flat := make([]float64, 0, len(window)*len(window[0]))
	for _, row := range window {
		flat = append(flat, row...)
	}
	return flat
}

func (r *LinearRegressor) forward(flat []float64) []float64 {
	out := make([]float64, r.steps)
	for s := 0; s < r.steps; s++ {
		sum := r.bias[s]
		w := r.weights[s]
		for i, v := range flat {
			sum += w[i] * v
		}
		out[s] = sum
	}
	return out
}

// Fit trains on the given windows. A suffix of the training windows is
// held out as the validation set; when validation loss stops improving
// for Patience epochs, training stops and the best weights are
// restored. If a checkpoint path is set, the best weights are also
// written there as they improve.
func (r *LinearRegressor) Fit(inputs [][][]float64, targets [][]float64, opts FitOptions) (*models.TrainingSummary, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no training windows", timeseries.ErrInsufficientData)
	}
	if len(inputs) != len(targets) {
		return nil, fmt.Errorf("inputs and targets disagree: %d vs %d", len(inputs), len(targets))
	}
	opts = opts.withDefaults()
	if r.LearningRate <= 0 {
		r.LearningRate = 0.01
	}

	r.steps = len(targets[0])
	r.inputDim = len(inputs[0]) * len(inputs[0][0])
	r.weights = make([][]float64, r.steps)
	for s := range r.weights {
		r.weights[s] = make([]float64, r.inputDim)
	}
	r.bias = make([]float64, r.steps)

	flats := make([][]float64, len(inputs))
	for i, window := range inputs {
		flats[i] = flattenWindow(window)
		if len(flats[i]) != r.inputDim {
			return nil, fmt.Errorf("window %d has %d values, expected %d", i, len(flats[i]), r.inputDim)
		}
	}

	splitIdx := int(float64(len(flats)) * (1 - opts.ValidationSplit))
	if splitIdx < 1 {
		splitIdx = 1
	}
	if splitIdx > len(flats) {
		splitIdx = len(flats)
	}
	trainX, valX := flats[:splitIdx], flats[splitIdx:]
	trainY, valY := targets[:splitIdx], targets[splitIdx:]

	summary := &models.TrainingSummary{}
	bestValLoss := math.Inf(1)
	sinceImproved := 0
	var bestWeights [][]float64
	var bestBias []float64

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for start := 0; start < len(trainX); start += opts.BatchSize {
			end := start + opts.BatchSize
			if end > len(trainX) {
				end = len(trainX)
			}
			r.applyBatch(trainX[start:end], trainY[start:end])
		}

		trainLoss, trainMAE := r.evaluate(trainX, trainY)
		valLoss, valMAE := trainLoss, trainMAE
		if len(valX) > 0 {
			valLoss, valMAE = r.evaluate(valX, valY)
		}

		summary.Loss = append(summary.Loss, trainLoss)
		summary.ValLoss = append(summary.ValLoss, valLoss)
		summary.MAE = append(summary.MAE, trainMAE)
		summary.ValMAE = append(summary.ValMAE, valMAE)

		if valLoss < bestValLoss {
			bestValLoss = valLoss
			sinceImproved = 0
			bestWeights = copyMatrix(r.weights)
			bestBias = append([]float64(nil), r.bias...)
			if opts.CheckpointPath != "" {
				if err := r.Save(opts.CheckpointPath); err != nil {
					log.Printf("⚠️ Failed to checkpoint model: %v", err)
				}
			}
		} else {
			sinceImproved++
			if sinceImproved >= opts.Patience {
				break
			}
		}
	}

	if bestWeights != nil {
		r.weights = bestWeights
		r.bias = bestBias
	}

	summary.EpochsTrained = len(summary.Loss)
	if n := summary.EpochsTrained; n > 0 {
		summary.FinalLoss = summary.Loss[n-1]
		summary.FinalValLoss = summary.ValLoss[n-1]
		summary.FinalMAE = summary.MAE[n-1]
		summary.FinalValMAE = summary.ValMAE[n-1]
	}
	return summary, nil
}

// applyBatch takes one gradient descent step on the mean squared error
// of the batch.
func (r *LinearRegressor) applyBatch(batchX [][]float64, batchY [][]float64) {
	n := float64(len(batchX))
	gradW := make([][]float64, r.steps)
	for s := range gradW {
		gradW[s] = make([]float64, r.inputDim)
	}
	gradB := make([]float64, r.steps)

	for i, flat := range batchX {
		pred := r.forward(flat)
		for s := 0; s < r.steps; s++ {
			diff := pred[s] - batchY[i][s]
			gradB[s] += diff
			g := gradW[s]
			for j, v := range flat {
				g[j] += diff * v
			}
		}
	}

	scale := r.LearningRate * 2 / n
	for s := 0; s < r.steps; s++ {
		r.bias[s] -= scale * gradB[s]
		w := r.weights[s]
		for j := range w {
			w[j] -= scale * gradW[s][j]
		}
	}
}

func (r *LinearRegressor) evaluate(x [][]float64, y [][]float64) (loss, mae float64) {
	if len(x) == 0 {
		return 0, 0
	}
	var sqSum, absSum float64
	count := 0
	for i, flat := range x {
		pred := r.forward(flat)
		for s, p := range pred {
			diff := p - y[i][s]
			sqSum += diff * diff
			absSum += math.Abs(diff)
			count++
		}
	}
	return sqSum / float64(count), absSum / float64(count)
}

func copyMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Predict forecasts for a batch of windows.
func (r *LinearRegressor) Predict(inputs [][][]float64) ([][]float64, error) {
	if r.weights == nil {
		return nil, fmt.Errorf("%w: model has no trained weights", timeseries.ErrNotFitted)
	}
	out := make([][]float64, len(inputs))
	for i, window := range inputs {
		flat := flattenWindow(window)
		if len(flat) != r.inputDim {
			return nil, fmt.Errorf("window %d has %d values, expected %d", i, len(flat), r.inputDim)
		}
		out[i] = r.forward(flat)
	}
	return out, nil
}

type regressorRecord struct {
	InputDim     int         `json:"input_dim"`
	Steps        int         `json:"steps"`
	LearningRate float64     `json:"learning_rate"`
	Weights      [][]float64 `json:"weights"`
	Bias         []float64   `json:"bias"`
}

// Save writes the trained weights to disk via a temp file and rename.
func (r *LinearRegressor) Save(path string) error {
	if r.weights == nil {
		return fmt.Errorf("%w: nothing to save", timeseries.ErrNotFitted)
	}
	record := regressorRecord{
		InputDim:     r.inputDim,
		Steps:        r.steps,
		LearningRate: r.LearningRate,
		Weights:      r.weights,
		Bias:         r.bias,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode model weights: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}

// Load restores trained weights from disk.
func (r *LinearRegressor) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model weights: %w", err)
	}
	var record regressorRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("%w: %s: %v", timeseries.ErrMalformedRecord, path, err)
	}
	if record.Weights == nil || record.Bias == nil || record.Steps != len(record.Weights) {
		return fmt.Errorf("%w: %s is missing model weights", timeseries.ErrMalformedRecord, path)
	}
	for _, row := range record.Weights {
		if len(row) != record.InputDim {
			return fmt.Errorf("%w: %s weight rows do not match input dimension", timeseries.ErrMalformedRecord, path)
		}
	}
	r.inputDim = record.InputDim
	r.steps = record.Steps
	if record.LearningRate > 0 {
		r.LearningRate = record.LearningRate
	}
	r.weights = record.Weights
	r.bias = record.Bias
	return nil
}
