package timeseries

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"
)

// Processor holds the windowing and scaling configuration for one model.
// Scaler state is not stored here: Fit returns it as an immutable value
// that callers thread through Transform and the inverse transforms, so a
// processor can be reused across datasets without hidden-state bugs.
type Processor struct {
	SequenceLength  int
	PredictionSteps int
	FeatureColumns  []string
	TargetColumn    string
}

// ScalerState is the fitted min-max normalization state: one min/max
// pair per feature column plus a separate pair for the target column,
// kept apart so predictions can be mapped back to physical units
// without the other features' ranges.
type ScalerState struct {
	FeatureMin []float64
	FeatureMax []float64
	TargetMin  float64
	TargetMax  float64
}

// NewProcessor creates a processor. An empty feature list defaults to
// the target column alone.
func NewProcessor(sequenceLength, predictionSteps int, featureColumns []string, targetColumn string) *Processor {
	if len(featureColumns) == 0 {
		featureColumns = []string{targetColumn}
	}
	return &Processor{
		SequenceLength:  sequenceLength,
		PredictionSteps: predictionSteps,
		FeatureColumns:  featureColumns,
		TargetColumn:    targetColumn,
	}
}

// PrepareFrame normalizes raw readings onto this processor's feature
// columns.
func (p *Processor) PrepareFrame(readings []Reading, timestampField string, resample time.Duration) *Frame {
	return Normalize(readings, timestampField, p.FeatureColumns, resample)
}

// TargetIndex returns the position of the target column within the
// feature columns, or 0 when the target is not itself a feature.
func (p *Processor) TargetIndex() int {
	for i, col := range p.FeatureColumns {
		if col == p.TargetColumn {
			return i
		}
	}
	return 0
}

// Fit computes min-max scaler state over the frame. Cells that are NaN
// are ignored; a column with no finite values fits a degenerate 0..0
// range, which scaleDenom later clamps.
func (p *Processor) Fit(frame *Frame) (*ScalerState, error) {
	if frame.Len() == 0 {
		return nil, fmt.Errorf("%w: cannot fit scaler on empty frame", ErrInsufficientData)
	}
	if len(frame.Columns) != len(p.FeatureColumns) {
		return nil, fmt.Errorf("frame has %d columns, processor expects %d", len(frame.Columns), len(p.FeatureColumns))
	}

	state := &ScalerState{
		FeatureMin: make([]float64, len(p.FeatureColumns)),
		FeatureMax: make([]float64, len(p.FeatureColumns)),
	}
	for col := range p.FeatureColumns {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, row := range frame.Data {
			v := row[col]
			if math.IsNaN(v) {
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if lo > hi { // no finite values observed
			lo, hi = 0, 0
		}
		state.FeatureMin[col] = lo
		state.FeatureMax[col] = hi
	}

	targetIdx := p.TargetIndex()
	state.TargetMin = state.FeatureMin[targetIdx]
	state.TargetMax = state.FeatureMax[targetIdx]
	return state, nil
}

// scaleDenom guards the degenerate all-constant column case by clamping
// the scale to 1.0 instead of dividing by zero.
func scaleDenom(min, max float64) float64 {
	d := max - min
	if d <= 0 {
		return 1.0
	}
	return d
}

// Transform scales the frame into [0,1] feature space using the given
// state. NaN cells pass through as NaN.
func (p *Processor) Transform(frame *Frame, state *ScalerState) ([][]float64, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: call Fit first", ErrNotFitted)
	}
	if len(state.FeatureMin) != len(p.FeatureColumns) {
		return nil, fmt.Errorf("%w: state has %d features, processor expects %d", ErrNotFitted, len(state.FeatureMin), len(p.FeatureColumns))
	}

	scaled := make([][]float64, frame.Len())
	for i, row := range frame.Data {
		out := make([]float64, len(row))
		for col, v := range row {
			out[col] = (v - state.FeatureMin[col]) / scaleDenom(state.FeatureMin[col], state.FeatureMax[col])
		}
		scaled[i] = out
	}
	return scaled, nil
}

// FitTransform fits and transforms on the same frame, guaranteeing the
// scaler state and the scaled data come from identical rows.
func (p *Processor) FitTransform(frame *Frame) (*ScalerState, [][]float64, error) {
	state, err := p.Fit(frame)
	if err != nil {
		return nil, nil, err
	}
	scaled, err := p.Transform(frame, state)
	if err != nil {
		return nil, nil, err
	}
	return state, scaled, nil
}

// TransformTarget scales raw target values into [0,1] target space.
func (p *Processor) TransformTarget(state *ScalerState, values []float64) ([]float64, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: call Fit first", ErrNotFitted)
	}
	out := make([]float64, len(values))
	denom := scaleDenom(state.TargetMin, state.TargetMax)
	for i, v := range values {
		out[i] = (v - state.TargetMin) / denom
	}
	return out, nil
}

// InverseTransformTarget maps target-scaled values back to physical
// units using the target scaler only.
func (p *Processor) InverseTransformTarget(state *ScalerState, values []float64) ([]float64, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: call Fit first", ErrNotFitted)
	}
	out := make([]float64, len(values))
	denom := scaleDenom(state.TargetMin, state.TargetMax)
	for i, v := range values {
		out[i] = v*denom + state.TargetMin
	}
	return out, nil
}

// InverseTransformTargetMatrix is InverseTransformTarget over a 2-D
// block of target-scaled values.
func (p *Processor) InverseTransformTargetMatrix(state *ScalerState, values [][]float64) ([][]float64, error) {
	out := make([][]float64, len(values))
	for i, row := range values {
		inv, err := p.InverseTransformTarget(state, row)
		if err != nil {
			return nil, err
		}
		out[i] = inv
	}
	return out, nil
}

// processorParams is the persisted form of a processor plus its scaler
// state. Key names match the artifact layout contract; the target
// scaler vectors are single-element for compatibility with the record
// format.
type processorParams struct {
	SequenceLength  *int      `json:"sequence_length"`
	PredictionSteps *int      `json:"prediction_steps"`
	FeatureColumns  []string  `json:"feature_columns"`
	TargetColumn    *string   `json:"target_column"`
	ScalerMin       []float64 `json:"scaler_min"`
	ScalerMax       []float64 `json:"scaler_max"`
	TargetScalerMin []float64 `json:"target_scaler_min"`
	TargetScalerMax []float64 `json:"target_scaler_max"`
}

// SaveParams serializes the processor configuration and scaler state.
// The write goes through a temp file and rename so concurrent discovery
// never observes a partial record.
func (p *Processor) SaveParams(path string, state *ScalerState) error {
	params := processorParams{
		SequenceLength:  &p.SequenceLength,
		PredictionSteps: &p.PredictionSteps,
		FeatureColumns:  p.FeatureColumns,
		TargetColumn:    &p.TargetColumn,
	}
	if state != nil {
		params.ScalerMin = state.FeatureMin
		params.ScalerMax = state.FeatureMax
		params.TargetScalerMin = []float64{state.TargetMin}
		params.TargetScalerMax = []float64{state.TargetMax}
	}

	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode processor params: %w", err)
	}
	return writeFileAtomic(path, data)
}

// LoadParams reconstructs a processor and scaler state numerically
// identical to what was saved. Missing keys surface ErrMalformedRecord.
func LoadParams(path string) (*Processor, *ScalerState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read processor params: %w", err)
	}

	var params processorParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, path, err)
	}
	if params.SequenceLength == nil || params.PredictionSteps == nil || params.TargetColumn == nil || len(params.FeatureColumns) == 0 {
		return nil, nil, fmt.Errorf("%w: %s is missing processor configuration keys", ErrMalformedRecord, path)
	}

	processor := NewProcessor(*params.SequenceLength, *params.PredictionSteps, params.FeatureColumns, *params.TargetColumn)

	if params.ScalerMin == nil {
		// Saved before fitting; no scaler state to restore.
		return processor, nil, nil
	}
	if len(params.ScalerMin) != len(params.FeatureColumns) || len(params.ScalerMax) != len(params.FeatureColumns) ||
		len(params.TargetScalerMin) != 1 || len(params.TargetScalerMax) != 1 {
		return nil, nil, fmt.Errorf("%w: %s scaler vectors do not match feature columns", ErrMalformedRecord, path)
	}

	state := &ScalerState{
		FeatureMin: params.ScalerMin,
		FeatureMax: params.ScalerMax,
		TargetMin:  params.TargetScalerMin[0],
		TargetMax:  params.TargetScalerMax[0],
	}
	return processor, state, nil
}

// writeFileAtomic writes data to a temp file in the target directory
// and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}
