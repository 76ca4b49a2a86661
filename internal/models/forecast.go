package models

import "github.com/AquaNexus/aquanexus_backend/internal/timeseries"

// PredictedValue is a single forecast point.
type PredictedValue struct {
	Timestamp  string  `json:"timestamp"`
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

// PredictionRequest asks for a forecast from the latest trained model.
type PredictionRequest struct {
	Readings          []timeseries.Reading `json:"readings"`
	ModelType         ModelType            `json:"model_type"`
	PredictionHorizon Horizon              `json:"prediction_horizon"`
	ModelsDir         string               `json:"-"`
}

// PredictionResponse is the forecast result. On failure Success is false
// and Error carries the reason; Suggestion, when present, tells the
// caller what to do about it.
type PredictionResponse struct {
	Success           bool               `json:"success"`
	ModelType         ModelType          `json:"model_type,omitempty"`
	PredictionHorizon Horizon            `json:"prediction_horizon,omitempty"`
	ModelVersion      string             `json:"model_version,omitempty"`
	PredictedValues   []PredictedValue   `json:"predicted_values,omitempty"`
	ModelMetrics      *EvaluationMetrics `json:"model_metrics,omitempty"`
	GeneratedAt       string             `json:"generated_at,omitempty"`
	Error             string             `json:"error,omitempty"`
	Suggestion        string             `json:"suggestion,omitempty"`
}

// TrainingRequest asks for a new model version to be trained.
type TrainingRequest struct {
	Readings          []timeseries.Reading `json:"readings"`
	ModelType         ModelType            `json:"model_type"`
	PredictionHorizon Horizon              `json:"prediction_horizon"`
	Epochs            int                  `json:"epochs,omitempty"`
	BatchSize         int                  `json:"batch_size,omitempty"`
	Patience          int                  `json:"patience,omitempty"`
	ModelsDir         string               `json:"-"`
}

// TrainingResponse wraps a training run's outcome.
type TrainingResponse struct {
	Success bool             `json:"success"`
	Results *TrainingResults `json:"results,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// EvaluationMetrics are held-out evaluation scores in scaled space,
// except MAPE and the physical-unit per-step errors recorded alongside.
type EvaluationMetrics struct {
	ValLoss float64 `json:"val_loss"`
	ValMAE  float64 `json:"val_mae"`
	MSE     float64 `json:"mse"`
	RMSE    float64 `json:"rmse"`
	MAE     float64 `json:"mae"`
	MAPE    float64 `json:"mape"`
	R2      float64 `json:"r2"`
}

// TrainingSummary is the per-epoch history of a fit.
type TrainingSummary struct {
	EpochsTrained int       `json:"epochs_trained"`
	FinalLoss     float64   `json:"final_loss"`
	FinalValLoss  float64   `json:"final_val_loss"`
	FinalMAE      float64   `json:"final_mae"`
	FinalValMAE   float64   `json:"final_val_mae"`
	Loss          []float64 `json:"loss"`
	ValLoss       []float64 `json:"val_loss"`
	MAE           []float64 `json:"mae"`
	ValMAE        []float64 `json:"val_mae"`
}

// Hyperparameters records the settings a model was trained with.
type Hyperparameters struct {
	SequenceLength  int     `json:"sequence_length"`
	PredictionSteps int     `json:"prediction_steps"`
	Epochs          int     `json:"epochs"`
	BatchSize       int     `json:"batch_size"`
	LearningRate    float64 `json:"learning_rate"`
	Patience        int     `json:"patience"`
}

// DataInfo describes the dataset a model was trained on.
type DataInfo struct {
	TotalReadings  int    `json:"total_readings"`
	ResampledRows  int    `json:"resampled_rows"`
	TrainWindows   int    `json:"train_windows"`
	TestWindows    int    `json:"test_windows"`
	ResampleFreq   string `json:"resample_freq"`
	DataStart      string `json:"data_start,omitempty"`
	DataEnd        string `json:"data_end,omitempty"`
	FeatureColumns int    `json:"feature_columns"`
}

// TrainingResults is the full record of one training run, persisted as
// the versioned results artifact and returned from the training API.
type TrainingResults struct {
	ModelType         ModelType          `json:"model_type"`
	Version           string             `json:"version"`
	PredictionHorizon Horizon            `json:"prediction_horizon"`
	ModelPath         string             `json:"model_path"`
	Training          *TrainingSummary   `json:"training"`
	Evaluation        *EvaluationMetrics `json:"evaluation"`
	PerStepMAE        []float64          `json:"per_step_mae"`
	PerStepMAEActual  []float64          `json:"per_step_mae_actual"`
	Hyperparameters   *Hyperparameters   `json:"hyperparameters"`
	DataInfo          *DataInfo          `json:"data_info"`
	TrainedAt         string             `json:"trained_at"`
}

// ModelMetadata is the small companion record saved next to each model
// so a loaded model's shape can be checked without parsing the weights.
type ModelMetadata struct {
	ModelType         ModelType `json:"model_type"`
	SequenceLength    int       `json:"sequence_length"`
	PredictionHorizon Horizon   `json:"prediction_horizon"`
	PredictionSteps   int       `json:"prediction_steps"`
	Features          []string  `json:"features"`
	Target            string    `json:"target"`
	SavedAt           string    `json:"saved_at"`
}
