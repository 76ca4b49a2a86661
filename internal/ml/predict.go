package ml

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/timeseries"
)

const minTrainingReadings = 100

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Predict loads the latest trained model for the requested type and
// horizon and forecasts from the caller's recent readings. Failures
// come back as an unsuccessful response with an error message and,
// where it helps, a suggestion.
func Predict(req *models.PredictionRequest) *models.PredictionResponse {
	modelType := req.ModelType
	if modelType == "" {
		modelType = models.ModelHeight
	}
	horizon := req.PredictionHorizon
	if horizon == "" {
		horizon = models.HorizonShort
	}

	fail := func(err string, suggestion string) *models.PredictionResponse {
		return &models.PredictionResponse{
			Success:           false,
			ModelType:         modelType,
			PredictionHorizon: horizon,
			Error:             err,
			Suggestion:        suggestion,
		}
	}

	trainer, err := NewTrainer(modelType, horizon, req.ModelsDir)
	if err != nil {
		return fail(fmt.Sprintf("Unknown model type: %s", modelType), "")
	}

	regressor, processor, state, version, err := trainer.LoadLatest()
	if err != nil {
		if errors.Is(err, ErrModelNotFound) {
			return fail(
				fmt.Sprintf("No trained model found for %s (%s-term)", modelType, horizon),
				"Please train the model first using the training endpoint.",
			)
		}
		return fail(fmt.Sprintf("Failed to load model: %v", err), "")
	}

	frame := processor.PrepareFrame(req.Readings, "timestamp", horizon.ResampleInterval())
	if frame.Len() < processor.SequenceLength {
		return fail(
			fmt.Sprintf("Not enough data. Need %d points, got %d", processor.SequenceLength, frame.Len()),
			"",
		)
	}

	scaled, err := processor.Transform(frame, state)
	if err != nil {
		return fail(fmt.Sprintf("Failed to scale input data: %v", err), "")
	}
	window, err := processor.CreateInferenceWindow(scaled)
	if err != nil {
		return fail(fmt.Sprintf("Failed to build input window: %v", err), "")
	}

	predicted, err := regressor.Predict([][][]float64{window})
	if err != nil {
		return fail(fmt.Sprintf("Prediction failed: %v", err), "")
	}
	values, err := processor.InverseTransformTarget(state, predicted[0])
	if err != nil {
		return fail(fmt.Sprintf("Failed to rescale prediction: %v", err), "")
	}

	lastTime, _ := frame.LastTime()
	timestamps := timeseries.FutureTimestamps(lastTime, processor.PredictionSteps, horizon.StepInterval())
	confidences := Confidence(window, processor.PredictionSteps)

	predictedValues := make([]models.PredictedValue, len(values))
	for i, v := range values {
		predictedValues[i] = models.PredictedValue{
			Timestamp:  timestamps[i],
			Value:      round(v, 2),
			Confidence: round(confidences[i], 3),
		}
	}

	var metrics *models.EvaluationMetrics
	if info := trainer.LatestInfo(); info != nil {
		metrics = info.Evaluation
	}

	return &models.PredictionResponse{
		Success:           true,
		ModelType:         modelType,
		PredictionHorizon: horizon,
		ModelVersion:      version,
		PredictedValues:   predictedValues,
		ModelMetrics:      metrics,
		GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
	}
}

// TrainModel validates a training request and runs the trainer.
func TrainModel(req *models.TrainingRequest) *models.TrainingResponse {
	if len(req.Readings) == 0 {
		return &models.TrainingResponse{Success: false, Error: "No readings provided for training"}
	}
	if len(req.Readings) < minTrainingReadings {
		return &models.TrainingResponse{
			Success: false,
			Error:   fmt.Sprintf("Not enough training data. Got %d readings, need at least %d.", len(req.Readings), minTrainingReadings),
		}
	}

	modelType := req.ModelType
	if modelType == "" {
		modelType = models.ModelHeight
	}
	horizon := req.PredictionHorizon
	if horizon == "" {
		horizon = models.HorizonShort
	}

	trainer, err := NewTrainer(modelType, horizon, req.ModelsDir)
	if err != nil {
		return &models.TrainingResponse{Success: false, Error: fmt.Sprintf("Unknown model type: %s", modelType)}
	}

	results, err := trainer.Train(req.Readings, FitOptions{
		Epochs:    req.Epochs,
		BatchSize: req.BatchSize,
		Patience:  req.Patience,
	})
	if err != nil {
		return &models.TrainingResponse{Success: false, Error: err.Error()}
	}
	return &models.TrainingResponse{Success: true, Results: results}
}
