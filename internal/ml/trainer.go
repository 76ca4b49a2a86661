package ml

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/timeseries"
)

const (
	minTrainingWindows = 10
	testFraction       = 0.2
	versionLayout      = "20060102_150405"
)

// Trainer owns the training and artifact lifecycle for one model type
// and horizon. Artifacts are versioned by training timestamp; the
// newest version wins at load time.
type Trainer struct {
	ModelType models.ModelType
	Horizon   models.Horizon
	ModelsDir string

	config    models.ModelConfig
	processor *timeseries.Processor
}

// NewTrainer validates the model type and prepares the artifact
// directory.
func NewTrainer(modelType models.ModelType, horizon models.Horizon, modelsDir string) (*Trainer, error) {
	cfg, ok := modelType.Config()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelType, modelType)
	}
	if !horizon.Valid() {
		horizon = models.HorizonShort
	}
	if modelsDir == "" {
		modelsDir = "./trained_models"
	}
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create models directory: %w", err)
	}

	processor := timeseries.NewProcessor(
		horizon.SequenceLength(cfg),
		horizon.PredictionSteps(),
		cfg.Features,
		cfg.Target,
	)
	return &Trainer{
		ModelType: modelType,
		Horizon:   horizon,
		ModelsDir: modelsDir,
		config:    cfg,
		processor: processor,
	}, nil
}

// Processor exposes the pipeline configuration used by this trainer.
func (t *Trainer) Processor() *timeseries.Processor {
	return t.processor
}

func (t *Trainer) prefix(version string) string {
	return fmt.Sprintf("%s_%s_%s", t.ModelType, t.Horizon, version)
}

func (t *Trainer) artifactPath(version, suffix string) string {
	return filepath.Join(t.ModelsDir, t.prefix(version)+suffix)
}

// Train runs the full pipeline on raw readings and persists a new
// versioned set of artifacts. The held-out suffix of the windows is
// never seen during fitting and supplies the evaluation metrics.
func (t *Trainer) Train(readings []timeseries.Reading, opts FitOptions) (*models.TrainingResults, error) {
	frame := t.processor.PrepareFrame(readings, "timestamp", t.Horizon.ResampleInterval())

	state, scaled, err := t.processor.FitTransform(frame)
	if err != nil {
		return nil, err
	}

	inputs, targets, err := t.processor.CreateTrainingWindows(scaled, t.processor.TargetIndex())
	if err != nil {
		return nil, err
	}

	trainX, testX, trainY, testY := timeseries.SplitWindows(inputs, targets, testFraction)
	if len(trainX) < minTrainingWindows {
		return nil, fmt.Errorf("%w: need at least %d training windows, got %d", timeseries.ErrInsufficientData, minTrainingWindows, len(trainX))
	}

	version := time.Now().Format(versionLayout)
	modelPath := t.artifactPath(version, ".model")

	log.Printf("🤖 Training %s/%s model version %s (%d train, %d test windows)",
		t.ModelType, t.Horizon, version, len(trainX), len(testX))

	regressor := NewLinearRegressor()
	opts = opts.withDefaults()
	opts.CheckpointPath = modelPath
	summary, err := regressor.Fit(trainX, trainY, opts)
	if err != nil {
		return nil, err
	}

	evaluation := &models.EvaluationMetrics{
		ValLoss: summary.FinalValLoss,
		ValMAE:  summary.FinalValMAE,
	}
	var perStepMAE, perStepMAEActual []float64
	if len(testX) > 0 {
		predicted, err := regressor.Predict(testX)
		if err != nil {
			return nil, err
		}
		evaluation = Score(predicted, testY)
		evaluation.ValLoss = summary.FinalValLoss
		evaluation.ValMAE = summary.FinalValMAE
		perStepMAE = PerStepMAE(predicted, testY)

		predActual, err := t.processor.InverseTransformTargetMatrix(state, predicted)
		if err != nil {
			return nil, err
		}
		testActual, err := t.processor.InverseTransformTargetMatrix(state, testY)
		if err != nil {
			return nil, err
		}
		perStepMAEActual = PerStepMAE(predActual, testActual)
	}

	if err := regressor.Save(modelPath); err != nil {
		return nil, err
	}
	if err := t.processor.SaveParams(t.artifactPath(version, "_processor.json"), state); err != nil {
		return nil, err
	}

	metadata := &models.ModelMetadata{
		ModelType:         t.ModelType,
		SequenceLength:    t.processor.SequenceLength,
		PredictionHorizon: t.Horizon,
		PredictionSteps:   t.processor.PredictionSteps,
		Features:          t.processor.FeatureColumns,
		Target:            t.processor.TargetColumn,
		SavedAt:           time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeJSONAtomic(t.artifactPath(version, "_metadata.json"), metadata); err != nil {
		return nil, err
	}

	dataInfo := &models.DataInfo{
		TotalReadings:  len(readings),
		ResampledRows:  frame.Len(),
		TrainWindows:   len(trainX),
		TestWindows:    len(testX),
		ResampleFreq:   t.Horizon.ResampleInterval().String(),
		FeatureColumns: len(t.processor.FeatureColumns),
	}
	if frame.Len() > 0 {
		dataInfo.DataStart = frame.Times[0].Format(time.RFC3339)
		dataInfo.DataEnd = frame.Times[frame.Len()-1].Format(time.RFC3339)
	}

	results := &models.TrainingResults{
		ModelType:         t.ModelType,
		Version:           version,
		PredictionHorizon: t.Horizon,
		ModelPath:         modelPath,
		Training:          summary,
		Evaluation:        evaluation,
		PerStepMAE:        perStepMAE,
		PerStepMAEActual:  perStepMAEActual,
		Hyperparameters: &models.Hyperparameters{
			SequenceLength:  t.processor.SequenceLength,
			PredictionSteps: t.processor.PredictionSteps,
			Epochs:          opts.Epochs,
			BatchSize:       opts.BatchSize,
			LearningRate:    regressor.LearningRate,
			Patience:        opts.Patience,
		},
		DataInfo:  dataInfo,
		TrainedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeJSONAtomic(t.artifactPath(version, "_results.json"), results); err != nil {
		return nil, err
	}

	log.Printf("✅ Trained %s/%s %s: %d epochs, val_mae=%.4f, r2=%.4f",
		t.ModelType, t.Horizon, version, summary.EpochsTrained, summary.FinalValMAE, evaluation.R2)
	return results, nil
}

// latestVersion finds the newest artifact with the given suffix for
// this trainer's type and horizon. Versions are timestamps formatted so
// lexicographic order matches chronological order.
func (t *Trainer) latestVersion(suffix string) (string, error) {
	entries, err := os.ReadDir(t.ModelsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: no %s/%s model in %s", ErrModelNotFound, t.ModelType, t.Horizon, t.ModelsDir)
		}
		return "", fmt.Errorf("failed to list models directory: %w", err)
	}

	prefix := fmt.Sprintf("%s_%s_", t.ModelType, t.Horizon)
	var versions []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			versions = append(versions, strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix))
		}
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("%w: no %s/%s model in %s", ErrModelNotFound, t.ModelType, t.Horizon, t.ModelsDir)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions[0], nil
}

// LoadLatest restores the newest saved model and its processor. The
// returned processor and scaler state are the ones persisted at
// training time, so inference scaling matches training exactly.
func (t *Trainer) LoadLatest() (Regressor, *timeseries.Processor, *timeseries.ScalerState, string, error) {
	version, err := t.latestVersion(".model")
	if err != nil {
		return nil, nil, nil, "", err
	}

	regressor := NewLinearRegressor()
	if err := regressor.Load(t.artifactPath(version, ".model")); err != nil {
		return nil, nil, nil, "", err
	}
	processor, state, err := timeseries.LoadParams(t.artifactPath(version, "_processor.json"))
	if err != nil {
		return nil, nil, nil, "", err
	}
	return regressor, processor, state, version, nil
}

// LatestInfo returns the newest training results record, or nil when no
// model or record exists. Absence is informational here, never an
// error.
func (t *Trainer) LatestInfo() *models.TrainingResults {
	version, err := t.latestVersion("_results.json")
	if err != nil {
		return nil
	}
	data, err := os.ReadFile(t.artifactPath(version, "_results.json"))
	if err != nil {
		log.Printf("⚠️ Failed to read training results for %s/%s %s: %v", t.ModelType, t.Horizon, version, err)
		return nil
	}
	var results models.TrainingResults
	if err := json.Unmarshal(data, &results); err != nil {
		log.Printf("⚠️ Malformed training results for %s/%s %s: %v", t.ModelType, t.Horizon, version, err)
		return nil
	}
	return &results
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
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
