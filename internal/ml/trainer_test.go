package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/timeseries"
)

// syntheticPlantReadings generates hourly readings with steadily
// growing height and mildly varying environment
func syntheticPlantReadings(count int) []timeseries.Reading {
	readings := make([]timeseries.Reading, count)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		readings[i] = timeseries.Reading{
			"timestamp":   start.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			"height":      10.0 + 0.05*float64(i),
			"temperature": 24.0 + float64(i%12)*0.1,
			"humidity":    60.0 + float64(i%6),
			"pressure":    1013.0 + float64(i%4)*0.5,
		}
	}
	return readings
}

func TestNewTrainer_UnknownModelType(t *testing.T) {
	_, err := NewTrainer("thermocline", models.HorizonShort, t.TempDir())
	if !errors.Is(err, ErrUnknownModelType) {
		t.Errorf("Expected ErrUnknownModelType, got %v", err)
	}
}

func TestTrainer_LoadLatest_NoModel(t *testing.T) {
	trainer, err := NewTrainer(models.ModelHeight, models.HorizonShort, t.TempDir())
	if err != nil {
		t.Fatalf("NewTrainer failed: %v", err)
	}

	_, _, _, _, err = trainer.LoadLatest()
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound, got %v", err)
	}
}

func TestTrainer_LatestInfo_NoModel(t *testing.T) {
	trainer, err := NewTrainer(models.ModelHeight, models.HorizonShort, t.TempDir())
	if err != nil {
		t.Fatalf("NewTrainer failed: %v", err)
	}

	if info := trainer.LatestInfo(); info != nil {
		t.Errorf("Expected nil info when no model exists, got %+v", info)
	}
}

func TestTrainer_VersionOrdering(t *testing.T) {
	dir := t.TempDir()
	trainer, err := NewTrainer(models.ModelHeight, models.HorizonShort, dir)
	if err != nil {
		t.Fatalf("NewTrainer failed: %v", err)
	}

	// Timestamp versions sort lexicographically in chronological order
	versions := []string{"20240101_000000", "20240102_120000", "20240101_235959"}
	for _, v := range versions {
		path := filepath.Join(dir, fmt.Sprintf("height_short_%s.model", v))
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}
	}
	// A different model type must not interfere
	other := filepath.Join(dir, "fish_temp_short_20250101_000000.model")
	if err := os.WriteFile(other, []byte("{}"), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	latest, err := trainer.latestVersion(".model")
	if err != nil {
		t.Fatalf("latestVersion failed: %v", err)
	}
	if latest != "20240102_120000" {
		t.Errorf("Expected newest version 20240102_120000, got %s", latest)
	}
}

func TestTrainer_InsufficientWindows(t *testing.T) {
	trainer, err := NewTrainer(models.ModelHeight, models.HorizonShort, t.TempDir())
	if err != nil {
		t.Fatalf("NewTrainer failed: %v", err)
	}

	// 55 hourly readings resample to too few rows for 10 train windows
	_, err = trainer.Train(syntheticPlantReadings(55), FitOptions{Epochs: 5})
	if !errors.Is(err, timeseries.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestTrainer_RecordsEffectiveHyperparameters(t *testing.T) {
	trainer, err := NewTrainer(models.ModelHeight, models.HorizonShort, t.TempDir())
	if err != nil {
		t.Fatalf("NewTrainer failed: %v", err)
	}

	// Unset options fall back to the fit defaults; the results record
	// must report what the run actually used, not the zero values
	results, err := trainer.Train(syntheticPlantReadings(240), FitOptions{Epochs: 5})
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	hp := results.Hyperparameters
	if hp == nil {
		t.Fatal("Expected hyperparameters in the results record")
	}
	if hp.Epochs != 5 {
		t.Errorf("Expected epochs 5, got %d", hp.Epochs)
	}
	if hp.BatchSize != 32 {
		t.Errorf("Expected defaulted batch size 32, got %d", hp.BatchSize)
	}
	if hp.Patience != 10 {
		t.Errorf("Expected defaulted patience 10, got %d", hp.Patience)
	}

	results, err = trainer.Train(syntheticPlantReadings(240), FitOptions{Epochs: 5, BatchSize: 16, Patience: 3})
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if results.Hyperparameters.Patience != 3 {
		t.Errorf("Expected patience 3, got %d", results.Hyperparameters.Patience)
	}
}

func TestTrainer_TrainAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	trainer, err := NewTrainer(models.ModelHeight, models.HorizonShort, dir)
	if err != nil {
		t.Fatalf("NewTrainer failed: %v", err)
	}

	readings := syntheticPlantReadings(240)
	results, err := trainer.Train(readings, FitOptions{Epochs: 30, BatchSize: 16})
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if results.ModelType != models.ModelHeight || results.PredictionHorizon != models.HorizonShort {
		t.Errorf("Results carry wrong identity: %+v", results)
	}
	if results.Version == "" {
		t.Error("Expected a version stamp")
	}
	if results.Training == nil || results.Training.EpochsTrained == 0 {
		t.Error("Expected training history")
	}
	if results.Evaluation == nil {
		t.Fatal("Expected evaluation metrics")
	}
	if len(results.PerStepMAE) != 24 || len(results.PerStepMAEActual) != 24 {
		t.Errorf("Expected 24 per-step errors, got %d scaled / %d actual",
			len(results.PerStepMAE), len(results.PerStepMAEActual))
	}

	// The full artifact set exists under the versioned prefix
	prefix := fmt.Sprintf("height_short_%s", results.Version)
	for _, suffix := range []string{".model", "_processor.json", "_metadata.json", "_results.json"} {
		path := filepath.Join(dir, prefix+suffix)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Missing artifact %s: %v", prefix+suffix, err)
		}
	}

	// The saved model loads back with a matching processor
	regressor, processor, state, version, err := trainer.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if version != results.Version {
		t.Errorf("Expected version %s, got %s", results.Version, version)
	}
	if processor.SequenceLength != 24 || processor.PredictionSteps != 24 {
		t.Errorf("Processor configuration not restored: %+v", processor)
	}
	if state == nil {
		t.Fatal("Expected scaler state from a trained model")
	}
	if regressor == nil {
		t.Fatal("Expected a loaded regressor")
	}

	// LatestInfo surfaces the persisted results record
	info := trainer.LatestInfo()
	if info == nil {
		t.Fatal("Expected training info after training")
	}
	if info.Version != results.Version {
		t.Errorf("Info version %s does not match trained %s", info.Version, results.Version)
	}
}
