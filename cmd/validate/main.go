package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/AquaNexus/aquanexus_backend/internal/csvload"
	"github.com/AquaNexus/aquanexus_backend/internal/ml"
	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/timeseries"
)

// validationReport is written next to the model artifacts after an
// offline validation run
type validationReport struct {
	ModelType         models.ModelType `json:"model_type"`
	ModelVersion      string           `json:"model_version"`
	PredictionHorizon models.Horizon   `json:"prediction_horizon"`
	Windows           int              `json:"windows"`
	MAE               float64          `json:"mae"`
	RMSE              float64          `json:"rmse"`
	FilteredMAPE      float64          `json:"filtered_mape"`
	ScoredPairs       int              `json:"scored_pairs"`
	PerStepMAE        []float64        `json:"per_step_mae"`
	Quality           string           `json:"quality"`
	ValidatedAt       string           `json:"validated_at"`
}

// qualityBand turns a filtered MAPE into a coarse verdict
func qualityBand(mape float64) string {
	switch {
	case mape < 5:
		return "excellent"
	case mape < 10:
		return "good"
	case mape < 20:
		return "acceptable"
	default:
		return "poor"
	}
}

func main() {
	var (
		csvPath   = flag.String("csv", "", "Path to held-out validation CSV")
		kind      = flag.String("kind", "fish", "CSV kind: plant or fish")
		modelType = flag.String("model", "", "Model type to validate")
		horizon   = flag.String("horizon", "short", "Prediction horizon: short or medium")
		modelsDir = flag.String("models-dir", "./trained_models", "Directory with model artifacts")
	)
	flag.Parse()

	log.Println("🔍 AquaNexus Model Validation Tool")
	log.Println("==================================")

	if *csvPath == "" || *modelType == "" {
		log.Println("Usage: validate -csv <file> -model <type> [-kind plant|fish] [-horizon short|medium]")
		os.Exit(1)
	}

	var readings []timeseries.Reading
	var err error
	if *kind == "plant" {
		readings, err = csvload.LoadPlantCSV(*csvPath)
	} else {
		readings, err = csvload.LoadFishCSV(*csvPath)
	}
	if err != nil {
		log.Fatalf("❌ Failed to load CSV: %v", err)
	}
	log.Printf("📊 Loaded %d validation readings from %s", len(readings), *csvPath)

	trainer, err := ml.NewTrainer(models.ModelType(*modelType), models.Horizon(*horizon), *modelsDir)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	regressor, processor, state, version, err := trainer.LoadLatest()
	if err != nil {
		log.Fatalf("❌ Failed to load model: %v", err)
	}
	log.Printf("🤖 Loaded %s/%s model version %s", *modelType, *horizon, version)

	h := models.Horizon(*horizon)
	frame := processor.PrepareFrame(readings, "timestamp", h.ResampleInterval())
	scaled, err := processor.Transform(frame, state)
	if err != nil {
		log.Fatalf("❌ Failed to scale validation data: %v", err)
	}

	inputs, targets, err := processor.CreateTrainingWindows(scaled, processor.TargetIndex())
	if err != nil {
		log.Fatalf("❌ Failed to build validation windows: %v", err)
	}
	if len(inputs) == 0 {
		log.Fatalf("❌ Validation set too short: %d rows yield no windows", frame.Len())
	}

	predicted, err := regressor.Predict(inputs)
	if err != nil {
		log.Fatalf("❌ Prediction failed: %v", err)
	}

	// Score in physical units so the report reads in sensor terms
	predActual, err := processor.InverseTransformTargetMatrix(state, predicted)
	if err != nil {
		log.Fatalf("❌ Failed to rescale predictions: %v", err)
	}
	targetActual, err := processor.InverseTransformTargetMatrix(state, targets)
	if err != nil {
		log.Fatalf("❌ Failed to rescale targets: %v", err)
	}

	metrics := ml.Score(predActual, targetActual)
	perStep := ml.PerStepMAE(predActual, targetActual)

	var flatPred, flatActual []float64
	for i := range targetActual {
		flatPred = append(flatPred, predActual[i]...)
		flatActual = append(flatActual, targetActual[i]...)
	}
	filteredMAPE, scored := ml.FilteredMAPE(flatPred, flatActual)

	report := validationReport{
		ModelType:         models.ModelType(*modelType),
		ModelVersion:      version,
		PredictionHorizon: h,
		Windows:           len(inputs),
		MAE:               metrics.MAE,
		RMSE:              metrics.RMSE,
		FilteredMAPE:      filteredMAPE,
		ScoredPairs:       scored,
		PerStepMAE:        perStep,
		Quality:           qualityBand(filteredMAPE),
		ValidatedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	log.Printf("📈 Validation over %d windows:", report.Windows)
	log.Printf("   MAE:  %.4f", report.MAE)
	log.Printf("   RMSE: %.4f", report.RMSE)
	log.Printf("   MAPE: %.2f%% (%d pairs scored, near-zero actuals excluded)", report.FilteredMAPE, report.ScoredPairs)
	log.Printf("   Quality: %s", report.Quality)

	// Growth analysis for plant height validation sets
	if *kind == "plant" {
		growthFrame := timeseries.Normalize(readings, "timestamp", []string{"height"}, 24*time.Hour)
		if rates, ok := growthFrame.GrowthRate("height"); ok && len(rates) > 1 {
			var sum float64
			for _, r := range rates[1:] {
				sum += r
			}
			log.Printf("🌱 Mean growth rate: %.3f cm/day over %d days", sum/float64(len(rates)-1), len(rates))
		}
	}

	reportPath := filepath.Join(*modelsDir, fmt.Sprintf("%s_%s_%s_validation.json", *modelType, *horizon, version))
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("❌ Failed to encode validation report: %v", err)
	}
	if err := os.WriteFile(reportPath, data, 0o644); err != nil {
		log.Fatalf("❌ Failed to write validation report: %v", err)
	}
	log.Printf("✅ Wrote validation report to %s", reportPath)
}
