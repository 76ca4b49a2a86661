package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/AquaNexus/aquanexus_backend/internal/csvload"
	"github.com/AquaNexus/aquanexus_backend/internal/ml"
	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/timeseries"
)

func main() {
	var (
		csvPath   = flag.String("csv", "", "Path to sensor export CSV")
		kind      = flag.String("kind", "fish", "CSV kind: plant or fish")
		modelType = flag.String("model", "", "Model type to train (empty with -all trains every type for the kind)")
		horizon   = flag.String("horizon", "short", "Prediction horizon: short or medium")
		epochs    = flag.Int("epochs", 100, "Training epochs")
		batchSize = flag.Int("batch-size", 32, "Training batch size")
		patience  = flag.Int("patience", 10, "Early stopping patience in epochs")
		modelsDir = flag.String("models-dir", "./trained_models", "Directory for model artifacts")
		trainAll  = flag.Bool("all", false, "Train every model type matching the CSV kind")
	)
	flag.Parse()

	log.Println("🤖 AquaNexus Model Training Tool")
	log.Println("================================")

	if err := godotenv.Load(); err == nil {
		log.Println("✅ Loaded .env file")
	}

	if *csvPath == "" {
		log.Println("Usage: train -csv <file> [-kind plant|fish] [-model <type>] [-horizon short|medium] [-all]")
		os.Exit(1)
	}

	var readings []timeseries.Reading
	var err error
	var dataKind models.DataKind
	switch *kind {
	case "plant":
		readings, err = csvload.LoadPlantCSV(*csvPath)
		dataKind = models.DataKindPlant
	case "fish":
		readings, err = csvload.LoadFishCSV(*csvPath)
		dataKind = models.DataKindFish
	default:
		log.Fatalf("❌ Unknown kind %q, use plant or fish", *kind)
	}
	if err != nil {
		log.Fatalf("❌ Failed to load CSV: %v", err)
	}
	log.Printf("📊 Loaded %d readings from %s", len(readings), *csvPath)

	var targets []models.ModelType
	if *trainAll {
		for _, mt := range models.AllModelTypes() {
			if cfg, ok := mt.Config(); ok && cfg.Kind == dataKind {
				targets = append(targets, mt)
			}
		}
	} else {
		if *modelType == "" {
			log.Fatalln("❌ Provide -model or use -all")
		}
		targets = []models.ModelType{models.ModelType(*modelType)}
	}

	failed := 0
	for _, mt := range targets {
		response := ml.TrainModel(&models.TrainingRequest{
			Readings:          readings,
			ModelType:         mt,
			PredictionHorizon: models.Horizon(*horizon),
			Epochs:            *epochs,
			BatchSize:         *batchSize,
			Patience:          *patience,
			ModelsDir:         *modelsDir,
		})
		if !response.Success {
			log.Printf("❌ Training %s failed: %s", mt, response.Error)
			failed++
			continue
		}
		results := response.Results
		log.Printf("✅ Trained %s version %s: MAE=%.4f, RMSE=%.4f, R2=%.4f",
			mt, results.Version, results.Evaluation.MAE, results.Evaluation.RMSE, results.Evaluation.R2)
	}

	if failed > 0 {
		os.Exit(1)
	}
	log.Println("🎉 Training completed successfully!")
}
