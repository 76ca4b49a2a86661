package store

import (
	"time"

	"github.com/AquaNexus/aquanexus_backend/internal/models"
)

// DataStore defines the interface for data storage operations
type DataStore interface {
	// Health check
	Ping() error

	AddPlantReading(models.PlantReading)
	AddFishReading(models.FishReading)
	GetLatestPlantReading() (*models.PlantReading, bool)
	GetLatestFishReading() (*models.FishReading, bool)
	GetRecentPlantReadings(limit int) []models.PlantReading
	GetRecentFishReadings(limit int) []models.FishReading
	GetPlantReadingsInRange(start, end time.Time) []models.PlantReading
	GetFishReadingsInRange(start, end time.Time) []models.FishReading
	GetPlantReadingCount() int
	GetFishReadingCount() int

	// Training run history
	RecordTraining(*models.TrainingResults) error
	GetTrainingRecords(modelType models.ModelType, limit int) ([]models.TrainingResults, error)
}
