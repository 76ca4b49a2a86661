package store

import (
	"sort"
	"sync"
	"time"

	"github.com/AquaNexus/aquanexus_backend/internal/models"
)

// Store manages sensor data and training history in memory
type Store struct {
	mu            sync.RWMutex
	plantReadings []models.PlantReading
	fishReadings  []models.FishReading
	latestPlant   *models.PlantReading
	latestFish    *models.FishReading
	trainingRuns  []models.TrainingResults
	maxReadings   int
}

// NewStore creates a new in-memory store
func NewStore(maxReadings int) *Store {
	if maxReadings <= 0 {
		maxReadings = 10000 // Enough history for medium-term training
	}

	return &Store{
		plantReadings: make([]models.PlantReading, 0, maxReadings),
		fishReadings:  make([]models.FishReading, 0, maxReadings),
		maxReadings:   maxReadings,
	}
}

// Ping always succeeds for the in-memory store
func (s *Store) Ping() error {
	return nil
}

// AddPlantReading stores a new plant environment reading
func (s *Store) AddPlantReading(reading models.PlantReading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plantReadings = append(s.plantReadings, reading)

	// Maintain maximum size by removing oldest entries
	if len(s.plantReadings) > s.maxReadings {
		s.plantReadings = s.plantReadings[1:]
	}

	readingCopy := reading
	s.latestPlant = &readingCopy
}

// AddFishReading stores a new fish tank water quality reading
func (s *Store) AddFishReading(reading models.FishReading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fishReadings = append(s.fishReadings, reading)

	if len(s.fishReadings) > s.maxReadings {
		s.fishReadings = s.fishReadings[1:]
	}

	readingCopy := reading
	s.latestFish = &readingCopy
}

// GetLatestPlantReading returns the most recent plant reading
func (s *Store) GetLatestPlantReading() (*models.PlantReading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latestPlant == nil {
		return nil, false
	}

	// Return a copy to avoid race conditions
	reading := *s.latestPlant
	return &reading, true
}

// GetLatestFishReading returns the most recent fish reading
func (s *Store) GetLatestFishReading() (*models.FishReading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latestFish == nil {
		return nil, false
	}

	reading := *s.latestFish
	return &reading, true
}

// GetRecentPlantReadings returns the most recent N plant readings in
// chronological order. A non-positive limit returns everything.
func (s *Store) GetRecentPlantReadings(limit int) []models.PlantReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := make([]models.PlantReading, len(s.plantReadings))
	copy(readings, s.plantReadings)

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})

	if limit > 0 && len(readings) > limit {
		readings = readings[len(readings)-limit:]
	}

	return readings
}

// GetRecentFishReadings returns the most recent N fish readings in
// chronological order. A non-positive limit returns everything.
func (s *Store) GetRecentFishReadings(limit int) []models.FishReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := make([]models.FishReading, len(s.fishReadings))
	copy(readings, s.fishReadings)

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})

	if limit > 0 && len(readings) > limit {
		readings = readings[len(readings)-limit:]
	}

	return readings
}

// GetPlantReadingsInRange returns plant readings within a time range
func (s *Store) GetPlantReadingsInRange(start, end time.Time) []models.PlantReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.PlantReading
	for _, reading := range s.plantReadings {
		if reading.Timestamp.After(start) && reading.Timestamp.Before(end) {
			result = append(result, reading)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result
}

// GetFishReadingsInRange returns fish readings within a time range
func (s *Store) GetFishReadingsInRange(start, end time.Time) []models.FishReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.FishReading
	for _, reading := range s.fishReadings {
		if reading.Timestamp.After(start) && reading.Timestamp.Before(end) {
			result = append(result, reading)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result
}

// GetPlantReadingCount returns the number of stored plant readings
func (s *Store) GetPlantReadingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.plantReadings)
}

// GetFishReadingCount returns the number of stored fish readings
func (s *Store) GetFishReadingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.fishReadings)
}

// RecordTraining appends a training run to the history
func (s *Store) RecordTraining(results *models.TrainingResults) error {
	if results == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.trainingRuns = append(s.trainingRuns, *results)
	return nil
}

// GetTrainingRecords returns training runs, newest first, optionally
// filtered by model type
func (s *Store) GetTrainingRecords(modelType models.ModelType, limit int) ([]models.TrainingResults, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.TrainingResults
	for _, run := range s.trainingRuns {
		if modelType != "" && run.ModelType != modelType {
			continue
		}
		result = append(result, run)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TrainedAt > result[j].TrainedAt
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}
