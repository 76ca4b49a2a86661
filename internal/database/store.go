package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/AquaNexus/aquanexus_backend/internal/models"
)

// DatabaseStore implements store.DataStore backed by PostgreSQL
type DatabaseStore struct {
	db *DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Ping checks database connectivity
func (s *DatabaseStore) Ping() error {
	return s.db.Ping()
}

// AddPlantReading stores a new plant environment reading
func (s *DatabaseStore) AddPlantReading(reading models.PlantReading) {
	query := `
	INSERT INTO plant_readings (timestamp, height, temperature, humidity, pressure)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (timestamp) DO UPDATE SET
		height = EXCLUDED.height,
		temperature = EXCLUDED.temperature,
		humidity = EXCLUDED.humidity,
		pressure = EXCLUDED.pressure;`

	if _, err := s.db.Exec(query, reading.Timestamp, reading.Height, reading.Temperature, reading.Humidity, reading.Pressure); err != nil {
		log.Printf("Error saving plant reading: %v", err)
	}
}

// AddFishReading stores a new fish tank reading
func (s *DatabaseStore) AddFishReading(reading models.FishReading) {
	query := `
	INSERT INTO fish_readings (timestamp, water_temperature, ec_value, tds, turbidity, water_ph)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (timestamp) DO UPDATE SET
		water_temperature = EXCLUDED.water_temperature,
		ec_value = EXCLUDED.ec_value,
		tds = EXCLUDED.tds,
		turbidity = EXCLUDED.turbidity,
		water_ph = EXCLUDED.water_ph;`

	if _, err := s.db.Exec(query, reading.Timestamp, reading.WaterTemperature, reading.ECValue, reading.TDS, reading.Turbidity, reading.WaterPh); err != nil {
		log.Printf("Error saving fish reading: %v", err)
	}
}

func scanPlantRows(rows *sql.Rows) []models.PlantReading {
	var readings []models.PlantReading
	for rows.Next() {
		var r models.PlantReading
		if err := rows.Scan(&r.Timestamp, &r.Height, &r.Temperature, &r.Humidity, &r.Pressure); err != nil {
			log.Printf("Error scanning plant reading: %v", err)
			continue
		}
		readings = append(readings, r)
	}
	return readings
}

func scanFishRows(rows *sql.Rows) []models.FishReading {
	var readings []models.FishReading
	for rows.Next() {
		var r models.FishReading
		if err := rows.Scan(&r.Timestamp, &r.WaterTemperature, &r.ECValue, &r.TDS, &r.Turbidity, &r.WaterPh); err != nil {
			log.Printf("Error scanning fish reading: %v", err)
			continue
		}
		readings = append(readings, r)
	}
	return readings
}

// GetLatestPlantReading returns the most recent plant reading
func (s *DatabaseStore) GetLatestPlantReading() (*models.PlantReading, bool) {
	query := `
	SELECT timestamp, height, temperature, humidity, pressure
	FROM plant_readings
	ORDER BY timestamp DESC
	LIMIT 1;`

	var r models.PlantReading
	err := s.db.QueryRow(query).Scan(&r.Timestamp, &r.Height, &r.Temperature, &r.Humidity, &r.Pressure)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("Error fetching latest plant reading: %v", err)
		}
		return nil, false
	}
	return &r, true
}

// GetLatestFishReading returns the most recent fish reading
func (s *DatabaseStore) GetLatestFishReading() (*models.FishReading, bool) {
	query := `
	SELECT timestamp, water_temperature, ec_value, tds, turbidity, water_ph
	FROM fish_readings
	ORDER BY timestamp DESC
	LIMIT 1;`

	var r models.FishReading
	err := s.db.QueryRow(query).Scan(&r.Timestamp, &r.WaterTemperature, &r.ECValue, &r.TDS, &r.Turbidity, &r.WaterPh)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("Error fetching latest fish reading: %v", err)
		}
		return nil, false
	}
	return &r, true
}

// GetRecentPlantReadings returns the most recent N plant readings in
// chronological order. A non-positive limit returns everything.
func (s *DatabaseStore) GetRecentPlantReadings(limit int) []models.PlantReading {
	query := `
	SELECT timestamp, height, temperature, humidity, pressure
	FROM (
		SELECT timestamp, height, temperature, humidity, pressure
		FROM plant_readings
		ORDER BY timestamp DESC
		LIMIT CASE WHEN $1 > 0 THEN $1 ELSE NULL END
	) recent
	ORDER BY timestamp ASC;`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		log.Printf("Error fetching recent plant readings: %v", err)
		return nil
	}
	defer rows.Close()

	return scanPlantRows(rows)
}

// GetRecentFishReadings returns the most recent N fish readings in
// chronological order. A non-positive limit returns everything.
func (s *DatabaseStore) GetRecentFishReadings(limit int) []models.FishReading {
	query := `
	SELECT timestamp, water_temperature, ec_value, tds, turbidity, water_ph
	FROM (
		SELECT timestamp, water_temperature, ec_value, tds, turbidity, water_ph
		FROM fish_readings
		ORDER BY timestamp DESC
		LIMIT CASE WHEN $1 > 0 THEN $1 ELSE NULL END
	) recent
	ORDER BY timestamp ASC;`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		log.Printf("Error fetching recent fish readings: %v", err)
		return nil
	}
	defer rows.Close()

	return scanFishRows(rows)
}

// GetPlantReadingsInRange returns plant readings within a time range
func (s *DatabaseStore) GetPlantReadingsInRange(start, end time.Time) []models.PlantReading {
	query := `
	SELECT timestamp, height, temperature, humidity, pressure
	FROM plant_readings
	WHERE timestamp > $1 AND timestamp < $2
	ORDER BY timestamp ASC;`

	rows, err := s.db.Query(query, start, end)
	if err != nil {
		log.Printf("Error fetching plant readings in range: %v", err)
		return nil
	}
	defer rows.Close()

	return scanPlantRows(rows)
}

// GetFishReadingsInRange returns fish readings within a time range
func (s *DatabaseStore) GetFishReadingsInRange(start, end time.Time) []models.FishReading {
	query := `
	SELECT timestamp, water_temperature, ec_value, tds, turbidity, water_ph
	FROM fish_readings
	WHERE timestamp > $1 AND timestamp < $2
	ORDER BY timestamp ASC;`

	rows, err := s.db.Query(query, start, end)
	if err != nil {
		log.Printf("Error fetching fish readings in range: %v", err)
		return nil
	}
	defer rows.Close()

	return scanFishRows(rows)
}

// GetPlantReadingCount returns the number of stored plant readings
func (s *DatabaseStore) GetPlantReadingCount() int {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM plant_readings;").Scan(&count); err != nil {
		log.Printf("Error counting plant readings: %v", err)
		return 0
	}
	return count
}

// GetFishReadingCount returns the number of stored fish readings
func (s *DatabaseStore) GetFishReadingCount() int {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM fish_readings;").Scan(&count); err != nil {
		log.Printf("Error counting fish readings: %v", err)
		return 0
	}
	return count
}

// RecordTraining stores a training run in the ml_models table
func (s *DatabaseStore) RecordTraining(results *models.TrainingResults) error {
	if results == nil {
		return nil
	}

	metrics, err := json.Marshal(results.Evaluation)
	if err != nil {
		return fmt.Errorf("failed to encode training metrics: %w", err)
	}

	trainedAt, err := time.Parse(time.RFC3339, results.TrainedAt)
	if err != nil {
		trainedAt = time.Now()
	}

	query := `
	INSERT INTO ml_models (model_type, version, prediction_horizon, model_path, metrics, trained_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (model_type, prediction_horizon, version) DO UPDATE SET
		model_path = EXCLUDED.model_path,
		metrics = EXCLUDED.metrics;`

	if _, err := s.db.Exec(query, string(results.ModelType), results.Version, string(results.PredictionHorizon), results.ModelPath, metrics, trainedAt); err != nil {
		return fmt.Errorf("failed to record training run: %w", err)
	}
	return nil
}

// GetTrainingRecords returns training runs, newest first, optionally
// filtered by model type
func (s *DatabaseStore) GetTrainingRecords(modelType models.ModelType, limit int) ([]models.TrainingResults, error) {
	query := `
	SELECT model_type, version, prediction_horizon, model_path, metrics, trained_at
	FROM ml_models
	WHERE ($1 = '' OR model_type = $1)
	ORDER BY trained_at DESC
	LIMIT CASE WHEN $2 > 0 THEN $2 ELSE NULL END;`

	rows, err := s.db.Query(query, string(modelType), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training records: %w", err)
	}
	defer rows.Close()

	var records []models.TrainingResults
	for rows.Next() {
		var record models.TrainingResults
		var metrics []byte
		var trainedAt time.Time
		if err := rows.Scan(&record.ModelType, &record.Version, &record.PredictionHorizon, &record.ModelPath, &metrics, &trainedAt); err != nil {
			log.Printf("Error scanning training record: %v", err)
			continue
		}
		if len(metrics) > 0 {
			var evaluation models.EvaluationMetrics
			if err := json.Unmarshal(metrics, &evaluation); err == nil {
				record.Evaluation = &evaluation
			}
		}
		record.TrainedAt = trainedAt.UTC().Format(time.RFC3339)
		records = append(records, record)
	}
	return records, nil
}
