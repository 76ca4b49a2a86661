package database

import (
	"database/sql"
	"fmt"
	"log"
)

// CreateTables creates all necessary tables for the AquaNexus system
func CreateTables(db *sql.DB) error {
	log.Println("Creating database tables...")

	// Stores plant environment readings from the grow bed node
	plantReadingsTable := `
	CREATE TABLE IF NOT EXISTS plant_readings (
		id SERIAL PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		height DECIMAL(10,2) NOT NULL CHECK (height >= 0),
		temperature DECIMAL(6,2) NOT NULL,
		humidity DECIMAL(5,2) NOT NULL CHECK (humidity >= 0 AND humidity <= 100),
		pressure DECIMAL(8,2) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CONSTRAINT unique_plant_timestamp UNIQUE(timestamp)
	);`

	if _, err := db.Exec(plantReadingsTable); err != nil {
		return fmt.Errorf("failed to create plant_readings table: %w", err)
	}

	// Stores water quality readings from the fish tank node
	fishReadingsTable := `
	CREATE TABLE IF NOT EXISTS fish_readings (
		id SERIAL PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		water_temperature DECIMAL(6,2) NOT NULL,
		ec_value DECIMAL(10,2) NOT NULL CHECK (ec_value >= 0),
		tds DECIMAL(10,2) NOT NULL CHECK (tds >= 0),
		turbidity DECIMAL(10,2) NOT NULL CHECK (turbidity >= 0),
		water_ph DECIMAL(4,2) NOT NULL CHECK (water_ph >= 0 AND water_ph <= 14),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CONSTRAINT unique_fish_timestamp UNIQUE(timestamp)
	);`

	if _, err := db.Exec(fishReadingsTable); err != nil {
		return fmt.Errorf("failed to create fish_readings table: %w", err)
	}

	// Stores one row per completed training run
	mlModelsTable := `
	CREATE TABLE IF NOT EXISTS ml_models (
		id SERIAL PRIMARY KEY,
		model_type VARCHAR(50) NOT NULL,
		version VARCHAR(50) NOT NULL,
		prediction_horizon VARCHAR(20) NOT NULL,
		model_path TEXT NOT NULL,
		metrics JSONB,
		trained_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CONSTRAINT unique_model_version UNIQUE(model_type, prediction_horizon, version)
	);`

	if _, err := db.Exec(mlModelsTable); err != nil {
		return fmt.Errorf("failed to create ml_models table: %w", err)
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_plant_readings_timestamp ON plant_readings(timestamp DESC);",
		"CREATE INDEX IF NOT EXISTS idx_fish_readings_timestamp ON fish_readings(timestamp DESC);",
		"CREATE INDEX IF NOT EXISTS idx_ml_models_type ON ml_models(model_type, prediction_horizon);",
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
		}
	}

	log.Println("✅ Database tables created successfully")
	return nil
}

// DropTables drops all tables (useful for testing)
func DropTables(db *sql.DB) error {
	log.Println("Dropping database tables...")

	tables := []string{
		"plant_readings",
		"fish_readings",
		"ml_models",
	}

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	log.Println("✅ Database tables dropped successfully")
	return nil
}

// CheckTablesExist checks if all required tables exist
func CheckTablesExist(db *sql.DB) error {
	requiredTables := []string{
		"plant_readings",
		"fish_readings",
		"ml_models",
	}

	for _, table := range requiredTables {
		var exists bool
		query := `SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		);`

		err := db.QueryRow(query, table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}

		if !exists {
			return fmt.Errorf("table %s does not exist", table)
		}
	}

	return nil
}
