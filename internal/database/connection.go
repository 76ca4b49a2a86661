package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"github.com/AquaNexus/aquanexus_backend/config"
)

// DB wraps the SQL connection pool.
type DB struct {
	*sql.DB
}

// Connect opens and verifies a PostgreSQL connection using the
// configured DSN.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	log.Println("✅ Connected to PostgreSQL database")
	return &DB{db}, nil
}

// Close closes the underlying pool.
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}
