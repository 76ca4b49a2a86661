package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/AquaNexus/aquanexus_backend/config"
	"github.com/AquaNexus/aquanexus_backend/internal/database"
)

func main() {
	var (
		drop   = flag.Bool("drop", false, "Drop all tables before creating")
		create = flag.Bool("create", true, "Create tables")
		check  = flag.Bool("check", false, "Check if tables exist")
	)
	flag.Parse()

	log.Println("🏗️ AquaNexus Schema Migration")
	log.Println("=============================")

	if err := godotenv.Load(); err == nil {
		log.Println("✅ Loaded .env file")
	}

	cfg := config.Load()
	if cfg.Database.URL == "" && cfg.Database.Password == "" {
		log.Fatalln("❌ No database configured. Set DATABASE_URL or the DB_* variables.")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if *drop {
		log.Println("🗑️ Dropping existing tables...")
		if err := database.DropTables(db.DB); err != nil {
			log.Fatalf("❌ Failed to drop tables: %v", err)
		}
	}

	if *create {
		log.Println("🏗️ Creating database tables...")
		if err := database.CreateTables(db.DB); err != nil {
			log.Fatalf("❌ Failed to create tables: %v", err)
		}
	}

	if *check {
		if err := database.CheckTablesExist(db.DB); err != nil {
			log.Fatalf("❌ Table check failed: %v", err)
		}
		log.Println("🔍 All tables present")
	}

	log.Println("🎉 Migration complete")
}
