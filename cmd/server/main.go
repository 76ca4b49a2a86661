package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AquaNexus/aquanexus_backend/config"
	"github.com/AquaNexus/aquanexus_backend/internal/database"
	httphandlers "github.com/AquaNexus/aquanexus_backend/internal/http"
	"github.com/AquaNexus/aquanexus_backend/internal/ml"
	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/mqtt"
	"github.com/AquaNexus/aquanexus_backend/internal/store"
	"github.com/AquaNexus/aquanexus_backend/internal/ws"
)

func main() {
	log.Println("🌊 Starting AquaNexus Aquaponics Forecasting Backend...")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found: %v", err)
	} else {
		log.Println("✅ Loaded .env file")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Loaded configuration: Server port=%s, DB host=%s",
		cfg.Server.Port, cfg.Database.Host)

	// Initialize data store with PostgreSQL or fallback to in-memory
	var dataStore store.DataStore

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Printf("⚠️  Warning: Failed to connect to database: %v", err)
		log.Println("📱 Falling back to in-memory storage")
		dataStore = store.NewStore(0)
		log.Println("💾 Initialized in-memory data store")
	} else {
		log.Println("✅ Connected to PostgreSQL database")

		if err := database.CreateTables(db.DB); err != nil {
			log.Fatalf("❌ Failed to create tables: %v", err)
		}

		dataStore = database.NewDatabaseStore(db)
		log.Println("💾 Initialized PostgreSQL data store")
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	go wsHub.Run()
	log.Println("🔌 Started WebSocket hub")

	// Initialize MQTT client (skip if no broker URL configured)
	var mqttClient *mqtt.Client
	if cfg.MQTT.BrokerURL != "" {
		mqttClient = mqtt.NewClient(cfg.MQTT)
		mqttClient.SetPlantHandler(func(reading *models.PlantReading) {
			dataStore.AddPlantReading(*reading)
			wsHub.BroadcastPlantReading(reading)
		})
		mqttClient.SetFishHandler(func(reading *models.FishReading) {
			dataStore.AddFishReading(*reading)
			wsHub.BroadcastFishReading(reading)
		})

		if err := mqttClient.Connect(); err != nil {
			log.Printf("⚠️  Warning: Failed to connect to MQTT broker: %v", err)
			log.Println("📡 Continuing without MQTT support")
			mqttClient = nil
		} else {
			if err := mqttClient.SubscribeToSensorData(); err != nil {
				log.Printf("⚠️  Warning: Failed to subscribe to sensor topics: %v", err)
			}
			defer mqttClient.Disconnect()
		}
	} else {
		log.Println("📡 MQTT broker not configured, skipping MQTT initialization")
	}

	// Initialize forecast service
	forecastService := ml.NewForecastService(dataStore, wsHub, cfg.ML)
	forecastService.Start()
	defer forecastService.Stop()

	// Setup HTTP routes
	router := httphandlers.SetupRoutes(dataStore, wsHub, forecastService, cfg.ML)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Printf("🚀 Starting HTTP server on port %s", cfg.Server.Port)
		log.Println("📡 API endpoints available:")
		log.Println("  GET /api/v1/stats - System statistics")
		log.Println("  GET /api/v1/plant/latest - Latest plant reading")
		log.Println("  GET /api/v1/plant/recent?limit=50 - Recent plant readings")
		log.Println("  GET /api/v1/plant/history - Plant readings in time range")
		log.Println("  GET /api/v1/plant/growth - Plant growth analysis")
		log.Println("  POST /api/v1/plant/data - Add plant reading (testing)")
		log.Println("  GET /api/v1/fish/latest - Latest fish tank reading")
		log.Println("  GET /api/v1/fish/recent?limit=50 - Recent fish readings")
		log.Println("  GET /api/v1/fish/history - Fish readings in time range")
		log.Println("  POST /api/v1/fish/data - Add fish reading (testing)")
		log.Println("  POST /api/v1/ml/train - Train a model")
		log.Println("  POST /api/v1/ml/predict - Generate a forecast")
		log.Println("  POST /api/v1/ml/retrain - Retrain all models")
		log.Println("  GET /api/v1/ml/models/{type}/info - Latest training record")
		log.Println("  GET /api/v1/ml/forecast/latest - Latest cached forecast")
		log.Println("  GET /api/v1/ml/status - Forecast service status")
		log.Println("  GET /api/v1/ml/history - Training run history")
		log.Println("  GET /api/v1/export/history.xlsx - Export history to Excel")
		log.Println("  GET /api/v1/export/history.csv - Export history to CSV")
		log.Println("  WS /ws - WebSocket for real-time updates")
		log.Printf("🌐 Server running at http://localhost:%s", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server shutdown complete")
}
