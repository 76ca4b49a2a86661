package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/AquaNexus/aquanexus_backend/config"
	"github.com/AquaNexus/aquanexus_backend/internal/ml"
	"github.com/AquaNexus/aquanexus_backend/internal/store"
	"github.com/AquaNexus/aquanexus_backend/internal/ws"
)

// SetupRoutes configures all HTTP routes for the aquaponics API
func SetupRoutes(dataStore store.DataStore, wsHub *ws.Hub, forecastService *ml.ForecastService, mlConfig config.MLConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, specify allowed origins
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlers := NewHandlers(dataStore, wsHub)
	mlHandlers := NewMLHandlers(dataStore, forecastService, mlConfig)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// System stats
		r.Get("/stats", handlers.GetSystemStats)

		// Plant environment readings
		r.Route("/plant", func(r chi.Router) {
			r.Get("/latest", handlers.GetLatestPlantReading)
			r.Get("/recent", handlers.GetRecentPlantReadings)
			r.Get("/history", handlers.GetPlantReadingsInRange)
			r.Post("/data", handlers.AddPlantReading)
			r.Get("/growth", mlHandlers.GetGrowthAnalysis)
		})

		// Fish tank readings
		r.Route("/fish", func(r chi.Router) {
			r.Get("/latest", handlers.GetLatestFishReading)
			r.Get("/recent", handlers.GetRecentFishReadings)
			r.Get("/history", handlers.GetFishReadingsInRange)
			r.Post("/data", handlers.AddFishReading)
		})

		// Forecasting
		r.Route("/ml", func(r chi.Router) {
			r.Post("/train", mlHandlers.TrainModel)
			r.Post("/predict", mlHandlers.Predict)
			r.Post("/retrain", mlHandlers.TriggerRetrain)
			r.Get("/models/{modelType}/info", mlHandlers.GetModelInfo)
			r.Get("/forecast/latest", mlHandlers.GetLatestForecast)
			r.Get("/status", mlHandlers.GetForecastStatus)
			r.Get("/history", mlHandlers.GetTrainingHistory)
		})

		// Export routes for data history
		r.Route("/export", func(r chi.Router) {
			r.Get("/history.xlsx", handlers.ExportHistoryExcel)
			r.Get("/history.csv", handlers.ExportHistoryCSV)
		})
	})

	// WebSocket route for real-time updates
	r.HandleFunc("/ws", wsHub.HandleWebSocket)

	return r
}
