package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AquaNexus/aquanexus_backend/config"
	"github.com/AquaNexus/aquanexus_backend/internal/ml"
	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/store"
	"github.com/AquaNexus/aquanexus_backend/internal/timeseries"
)

// MLHandlers contains handlers for the forecasting API
type MLHandlers struct {
	store           store.DataStore
	forecastService *ml.ForecastService
	cfg             config.MLConfig
}

// NewMLHandlers creates handlers for model training and prediction
func NewMLHandlers(dataStore store.DataStore, forecastService *ml.ForecastService, cfg config.MLConfig) *MLHandlers {
	return &MLHandlers{
		store:           dataStore,
		forecastService: forecastService,
		cfg:             cfg,
	}
}

func (h *MLHandlers) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// parseModel extracts and validates the model type and horizon from a
// request, defaulting to height/short
func parseModel(modelTypeStr, horizonStr string) (models.ModelType, models.Horizon, bool) {
	modelType := models.ModelType(modelTypeStr)
	if modelType == "" {
		modelType = models.ModelHeight
	}
	if _, ok := modelType.Config(); !ok {
		return modelType, "", false
	}

	horizon := models.Horizon(horizonStr)
	if horizon == "" {
		horizon = models.HorizonShort
	}
	if !horizon.Valid() {
		return modelType, horizon, false
	}
	return modelType, horizon, true
}

// readingsFor pulls stored readings for a model's data stream
func (h *MLHandlers) readingsFor(modelType models.ModelType) []timeseries.Reading {
	cfg, ok := modelType.Config()
	if !ok {
		return nil
	}
	if cfg.Kind == models.DataKindFish {
		return models.FishReadingsToRecords(h.store.GetRecentFishReadings(0))
	}
	return models.PlantReadingsToRecords(h.store.GetRecentPlantReadings(0))
}

// trainRequestBody is the wire form of a training request; readings are
// optional and default to the stored history
type trainRequestBody struct {
	Readings          []timeseries.Reading `json:"readings"`
	ModelType         string               `json:"model_type"`
	PredictionHorizon string               `json:"prediction_horizon"`
	Epochs            int                  `json:"epochs"`
	BatchSize         int                  `json:"batch_size"`
	Patience          int                  `json:"patience"`
}

// TrainModel trains a new model version
func (h *MLHandlers) TrainModel(w http.ResponseWriter, r *http.Request) {
	var body trainRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.sendJSON(w, models.TrainingResponse{Success: false, Error: "Invalid JSON payload"}, http.StatusBadRequest)
		return
	}

	modelType, horizon, ok := parseModel(body.ModelType, body.PredictionHorizon)
	if !ok {
		h.sendJSON(w, models.TrainingResponse{Success: false, Error: "Unknown model type or prediction horizon"}, http.StatusBadRequest)
		return
	}

	readings := body.Readings
	if len(readings) == 0 {
		readings = h.readingsFor(modelType)
	}

	epochs := body.Epochs
	if epochs <= 0 {
		epochs = h.cfg.Epochs
	}
	batchSize := body.BatchSize
	if batchSize <= 0 {
		batchSize = h.cfg.BatchSize
	}
	patience := body.Patience
	if patience <= 0 {
		patience = h.cfg.Patience
	}

	response := ml.TrainModel(&models.TrainingRequest{
		Readings:          readings,
		ModelType:         modelType,
		PredictionHorizon: horizon,
		Epochs:            epochs,
		BatchSize:         batchSize,
		Patience:          patience,
		ModelsDir:         h.cfg.ModelsDir,
	})

	status := http.StatusOK
	if !response.Success {
		status = http.StatusBadRequest
	} else if response.Results != nil {
		if err := h.store.RecordTraining(response.Results); err != nil {
			log.Printf("⚠️ Failed to record training run for %s/%s: %v", modelType, horizon, err)
		}
	}
	h.sendJSON(w, response, status)
}

// predictRequestBody is the wire form of a prediction request
type predictRequestBody struct {
	Readings          []timeseries.Reading `json:"readings"`
	ModelType         string               `json:"model_type"`
	PredictionHorizon string               `json:"prediction_horizon"`
}

// Predict generates a forecast from the latest trained model
func (h *MLHandlers) Predict(w http.ResponseWriter, r *http.Request) {
	var body predictRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.sendJSON(w, models.PredictionResponse{Success: false, Error: "Invalid JSON payload"}, http.StatusBadRequest)
		return
	}

	modelType, horizon, ok := parseModel(body.ModelType, body.PredictionHorizon)
	if !ok {
		h.sendJSON(w, models.PredictionResponse{Success: false, Error: "Unknown model type or prediction horizon"}, http.StatusBadRequest)
		return
	}

	readings := body.Readings
	if len(readings) == 0 {
		readings = h.readingsFor(modelType)
	}

	response := ml.Predict(&models.PredictionRequest{
		Readings:          readings,
		ModelType:         modelType,
		PredictionHorizon: horizon,
		ModelsDir:         h.cfg.ModelsDir,
	})

	status := http.StatusOK
	if !response.Success {
		status = http.StatusNotFound
	}
	h.sendJSON(w, response, status)
}

// GetModelInfo returns the latest training record for a model
func (h *MLHandlers) GetModelInfo(w http.ResponseWriter, r *http.Request) {
	modelType, horizon, ok := parseModel(chi.URLParam(r, "modelType"), r.URL.Query().Get("horizon"))
	if !ok {
		h.sendJSON(w, APIResponse{Success: false, Error: "Unknown model type or prediction horizon"}, http.StatusBadRequest)
		return
	}

	trainer, err := ml.NewTrainer(modelType, horizon, h.cfg.ModelsDir)
	if err != nil {
		h.sendJSON(w, APIResponse{Success: false, Error: "Unknown model type"}, http.StatusBadRequest)
		return
	}

	info := trainer.LatestInfo()
	if info == nil {
		h.sendJSON(w, APIResponse{Success: true, Message: "No trained model found", Data: nil}, http.StatusOK)
		return
	}
	h.sendJSON(w, APIResponse{Success: true, Data: info}, http.StatusOK)
}

// GetLatestForecast returns the most recent cached forecast
func (h *MLHandlers) GetLatestForecast(w http.ResponseWriter, r *http.Request) {
	modelType, horizon, ok := parseModel(r.URL.Query().Get("model_type"), r.URL.Query().Get("horizon"))
	if !ok {
		h.sendJSON(w, APIResponse{Success: false, Error: "Unknown model type or prediction horizon"}, http.StatusBadRequest)
		return
	}

	forecast := h.forecastService.LatestForecast(modelType, horizon)
	if forecast == nil {
		h.sendJSON(w, APIResponse{Success: false, Error: "No forecast available yet"}, http.StatusNotFound)
		return
	}
	h.sendJSON(w, forecast, http.StatusOK)
}

// GetForecastStatus returns the forecast service status
func (h *MLHandlers) GetForecastStatus(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, APIResponse{Success: true, Data: h.forecastService.Status()}, http.StatusOK)
}

// TriggerRetrain kicks off a retrain of all models in the background
func (h *MLHandlers) TriggerRetrain(w http.ResponseWriter, r *http.Request) {
	go h.forecastService.RetrainAll()
	h.sendJSON(w, APIResponse{Success: true, Message: "Retraining started"}, http.StatusAccepted)
}

// GetTrainingHistory returns recorded training runs
func (h *MLHandlers) GetTrainingHistory(w http.ResponseWriter, r *http.Request) {
	modelType := models.ModelType(r.URL.Query().Get("model_type"))
	limit := parseLimit(r, 20)

	records, err := h.store.GetTrainingRecords(modelType, limit)
	if err != nil {
		h.sendJSON(w, APIResponse{Success: false, Error: err.Error()}, http.StatusInternalServerError)
		return
	}
	h.sendJSON(w, APIResponse{Success: true, Data: records}, http.StatusOK)
}

// GetGrowthAnalysis derives daily growth rates from plant height history
func (h *MLHandlers) GetGrowthAnalysis(w http.ResponseWriter, r *http.Request) {
	readings := models.PlantReadingsToRecords(h.store.GetRecentPlantReadings(0))
	if len(readings) == 0 {
		h.sendJSON(w, APIResponse{Success: false, Error: "No plant sensor data available"}, http.StatusNotFound)
		return
	}

	frame := timeseries.Normalize(readings, "timestamp", []string{"height"}, 24*time.Hour)
	rates, ok := frame.GrowthRate("height")
	if !ok || frame.Len() == 0 {
		h.sendJSON(w, APIResponse{Success: false, Error: "Not enough height data for growth analysis"}, http.StatusNotFound)
		return
	}

	heights, _ := frame.Column("height")
	type growthPoint struct {
		Date       string  `json:"date"`
		Height     float64 `json:"height"`
		GrowthRate float64 `json:"growth_rate"`
	}
	points := make([]growthPoint, frame.Len())
	for i := range points {
		points[i] = growthPoint{
			Date:       frame.Times[i].Format("2006-01-02"),
			Height:     heights[i],
			GrowthRate: rates[i],
		}
	}
	h.sendJSON(w, APIResponse{Success: true, Data: points}, http.StatusOK)
}
