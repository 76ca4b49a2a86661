package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AquaNexus/aquanexus_backend/config"
	"github.com/AquaNexus/aquanexus_backend/internal/ml"
	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/store"
	"github.com/AquaNexus/aquanexus_backend/internal/timeseries"
	"github.com/AquaNexus/aquanexus_backend/internal/ws"
)

func newTestRouter(t *testing.T) (*chi.Mux, *store.Store) {
	t.Helper()

	dataStore := store.NewStore(0)
	hub := ws.NewHub()
	mlConfig := config.MLConfig{
		ModelsDir:        t.TempDir(),
		Epochs:           20,
		BatchSize:        16,
		Patience:         10,
		ForecastInterval: time.Hour,
		RetrainInterval:  24 * time.Hour,
		MinReadings:      100,
	}
	forecastService := ml.NewForecastService(dataStore, hub, mlConfig)

	return SetupRoutes(dataStore, hub, forecastService, mlConfig), dataStore
}

func trainingReadings(count int) []timeseries.Reading {
	readings := make([]timeseries.Reading, count)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		readings[i] = timeseries.Reading{
			"timestamp":   start.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			"height":      10.0 + 0.05*float64(i),
			"temperature": 24.0 + float64(i%12)*0.1,
			"humidity":    60.0 + float64(i%6),
			"pressure":    1013.0 + float64(i%4)*0.5,
		}
	}
	return readings
}

func postJSON(t *testing.T, router http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func getPath(router http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_AddAndGetPlantReading(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/plant/data", map[string]interface{}{
		"timestamp":   "2024-05-01T08:00:00Z",
		"height":      12.5,
		"temperature": 24.1,
		"humidity":    61.0,
		"pressure":    1012.5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = getPath(router, "/api/v1/plant/latest")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response struct {
		Success bool                `json:"success"`
		Data    models.PlantReading `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !response.Success || response.Data.Height != 12.5 {
		t.Errorf("Unexpected latest reading: %+v", response)
	}
}

func TestRoutes_LatestPlantReading_Empty(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := getPath(router, "/api/v1/plant/latest")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an empty store, got %d", rec.Code)
	}
}

func TestRoutes_AddPlantReading_RejectsInvalid(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/plant/data", map[string]interface{}{
		"timestamp": "2024-05-01T08:00:00Z",
		"height":    12.5,
		"humidity":  200.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out-of-range humidity, got %d", rec.Code)
	}
}

func TestRoutes_AddFishReading(t *testing.T) {
	router, dataStore := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/fish/data", map[string]interface{}{
		"timestamp":         "2024-05-01T08:00:00Z",
		"water_temperature": 26.4,
		"ec_value":          1250.0,
		"tds":               625.0,
		"turbidity":         3.1,
		"water_ph":          7.2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if dataStore.GetFishReadingCount() != 1 {
		t.Error("Fish reading was not stored")
	}
}

func TestRoutes_TrainAndPredict(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/ml/train", map[string]interface{}{
		"readings":   trainingReadings(240),
		"model_type": "height",
		"epochs":     20,
		"batch_size": 16,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from training, got %d: %s", rec.Code, rec.Body.String())
	}

	var trainResponse models.TrainingResponse
	if err := json.NewDecoder(rec.Body).Decode(&trainResponse); err != nil {
		t.Fatalf("Failed to decode training response: %v", err)
	}
	if !trainResponse.Success || trainResponse.Results == nil {
		t.Fatalf("Training did not succeed: %+v", trainResponse)
	}

	rec = postJSON(t, router, "/api/v1/ml/predict", map[string]interface{}{
		"readings":   trainingReadings(240),
		"model_type": "height",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from prediction, got %d: %s", rec.Code, rec.Body.String())
	}

	var predictResponse models.PredictionResponse
	if err := json.NewDecoder(rec.Body).Decode(&predictResponse); err != nil {
		t.Fatalf("Failed to decode prediction response: %v", err)
	}
	if !predictResponse.Success {
		t.Fatalf("Prediction did not succeed: %s", predictResponse.Error)
	}
	if len(predictResponse.PredictedValues) != 24 {
		t.Errorf("Expected 24 predicted values, got %d", len(predictResponse.PredictedValues))
	}

	// The training run shows up in the history endpoint
	rec = getPath(router, "/api/v1/ml/history?model_type=height")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from history, got %d", rec.Code)
	}
	var history struct {
		Success bool                     `json:"success"`
		Data    []models.TrainingResults `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&history); err != nil {
		t.Fatalf("Failed to decode history response: %v", err)
	}
	if len(history.Data) != 1 {
		t.Errorf("Expected 1 training record, got %d", len(history.Data))
	}
}

func TestRoutes_TrainUnknownModelType(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/ml/train", map[string]interface{}{
		"readings":   trainingReadings(240),
		"model_type": "algae_bloom",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown model type, got %d", rec.Code)
	}
}

func TestRoutes_PredictWithoutModel(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/ml/predict", map[string]interface{}{
		"readings":   trainingReadings(48),
		"model_type": "height",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 without a trained model, got %d", rec.Code)
	}

	var response models.PredictionResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Suggestion == "" {
		t.Error("Expected a suggestion to train first")
	}
}

func TestRoutes_ModelInfoWithoutModel(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := getPath(router, "/api/v1/ml/models/height/info")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !response.Success || response.Message != "No trained model found" {
		t.Errorf("Unexpected response: %+v", response)
	}
}

func TestRoutes_ForecastLatest_NoneYet(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := getPath(router, "/api/v1/ml/forecast/latest?model_type=height")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before any forecast runs, got %d", rec.Code)
	}
}

func TestRoutes_ForecastStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := getPath(router, "/api/v1/ml/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Data["running"] != false {
		t.Errorf("Expected running=false for an unstarted service, got %v", response.Data["running"])
	}
}

func TestRoutes_SystemStats(t *testing.T) {
	router, dataStore := newTestRouter(t)
	dataStore.AddPlantReading(models.PlantReading{Timestamp: time.Now(), Height: 12.0, Humidity: 60})

	rec := getPath(router, "/api/v1/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Data["plant_reading_count"] != float64(1) {
		t.Errorf("Expected 1 plant reading, got %v", response.Data["plant_reading_count"])
	}
	if response.Data["storage"] != "ok" {
		t.Errorf("Expected storage ok, got %v", response.Data["storage"])
	}
}

func TestRoutes_ExportCSV(t *testing.T) {
	router, dataStore := newTestRouter(t)
	dataStore.AddPlantReading(models.PlantReading{
		Timestamp: time.Now().Add(-time.Hour),
		Height:    12.5, Temperature: 24.1, Humidity: 61.0, Pressure: 1012.5,
	})

	rec := getPath(router, "/api/v1/export/history.csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected text/csv content type, got %s", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "Timestamp,Height (cm)") {
		t.Errorf("Unexpected CSV header: %q", strings.SplitN(body, "\n", 2)[0])
	}
	if !strings.Contains(body, "12.50") {
		t.Error("Exported CSV is missing the stored reading")
	}
}
