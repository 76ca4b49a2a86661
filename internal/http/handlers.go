package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/AquaNexus/aquanexus_backend/internal/export"
	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/store"
	"github.com/AquaNexus/aquanexus_backend/internal/ws"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	store         store.DataStore
	hub           *ws.Hub
	exportService *export.ExportService
}

// NewHandlers creates a new handlers instance
func NewHandlers(dataStore store.DataStore, hub *ws.Hub) *Handlers {
	return &Handlers{
		store:         dataStore,
		hub:           hub,
		exportService: export.NewExportService(),
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handlers) sendJSONResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (h *Handlers) sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSONResponse(w, APIResponse{Success: false, Error: message}, statusCode)
}

func parseLimit(r *http.Request, defaultLimit int) int {
	limit := defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}

func parseTimeRange(r *http.Request) (time.Time, time.Time, bool) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	end := time.Now()
	start := end.Add(-24 * time.Hour)

	if startStr != "" {
		parsed, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return start, end, false
		}
		start = parsed
	}
	if endStr != "" {
		parsed, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return start, end, false
		}
		end = parsed
	}
	return start, end, true
}

// GetSystemStats returns overall system statistics
func (h *Handlers) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"plant_reading_count": h.store.GetPlantReadingCount(),
		"fish_reading_count":  h.store.GetFishReadingCount(),
		"connected_clients":   h.hub.GetConnectedClientsCount(),
		"server_time":         time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.store.Ping(); err != nil {
		stats["storage"] = "unavailable"
	} else {
		stats["storage"] = "ok"
	}

	h.sendJSONResponse(w, APIResponse{Success: true, Data: stats}, http.StatusOK)
}

// GetLatestPlantReading returns the most recent plant environment reading
func (h *Handlers) GetLatestPlantReading(w http.ResponseWriter, r *http.Request) {
	reading, exists := h.store.GetLatestPlantReading()
	if !exists {
		h.sendErrorResponse(w, "No plant sensor data available", http.StatusNotFound)
		return
	}
	h.sendJSONResponse(w, APIResponse{Success: true, Data: reading}, http.StatusOK)
}

// GetLatestFishReading returns the most recent fish tank reading
func (h *Handlers) GetLatestFishReading(w http.ResponseWriter, r *http.Request) {
	reading, exists := h.store.GetLatestFishReading()
	if !exists {
		h.sendErrorResponse(w, "No fish sensor data available", http.StatusNotFound)
		return
	}
	h.sendJSONResponse(w, APIResponse{Success: true, Data: reading}, http.StatusOK)
}

// GetRecentPlantReadings returns recent plant readings
func (h *Handlers) GetRecentPlantReadings(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	readings := h.store.GetRecentPlantReadings(limit)
	h.sendJSONResponse(w, APIResponse{Success: true, Data: readings}, http.StatusOK)
}

// GetRecentFishReadings returns recent fish readings
func (h *Handlers) GetRecentFishReadings(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	readings := h.store.GetRecentFishReadings(limit)
	h.sendJSONResponse(w, APIResponse{Success: true, Data: readings}, http.StatusOK)
}

// GetPlantReadingsInRange returns plant readings in a time range
func (h *Handlers) GetPlantReadingsInRange(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseTimeRange(r)
	if !ok {
		h.sendErrorResponse(w, "Invalid time range. Use RFC3339 timestamps for start and end", http.StatusBadRequest)
		return
	}
	readings := h.store.GetPlantReadingsInRange(start, end)
	h.sendJSONResponse(w, APIResponse{Success: true, Data: readings}, http.StatusOK)
}

// GetFishReadingsInRange returns fish readings in a time range
func (h *Handlers) GetFishReadingsInRange(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseTimeRange(r)
	if !ok {
		h.sendErrorResponse(w, "Invalid time range. Use RFC3339 timestamps for start and end", http.StatusBadRequest)
		return
	}
	readings := h.store.GetFishReadingsInRange(start, end)
	h.sendJSONResponse(w, APIResponse{Success: true, Data: readings}, http.StatusOK)
}

// AddPlantReading accepts a plant reading posted directly (for testing
// and backfill)
func (h *Handlers) AddPlantReading(w http.ResponseWriter, r *http.Request) {
	var reading models.PlantReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		h.sendErrorResponse(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}
	if err := reading.Validate(); err != nil {
		h.sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.store.AddPlantReading(reading)
	h.hub.BroadcastPlantReading(&reading)
	h.sendJSONResponse(w, APIResponse{Success: true, Message: "Plant reading stored"}, http.StatusCreated)
}

// AddFishReading accepts a fish reading posted directly (for testing
// and backfill)
func (h *Handlers) AddFishReading(w http.ResponseWriter, r *http.Request) {
	var reading models.FishReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		h.sendErrorResponse(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}
	if err := reading.Validate(); err != nil {
		h.sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.store.AddFishReading(reading)
	h.hub.BroadcastFishReading(&reading)
	h.sendJSONResponse(w, APIResponse{Success: true, Message: "Fish reading stored"}, http.StatusCreated)
}

// ExportHistoryExcel exports reading history as an Excel workbook
func (h *Handlers) ExportHistoryExcel(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseTimeRange(r)
	if !ok {
		h.sendErrorResponse(w, "Invalid time range. Use RFC3339 timestamps for start and end", http.StatusBadRequest)
		return
	}

	plant := h.store.GetPlantReadingsInRange(start, end)
	fish := h.store.GetFishReadingsInRange(start, end)

	file, err := h.exportService.BuildWorkbook(plant, fish)
	if err != nil {
		h.sendErrorResponse(w, "Failed to build export workbook", http.StatusInternalServerError)
		return
	}

	filename := "aquanexus_history_" + time.Now().Format("20060102_150405") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := file.Write(w); err != nil {
		log.Printf("Error writing Excel export: %v", err)
	}
}

// ExportHistoryCSV exports reading history as CSV
func (h *Handlers) ExportHistoryCSV(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseTimeRange(r)
	if !ok {
		h.sendErrorResponse(w, "Invalid time range. Use RFC3339 timestamps for start and end", http.StatusBadRequest)
		return
	}

	kind := r.URL.Query().Get("kind")
	filename := "aquanexus_history_" + time.Now().Format("20060102_150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if kind == "fish" {
		fish := h.store.GetFishReadingsInRange(start, end)
		if err := h.exportService.WriteFishCSV(w, fish); err != nil {
			log.Printf("Error writing CSV export: %v", err)
		}
		return
	}

	plant := h.store.GetPlantReadingsInRange(start, end)
	if err := h.exportService.WritePlantCSV(w, plant); err != nil {
		log.Printf("Error writing CSV export: %v", err)
	}
}
