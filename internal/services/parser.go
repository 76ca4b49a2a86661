package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/AquaNexus/aquanexus_backend/internal/models"
)

// SensorParser handles parsing of sensor payloads from the grow bed and
// fish tank controllers
type SensorParser struct{}

// NewSensorParser creates a new instance of SensorParser
func NewSensorParser() *SensorParser {
	return &SensorParser{}
}

// plantPayload is the wire format published by the plant environment node
type plantPayload struct {
	Timestamp   string  `json:"timestamp"`
	Height      float64 `json:"height"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
}

// fishPayload is the wire format published by the fish tank node
type fishPayload struct {
	Timestamp        string  `json:"timestamp"`
	WaterTemperature float64 `json:"water_temperature"`
	ECValue          float64 `json:"ec_value"`
	TDS              float64 `json:"tds"`
	Turbidity        float64 `json:"turbidity"`
	WaterPh          float64 `json:"water_ph"`
}

// parseTimestamp accepts the device's timestamp when present, falling
// back to the receive time
func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Now()
}

// ParsePlantJSON parses a JSON payload from the plant environment node
func (sp *SensorParser) ParsePlantJSON(payload []byte) (*models.PlantReading, error) {
	var data plantPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to parse plant sensor JSON: %w", err)
	}

	reading := &models.PlantReading{
		Timestamp:   parseTimestamp(data.Timestamp),
		Height:      data.Height,
		Temperature: data.Temperature,
		Humidity:    data.Humidity,
		Pressure:    data.Pressure,
	}
	if err := reading.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plant reading: %w", err)
	}
	return reading, nil
}

// ParseFishJSON parses a JSON payload from the fish tank node
func (sp *SensorParser) ParseFishJSON(payload []byte) (*models.FishReading, error) {
	var data fishPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to parse fish sensor JSON: %w", err)
	}

	reading := &models.FishReading{
		Timestamp:        parseTimestamp(data.Timestamp),
		WaterTemperature: data.WaterTemperature,
		ECValue:          data.ECValue,
		TDS:              data.TDS,
		Turbidity:        data.Turbidity,
		WaterPh:          data.WaterPh,
	}
	if err := reading.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fish reading: %w", err)
	}
	return reading, nil
}

// FormatPlantReading formats a plant reading for logging
func (sp *SensorParser) FormatPlantReading(reading *models.PlantReading) string {
	return fmt.Sprintf("Time: %s, Height: %.2f cm, Temp: %.2f C, Humidity: %.2f%%, Pressure: %.2f hPa",
		reading.Timestamp.Format("2006-01-02 15:04:05"),
		reading.Height,
		reading.Temperature,
		reading.Humidity,
		reading.Pressure)
}

// FormatFishReading formats a fish reading for logging
func (sp *SensorParser) FormatFishReading(reading *models.FishReading) string {
	return fmt.Sprintf("Time: %s, Water Temp: %.2f C, EC: %.2f uS/cm, TDS: %.2f ppm, Turbidity: %.2f NTU, pH: %.2f",
		reading.Timestamp.Format("2006-01-02 15:04:05"),
		reading.WaterTemperature,
		reading.ECValue,
		reading.TDS,
		reading.Turbidity,
		reading.WaterPh)
}
