package models

import (
	"fmt"
	"time"

	"github.com/AquaNexus/aquanexus_backend/internal/timeseries"
)

// PlantReading is one sample from the plant environment sensors.
type PlantReading struct {
	Timestamp   time.Time `json:"timestamp"`
	Height      float64   `json:"height"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
}

// Validate checks the reading for obviously impossible values.
func (r *PlantReading) Validate() error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("plant reading missing timestamp")
	}
	if r.Height < 0 {
		return fmt.Errorf("plant height cannot be negative: %.2f", r.Height)
	}
	if r.Humidity < 0 || r.Humidity > 100 {
		return fmt.Errorf("humidity out of range: %.2f", r.Humidity)
	}
	return nil
}

// ToReading converts to the generic record form the pipeline consumes.
func (r *PlantReading) ToReading() timeseries.Reading {
	return timeseries.Reading{
		"timestamp":   r.Timestamp.Format(time.RFC3339),
		"height":      r.Height,
		"temperature": r.Temperature,
		"humidity":    r.Humidity,
		"pressure":    r.Pressure,
	}
}

// FishReading is one sample from the fish tank water quality sensors.
type FishReading struct {
	Timestamp        time.Time `json:"timestamp"`
	WaterTemperature float64   `json:"water_temperature"`
	ECValue          float64   `json:"ec_value"`
	TDS              float64   `json:"tds"`
	Turbidity        float64   `json:"turbidity"`
	WaterPh          float64   `json:"water_ph"`
}

// Validate checks the reading for obviously impossible values.
func (r *FishReading) Validate() error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("fish reading missing timestamp")
	}
	if r.WaterPh < 0 || r.WaterPh > 14 {
		return fmt.Errorf("water pH out of range: %.2f", r.WaterPh)
	}
	if r.ECValue < 0 {
		return fmt.Errorf("EC value cannot be negative: %.2f", r.ECValue)
	}
	return nil
}

// ToReading converts to the generic record form the pipeline consumes.
func (r *FishReading) ToReading() timeseries.Reading {
	return timeseries.Reading{
		"timestamp":         r.Timestamp.Format(time.RFC3339),
		"water_temperature": r.WaterTemperature,
		"ec_value":          r.ECValue,
		"tds":               r.TDS,
		"turbidity":         r.Turbidity,
		"water_ph":          r.WaterPh,
	}
}

// PlantReadingsToRecords converts a batch of plant readings for the
// forecasting pipeline.
func PlantReadingsToRecords(readings []PlantReading) []timeseries.Reading {
	out := make([]timeseries.Reading, len(readings))
	for i := range readings {
		out[i] = readings[i].ToReading()
	}
	return out
}

// FishReadingsToRecords converts a batch of fish readings for the
// forecasting pipeline.
func FishReadingsToRecords(readings []FishReading) []timeseries.Reading {
	out := make([]timeseries.Reading, len(readings))
	for i := range readings {
		out[i] = readings[i].ToReading()
	}
	return out
}
