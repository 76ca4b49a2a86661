package services

import (
	"strings"
	"testing"
	"time"
)

func TestParsePlantJSON(t *testing.T) {
	parser := NewSensorParser()

	payload := `{"timestamp":"2024-05-01T08:00:00Z","height":12.5,"temperature":24.1,"humidity":61.0,"pressure":1012.5}`
	reading, err := parser.ParsePlantJSON([]byte(payload))
	if err != nil {
		t.Fatalf("ParsePlantJSON failed: %v", err)
	}

	want := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	if !reading.Timestamp.Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, reading.Timestamp)
	}
	if reading.Height != 12.5 || reading.Humidity != 61.0 {
		t.Errorf("Unexpected reading: %+v", reading)
	}
}

func TestParsePlantJSON_InvalidJSON(t *testing.T) {
	parser := NewSensorParser()
	if _, err := parser.ParsePlantJSON([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestParsePlantJSON_RejectsInvalidReading(t *testing.T) {
	parser := NewSensorParser()
	payload := `{"timestamp":"2024-05-01T08:00:00Z","height":-5.0}`
	if _, err := parser.ParsePlantJSON([]byte(payload)); err == nil {
		t.Error("Expected error for negative height")
	}
}

func TestParseFishJSON(t *testing.T) {
	parser := NewSensorParser()

	payload := `{"timestamp":"2024-05-01 08:00:00","water_temperature":26.4,"ec_value":1250,"tds":625,"turbidity":3.1,"water_ph":7.2}`
	reading, err := parser.ParseFishJSON([]byte(payload))
	if err != nil {
		t.Fatalf("ParseFishJSON failed: %v", err)
	}
	if reading.WaterTemperature != 26.4 || reading.WaterPh != 7.2 {
		t.Errorf("Unexpected reading: %+v", reading)
	}
}

func TestParseFishJSON_RejectsBadPh(t *testing.T) {
	parser := NewSensorParser()
	payload := `{"timestamp":"2024-05-01T08:00:00Z","water_ph":15.0}`
	if _, err := parser.ParseFishJSON([]byte(payload)); err == nil {
		t.Error("Expected error for pH above 14")
	}
}

func TestParseTimestamp_FallsBackToNow(t *testing.T) {
	before := time.Now()
	ts := parseTimestamp("yesterday-ish")
	after := time.Now()

	if ts.Before(before) || ts.After(after) {
		t.Errorf("Expected fallback to receive time, got %v", ts)
	}
}

func TestFormatReadings(t *testing.T) {
	parser := NewSensorParser()

	plant, err := parser.ParsePlantJSON([]byte(`{"timestamp":"2024-05-01T08:00:00Z","height":12.5,"temperature":24.1,"humidity":61.0,"pressure":1012.5}`))
	if err != nil {
		t.Fatalf("ParsePlantJSON failed: %v", err)
	}
	formatted := parser.FormatPlantReading(plant)
	if !strings.Contains(formatted, "Height: 12.50 cm") {
		t.Errorf("Unexpected plant format: %s", formatted)
	}

	fish, err := parser.ParseFishJSON([]byte(`{"timestamp":"2024-05-01T08:00:00Z","water_temperature":26.4,"ec_value":1250,"tds":625,"turbidity":3.1,"water_ph":7.2}`))
	if err != nil {
		t.Fatalf("ParseFishJSON failed: %v", err)
	}
	formatted = parser.FormatFishReading(fish)
	if !strings.Contains(formatted, "pH: 7.20") {
		t.Errorf("Unexpected fish format: %s", formatted)
	}
}
