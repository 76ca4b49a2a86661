package csvload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AquaNexus/aquanexus_backend/internal/timeseries"
)

// Column mappings from exported CSV headers to pipeline field names.
// Matching is by prefix because exported headers carry unit suffixes
// and the EC header has a long-standing unclosed parenthesis.
var fishHeaderMap = map[string]string{
	"Date":              "timestamp",
	"Water Temperature": "water_temperature",
	"EC Values(uS/cm":   "ec_value",
	"TDS":               "tds",
	"Turbidity":         "turbidity",
	"pH":                "water_ph",
}

var plantHeaderMap = map[string]string{
	"Date":        "timestamp",
	"Height":      "height",
	"Temperature": "temperature",
	"Humidity":    "humidity",
	"Pressure":    "pressure",
}

// stripBOM removes a UTF-8 byte order mark that Windows exports prepend
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// mapHeaders resolves each CSV column to a pipeline field name, or ""
// for columns the pipeline does not use
func mapHeaders(headers []string, headerMap map[string]string) []string {
	mapped := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(stripBOM(header))
		for prefix, field := range headerMap {
			if strings.HasPrefix(header, prefix) {
				mapped[i] = field
				break
			}
		}
	}
	return mapped
}

func loadReadings(r io.Reader, headerMap map[string]string) ([]timeseries.Reading, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	fields := mapHeaders(headers, headerMap)

	hasTimestamp := false
	for _, field := range fields {
		if field == "timestamp" {
			hasTimestamp = true
		}
	}
	if !hasTimestamp {
		return nil, fmt.Errorf("%w: CSV has no recognizable timestamp column", timeseries.ErrMalformedRecord)
	}

	var readings []timeseries.Reading
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		reading := timeseries.Reading{}
		for i, field := range fields {
			if field == "" || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			if field == "timestamp" {
				reading[field] = value
				continue
			}
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				reading[field] = parsed
			}
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

// LoadFishCSV loads a fish tank sensor export into pipeline readings
func LoadFishCSV(path string) ([]timeseries.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return loadReadings(f, fishHeaderMap)
}

// LoadPlantCSV loads a plant environment export into pipeline readings
func LoadPlantCSV(path string) ([]timeseries.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return loadReadings(f, plantHeaderMap)
}
