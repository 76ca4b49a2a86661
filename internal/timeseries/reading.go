package timeseries

import (
	"encoding/json"
	"strconv"
	"time"
)

// Reading is a single raw sensor sample: named metric fields plus a
// timestamp field. Values arrive as whatever the transport produced
// (JSON numbers, strings, time.Time from a database scan), so coercion
// happens during normalization, not here.
type Reading map[string]interface{}

// Timestamp layouts accepted from devices, CSV files and API payloads.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
}

// coerceTime converts a raw timestamp value to time.Time.
func coerceTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// coerceFloat converts a raw metric value to float64. Non-numeric values
// report false and become missing cells rather than errors.
func coerceFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
