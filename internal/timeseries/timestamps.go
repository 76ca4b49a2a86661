package timeseries

import "time"

// FutureTimestamps generates ISO-8601 timestamps for forecast steps
// following the last known timestamp, one per step interval.
func FutureTimestamps(last time.Time, steps int, interval time.Duration) []string {
	timestamps := make([]string, 0, steps)
	current := last
	for i := 0; i < steps; i++ {
		current = current.Add(interval)
		timestamps = append(timestamps, current.Format(time.RFC3339))
	}
	return timestamps
}
