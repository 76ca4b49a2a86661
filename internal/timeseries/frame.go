package timeseries

import (
	"math"
	"sort"
	"time"
)

// Frame is a time-indexed table of numeric rows: strictly ascending
// timestamps, one row per resample interval, columns fixed to the
// configured feature set. NaN marks a missing cell.
type Frame struct {
	Times   []time.Time
	Columns []string
	Data    [][]float64
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Times)
}

// LastTime returns the timestamp of the final row.
func (f *Frame) LastTime() (time.Time, bool) {
	if len(f.Times) == 0 {
		return time.Time{}, false
	}
	return f.Times[len(f.Times)-1], true
}

// Column returns a copy of the named column's values.
func (f *Frame) Column(name string) ([]float64, bool) {
	idx := -1
	for i, col := range f.Columns {
		if col == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	values := make([]float64, len(f.Data))
	for i, row := range f.Data {
		values[i] = row[idx]
	}
	return values, true
}

// Normalize cleans raw readings into a uniformly spaced frame with the
// given column set. Rows without a usable timestamp are dropped; bad
// metric values become missing cells. With a positive resample interval
// the rows are aggregated onto a fixed grid by averaging, then gaps are
// forward-filled and remaining leading gaps backward-filled. A column
// with no observed values at all stays entirely NaN so window building
// fails fast instead of training on fabricated data.
func Normalize(readings []Reading, timestampField string, columns []string, resample time.Duration) *Frame {
	type rawRow struct {
		ts     time.Time
		values []float64
	}

	rows := make([]rawRow, 0, len(readings))
	for _, reading := range readings {
		ts, ok := coerceTime(reading[timestampField])
		if !ok {
			continue
		}
		values := make([]float64, len(columns))
		for i, col := range columns {
			if v, ok := coerceFloat(reading[col]); ok {
				values[i] = v
			} else {
				values[i] = math.NaN()
			}
		}
		rows = append(rows, rawRow{ts: ts, values: values})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ts.Before(rows[j].ts)
	})

	frame := &Frame{Columns: columns}
	if len(rows) == 0 {
		return frame
	}

	if resample <= 0 {
		for _, row := range rows {
			frame.Times = append(frame.Times, row.ts)
			frame.Data = append(frame.Data, row.values)
		}
		fillGaps(frame.Data, len(columns))
		return frame
	}

	// Aggregate onto the resample grid: duplicate and near-duplicate
	// timestamps within a bucket are averaged per column.
	type bucket struct {
		sums   []float64
		counts []int
	}
	buckets := make(map[int64]*bucket)
	for _, row := range rows {
		key := row.ts.UTC().Truncate(resample).Unix()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{sums: make([]float64, len(columns)), counts: make([]int, len(columns))}
			buckets[key] = b
		}
		for i, v := range row.values {
			if !math.IsNaN(v) {
				b.sums[i] += v
				b.counts[i]++
			}
		}
	}

	start := rows[0].ts.UTC().Truncate(resample)
	end := rows[len(rows)-1].ts.UTC().Truncate(resample)
	for ts := start; !ts.After(end); ts = ts.Add(resample) {
		values := make([]float64, len(columns))
		if b, ok := buckets[ts.Unix()]; ok {
			for i := range columns {
				if b.counts[i] > 0 {
					values[i] = b.sums[i] / float64(b.counts[i])
				} else {
					values[i] = math.NaN()
				}
			}
		} else {
			for i := range columns {
				values[i] = math.NaN()
			}
		}
		frame.Times = append(frame.Times, ts)
		frame.Data = append(frame.Data, values)
	}

	fillGaps(frame.Data, len(columns))
	return frame
}

// fillGaps applies forward-fill then backward-fill per column, in place.
// Columns that never observed a value remain NaN.
func fillGaps(data [][]float64, columns int) {
	for col := 0; col < columns; col++ {
		last := math.NaN()
		for i := range data {
			if math.IsNaN(data[i][col]) {
				data[i][col] = last
			} else {
				last = data[i][col]
			}
		}
		next := math.NaN()
		for i := len(data) - 1; i >= 0; i-- {
			if math.IsNaN(data[i][col]) {
				data[i][col] = next
			} else {
				next = data[i][col]
			}
		}
	}
}

// GrowthRate derives a per-row growth rate (units per day) from the
// named column, using the time gap between consecutive rows. The first
// row's rate is zero.
func (f *Frame) GrowthRate(column string) ([]float64, bool) {
	values, ok := f.Column(column)
	if !ok {
		return nil, false
	}
	rates := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		days := f.Times[i].Sub(f.Times[i-1]).Hours() / 24
		if days > 0 {
			rates[i] = (values[i] - values[i-1]) / days
		}
	}
	return rates, true
}
