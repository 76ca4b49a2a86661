package timeseries

import "errors"

// Sentinel errors for the data preparation pipeline. Callers match with
// errors.Is; wrapped messages carry the specifics.
var (
	// ErrInsufficientData indicates too few rows or windows for the
	// requested operation.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNotFitted indicates a transform was requested before the scaler
	// was fitted or loaded.
	ErrNotFitted = errors.New("scaler not fitted")

	// ErrMalformedRecord indicates a persisted record is missing expected
	// keys or cannot be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)
