package ml

import "errors"

var (
	// ErrModelNotFound means no saved model exists for the requested
	// type and horizon.
	ErrModelNotFound = errors.New("model not found")

	// ErrUnknownModelType means the requested type is not in the
	// supported set.
	ErrUnknownModelType = errors.New("unknown model type")
)
