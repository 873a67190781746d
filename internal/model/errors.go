package model

import "errors"

// Sentinel errors of the engine.
var (
	// ErrValidation is returned by the validator when a tick input fails
	// its bounds check.
	ErrValidation = errors.New("tick input failed validation")

	// ErrStoreUnavailable names a persistent-store failure. No component
	// returns or wraps it: store errors wrap the underlying database error.
	ErrStoreUnavailable = errors.New("persistent store unavailable")
)
