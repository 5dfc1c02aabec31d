package usecase

import "errors"

var (
	// ErrNotInitialized is returned when the engine is used before Init.
	// Fatal to the call, surfaced to the caller.
	ErrNotInitialized = errors.New("signal engine not initialized")

	// ErrUnknownAnalyzer is returned for config updates against a type
	// with no registered analyzer.
	ErrUnknownAnalyzer = errors.New("unknown analyzer type")
)
