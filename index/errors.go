package index

import "errors"

var (
	// ErrIndexingFailed indicates an episode's summary could not be indexed.
	ErrIndexingFailed = errors.New("indexing failed")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
