package core

import "errors"

// Engine error taxonomy. Handlers map these to HTTP statuses; everything that
// affects the persisted ranking fails fast with one of them, while explanation
// failures are absorbed before they reach this level.
var (
	// ErrNotFound marks a missing session, candidate or job record.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData means neither a profile nor a chat embedding exists,
	// so matching has zero signal to search with.
	ErrInsufficientData = errors.New("insufficient data for matching")

	// ErrBackendUnavailable marks a failed embedding or vector-search call.
	// Safe to retry with backoff at the caller.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrPersistenceFailure means the stored ranking may be incomplete; the
	// caller should re-run matching rather than attempt partial repair.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrInvalidArgument marks a caller mistake such as a non-positive top K.
	ErrInvalidArgument = errors.New("invalid argument")
)
