package storage

import "errors"

// Error kinds returned by every StorageInterface implementation. Callers
// classify failures with errors.Is; the underlying cause stays in the chain.
var (
	// ErrInvalidName is a client error: the name is malformed or would escape the root.
	ErrInvalidName = errors.New("invalid name")
	// ErrNotFound means no entry with the requested name exists.
	ErrNotFound = errors.New("entry not found")
	// ErrStorage covers I/O and environment failures.
	ErrStorage = errors.New("storage failure")
	// ErrInitialization is returned when the storage root cannot be prepared.
	ErrInitialization = errors.New("storage initialization failed")
)
