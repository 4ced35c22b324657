package storage

import "time"

// StorageInterface defines the contract for storage operations
type StorageInterface interface {
	Put(name string, data []byte) (string, error)
	List() ([]string, error)
	Get(name string) ([]byte, error)
	Delete(name string) error
}

// Sweeper is implemented by backends that can leave in-progress artifacts
// behind after a crash.
type Sweeper interface {
	SweepTempFiles(maxAge time.Duration) (int, error)
}
