package storage

import (
	"fmt"

	"github.com/azure/filedrop/internal/config"
)

// New builds the backend selected by cfg.StorageBackend
func New(cfg *config.Config) (StorageInterface, error) {
	switch cfg.StorageBackend {
	case config.BackendLocal:
		return NewLocalStorage(cfg.StorageRoot)
	case config.BackendAzure:
		return NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
	case config.BackendS3:
		return NewS3Storage(S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", ErrInitialization, cfg.StorageBackend)
	}
}
