package storage

import (
	"fmt"

	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// NewAdapter builds the storage backend selected by the configuration
func NewAdapter(cfg types.StorageConfig) (Adapter, error) {
	switch cfg.Adapter {
	case "local":
		return NewLocalAdapter(cfg.Local.BasePath)
	case "s3":
		return NewS3Adapter(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Adapter)
	}
}
