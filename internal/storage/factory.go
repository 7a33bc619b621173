package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stacklok/country-registry/database"
	"github.com/stacklok/country-registry/internal/config"
	"github.com/stacklok/country-registry/internal/db"
)

// NewPersister creates the persister selected by the storage section of cfg
func NewPersister(ctx context.Context, cfg *config.Config) (Persister, error) {
	storageType := cfg.GetStorageType()
	slog.Info("Creating country persister", "type", storageType)

	switch storageType {
	case config.StorageTypeMemory:
		return NewMemoryPersister(), nil
	case config.StorageTypeFile:
		return NewFilePersister(cfg.GetFilePath())
	case config.StorageTypeBolt:
		return NewBoltPersister(cfg.GetBoltPath(), cfg.GetBoltTimeout())
	case config.StorageTypeDatabase:
		return newDatabasePersister(ctx, cfg.Storage.Database)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

func newDatabasePersister(ctx context.Context, dbCfg *config.DatabaseConfig) (Persister, error) {
	conn, err := db.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, err
	}

	if err := database.MigrateUp(ctx, conn.Pool); err != nil {
		conn.Close()
		return nil, err
	}

	return NewDatabasePersister(conn)
}
