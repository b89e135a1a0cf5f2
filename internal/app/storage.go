package app

import (
	"context"
	"fmt"

	"task_tracker/internal/config"
	"task_tracker/internal/repository"
	"task_tracker/internal/repository/gormrepo"
	"task_tracker/internal/repository/memrepo"
	"task_tracker/internal/repository/mongorepo"
	"task_tracker/internal/repository/sqlrepo"
)

// OpenStorage selects the backend named by the configuration. The returned
// close function releases its connections.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (repository.Storage, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case config.DriverMemory:
		return memrepo.New(), noop, nil
	case config.DriverSQL:
		db, err := sqlrepo.Open(cfg.Dialect, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sql storage: %w", err)
		}
		return sqlrepo.New(db, cfg.Dialect), db.Close, nil
	case config.DriverGORM:
		db, err := gormrepo.Open(cfg.Dialect, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open gorm storage: %w", err)
		}
		return gormrepo.New(db), func() error { return gormrepo.Close(db) }, nil
	case config.DriverMongo:
		client, err := mongorepo.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open mongo storage: %w", err)
		}
		store, err := mongorepo.New(ctx, client.Database(cfg.Database))
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("prepare mongo storage: %w", err)
		}
		return store, func() error { return client.Disconnect(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// storageProbe is a cheap round trip used by the health service.
func storageProbe(s repository.Storage) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.GetUserByEmail(ctx, "health-probe@invalid")
		return err
	}
}
