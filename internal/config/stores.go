package config

import (
	"context"
	"fmt"

	"github.com/alechenninger/membergate/internal/governance"
)

// NewStore creates the member record store from configuration
func NewStore(ctx context.Context, cfg StoreConfig) (governance.Store, error) {
	switch cfg.Type {
	case "", "memory":
		return governance.NewMemoryStore(), nil
	case "snapshot":
		return newSnapshotStore(cfg)
	case "redis":
		return newRedisStore(cfg)
	case "postgres":
		return newSQLStore(ctx, governance.DialectPostgres, cfg)
	case "sqlite":
		return newSQLStore(ctx, governance.DialectSQLite, cfg)
	default:
		return nil, fmt.Errorf("unknown store type: %s (supported: memory, snapshot, redis, postgres, sqlite)", cfg.Type)
	}
}

// newSnapshotStore loads a member snapshot into memory
func newSnapshotStore(cfg StoreConfig) (governance.Store, error) {
	if cfg.SnapshotFile == "" {
		return nil, fmt.Errorf("snapshot store requires snapshot_file")
	}

	store, err := governance.LoadSnapshotFile(cfg.SnapshotFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", cfg.SnapshotFile, err)
	}
	return store, nil
}

// newRedisStore connects to Redis. The connection is checked lazily by health checks.
func newRedisStore(cfg StoreConfig) (governance.Store, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis store requires redis.addr")
	}

	return governance.NewRedisStore(governance.RedisConfig{
		Addr:      cfg.Redis.Addr,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		KeyPrefix: cfg.Redis.KeyPrefix,
	}), nil
}

// newSQLStore opens a SQL store, creating its tables first if configured to
func newSQLStore(ctx context.Context, dialect governance.Dialect, cfg StoreConfig) (governance.Store, error) {
	if cfg.SQL.DSN == "" {
		return nil, fmt.Errorf("%s store requires sql.dsn", dialect)
	}

	store, err := governance.OpenSQLStore(dialect, cfg.SQL.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.SQL.Migrate {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to migrate %s store: %w", dialect, err)
		}
	}

	return store, nil
}
