// Package storage selects and opens the configured SequenceStore.
package storage

import (
	"context"
	"fmt"
	"strings"

	"sfgnexus/internal/core/apperror"
	"sfgnexus/internal/core/basenumber"
	"sfgnexus/internal/infrastructure/storage/boltdb"
	"sfgnexus/internal/infrastructure/storage/memory"
	"sfgnexus/internal/infrastructure/storage/postgres"
	"sfgnexus/internal/infrastructure/storage/sqlite"
	"sfgnexus/pkg/logger"
)

// Driver names a SequenceStore backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverBolt     Driver = "bolt"
	DriverMemory   Driver = "memory"
)

// Drivers lists the supported backends.
func Drivers() []Driver {
	return []Driver{DriverPostgres, DriverSQLite, DriverBolt, DriverMemory}
}

// ParseDriver normalizes a driver name. Empty means postgres.
func ParseDriver(raw string) (Driver, error) {
	d := Driver(strings.ToLower(strings.TrimSpace(raw)))
	if d == "" {
		return DriverPostgres, nil
	}
	for _, known := range Drivers() {
		if d == known {
			return d, nil
		}
	}
	return "", apperror.NewValidation("unknown store driver").
		WithDetail("driver", raw).
		WithDetail("allowed", Drivers())
}

// Config selects a backend and where it lives.
type Config struct {
	Driver Driver
	// DSN is the PostgreSQL connection string.
	DSN string
	// Path is the database file for sqlite and bolt.
	Path string
	// Pool overrides the postgres pool defaults; DSN is taken from the field above.
	Pool *postgres.PoolConfig
}

// StatsReporter is implemented by stores that expose runtime statistics.
type StatsReporter interface {
	Stats() map[string]any
}

// Open opens the configured store. The returned func releases it.
func Open(ctx context.Context, cfg Config) (basenumber.SequenceStore, func(), error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		if cfg.DSN == "" {
			return nil, nil, fmt.Errorf("postgres store requires a DSN")
		}
		poolCfg := postgres.DefaultPoolConfig(cfg.DSN)
		if cfg.Pool != nil {
			poolCfg = *cfg.Pool
			poolCfg.DSN = cfg.DSN
		}
		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		store := postgres.NewSequenceStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info(ctx, "sequence store opened", "driver", DriverPostgres)
		return store, pool.Close, nil

	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = "sfgnexus.db"
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		logger.Info(ctx, "sequence store opened", "driver", DriverSQLite, "path", path)
		return store, closer(ctx, DriverSQLite, store.Close), nil

	case DriverBolt:
		path := cfg.Path
		if path == "" {
			path = "sfgnexus.bolt"
		}
		store, err := boltdb.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("bolt store: %w", err)
		}
		logger.Info(ctx, "sequence store opened", "driver", DriverBolt, "path", path)
		return store, closer(ctx, DriverBolt, store.Close), nil

	case DriverMemory:
		store := memory.NewSequenceStore()
		logger.Warn(ctx, "sequence store is in-memory; numbers are lost on restart")
		return store, store.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func closer(ctx context.Context, driver Driver, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			logger.Error(ctx, "failed to close sequence store", "driver", driver, "error", err)
		}
	}
}
