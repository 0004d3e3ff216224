// Package storage opens the task store selected by configuration.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/todo/internal/config"
	mysqlInfra "github.com/fastygo/todo/internal/infrastructure/mysql"
	pgInfra "github.com/fastygo/todo/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/todo/internal/infrastructure/redis"
	sqliteInfra "github.com/fastygo/todo/internal/infrastructure/sqlite"
	"github.com/fastygo/todo/repository"
	boltRepo "github.com/fastygo/todo/repository/bolt"
	"github.com/fastygo/todo/repository/memory"
	mysqlRepo "github.com/fastygo/todo/repository/mysql"
	"github.com/fastygo/todo/repository/postgres"
	redisRepo "github.com/fastygo/todo/repository/redis"
	sqliteRepo "github.com/fastygo/todo/repository/sqlite"
)

// Open connects to the configured backend, applying schema migrations for SQL drivers.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("driver", cfg.Storage.Driver))

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres connection: %w", err)
		}
		return postgres.NewTaskRepository(pool), nil

	case config.DriverMySQL:
		db, err := mysqlInfra.Open(ctx, cfg.MySQL, logger)
		if err != nil {
			return nil, fmt.Errorf("mysql connection: %w", err)
		}
		if cfg.Migrations.Enabled {
			if err := mysqlInfra.RunMigrations(db, cfg.Migrations.Path, logger); err != nil {
				db.Close()
				return nil, fmt.Errorf("mysql migrations: %w", err)
			}
		}
		return mysqlRepo.NewTaskRepository(db), nil

	case config.DriverSQLite:
		db, err := sqliteInfra.Open(ctx, cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("sqlite open: %w", err)
		}
		if cfg.Migrations.Enabled {
			if err := sqliteInfra.RunMigrations(db, cfg.Migrations.Path, logger); err != nil {
				db.Close()
				return nil, fmt.Errorf("sqlite migrations: %w", err)
			}
		}
		return sqliteRepo.NewTaskRepository(db), nil

	case config.DriverBolt:
		store, err := boltRepo.Open(cfg.Storage.BoltPath, "tasks")
		if err != nil {
			return nil, fmt.Errorf("bolt open: %w", err)
		}
		logger.Info("opened bolt database", zap.String("path", cfg.Storage.BoltPath))
		return store, nil

	case config.DriverRedis:
		client, err := redisInfra.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("redis connection: %w", err)
		}
		return redisRepo.NewTaskRepository(client, cfg.Redis.KeyPrefix), nil

	case config.DriverMemory:
		logger.Warn("using in-memory task store; data is lost on exit")
		return memory.NewTaskRepository(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
