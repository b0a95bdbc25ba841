package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"safety-tracker/internal/controllers"
	"safety-tracker/internal/repositories"
	"safety-tracker/internal/repositories/memory"
	"safety-tracker/pkg/config"
	"safety-tracker/pkg/database/migrations"
	"safety-tracker/pkg/database/postgresql"
)

// storage - репозитории поверх выбранного драйвера.
type storage struct {
	txManager repositories.TxManagerInterface
	employees repositories.EmployeeRepositoryInterface
	equipment repositories.EquipmentRepositoryInterface
	issues    repositories.IssueRepositoryInterface
	pinger    controllers.Pinger
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger, runMigrations bool) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("Хранилище в памяти: данные пропадут после остановки")
		store := memory.NewStore()
		return &storage{
			txManager: store,
			employees: memory.NewEmployeeRepository(store),
			equipment: memory.NewEquipmentRepository(store),
			issues:    memory.NewIssueRepository(store),
			pinger:    store,
			close:     func() {},
		}, nil

	case config.StorageDriverPostgres:
		pool, err := postgresql.ConnectDB(ctx, cfg.Storage.DSN, logger)
		if err != nil {
			return nil, err
		}
		if runMigrations {
			if err := migrations.Up(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &storage{
			txManager: repositories.NewTxManager(pool),
			employees: repositories.NewEmployeeRepository(pool, logger.Named("employee")),
			equipment: repositories.NewEquipmentRepository(pool, logger.Named("equipment")),
			issues:    repositories.NewIssueRepository(pool, logger.Named("issue")),
			pinger:    pool,
			close:     pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища %q", cfg.Storage.Driver)
	}
}

// openCache: Redis, если задан REDIS_ADDRESS, иначе кеш в памяти процесса.
func openCache(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (repositories.CacheRepositoryInterface, func(), error) {
	if cfg.Address == "" {
		logger.Info("REDIS_ADDRESS не задан, счётчик попыток входа хранится в памяти")
		return memory.NewCache(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       0,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("не удалось подключиться к Redis %s: %w", cfg.Address, err)
	}
	logger.Info("Подключение к Redis установлено", zap.String("address", cfg.Address))
	return repositories.NewRedisCacheRepository(client), func() { _ = client.Close() }, nil
}
