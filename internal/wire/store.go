package wire

import (
	"context"
	"fmt"

	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/streamguard/streamguard/internal/config"
	"github.com/streamguard/streamguard/internal/database"
	"github.com/streamguard/streamguard/internal/repository"
	"github.com/streamguard/streamguard/internal/repository/file"
	"github.com/streamguard/streamguard/internal/repository/postgres"
)

// StateStoreResult wraps the selected state store with its cleanup function.
type StateStoreResult struct {
	Store   repository.StateStore
	Cleanup func()
}

// StoreSet provides the persistence backend.
var StoreSet = wire.NewSet(
	ProvideStateStore,
	wire.FieldsOf(new(*StateStoreResult), "Store"),
)

// ProvideStateStore selects the persistence backend from configuration.
// The file backend is the default; postgres connects, migrates, and
// persists state in a single-row table.
func ProvideStateStore(cfg *config.Config, logger *zap.Logger) (*StateStoreResult, error) {
	switch cfg.Store.Backend {
	case "file", "":
		logger.Info("using file state store", zap.String("path", cfg.Store.FilePath))
		return &StateStoreResult{
			Store:   file.NewStore(cfg.Store.FilePath),
			Cleanup: func() {},
		}, nil

	case "postgres":
		poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to parse postgres config: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
		poolCfg.MaxConnLifetime = cfg.Postgres.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		if err := pool.Ping(context.Background()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}

		if err := database.RunMigrations(&database.MigrateConfig{
			DatabaseURL: cfg.Postgres.URL(),
			Logger:      logger,
		}); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		logger.Info("using postgres state store",
			zap.String("host", cfg.Postgres.Host),
			zap.String("database", cfg.Postgres.Database),
		)
		return &StateStoreResult{
			Store:   postgres.NewStateRepository(pool),
			Cleanup: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown state store backend: %q", cfg.Store.Backend)
	}
}
