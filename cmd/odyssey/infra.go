package main

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/memstore"
	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/migrations"
)

// infra holds the process-wide connections.
type infra struct {
	pool   *pgxpool.Pool
	redis  *redis.Client
	logger *slog.Logger
}

func openInfra(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*infra, error) {
	in := &infra{logger: logger}
	if cfg.PGDSN != "" {
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PoolOptions())
		if err != nil {
			return nil, err
		}
		in.pool = pool
	}
	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisOptions())
		if err != nil {
			logger.Warn("redis unavailable, opening cache disabled", slog.Any("error", err))
		} else {
			in.redis = client
		}
	}
	return in, nil
}

func (in *infra) stores() app.Stores {
	if in.pool == nil {
		in.logger.Warn("PG_DSN not set, ledger runs on the in-memory store")
		return app.MemoryStores(memstore.New())
	}
	return app.PostgresStores(in.pool)
}

func (in *infra) migrate(down bool) error {
	m, err := db.NewMigrator(in.pool, migrations.FS, in.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			in.logger.Warn("close migrator", slog.Any("error", err))
		}
	}()
	if down {
		return m.Down()
	}
	return m.Up()
}

func (in *infra) readiness() map[string]app.ReadinessCheck {
	checks := map[string]app.ReadinessCheck{}
	if in.pool != nil {
		checks["postgres"] = in.pool.Ping
	}
	if in.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return in.redis.Ping(ctx).Err() }
	}
	return checks
}

func (in *infra) Close() {
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			in.logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if in.pool != nil {
		in.pool.Close()
	}
}

func asynqRedis(cfg *app.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
}
