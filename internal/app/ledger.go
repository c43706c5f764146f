package app

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	accountinghttp "github.com/odyssey-erp/odyssey-ledger/internal/accounting/http"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgers"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/memstore"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/integration"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type auditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Stores bundles the persistence adapters behind the ledger services.
type Stores struct {
	Accounts    accounts.Repository
	Journals    journals.Repository
	Mappings    mappings.Repository
	Periods     periods.Repository
	Reports     reports.Repository
	Ledgers     ledgers.Repository
	Inventory   inventory.RepositoryPort
	Audit       auditRecorder
	Idempotency inventory.IdempotencyPort
}

// PostgresStores builds the pgx-backed adapters.
func PostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Accounts:    accounts.NewRepository(pool),
		Journals:    journals.NewRepository(pool),
		Mappings:    mappings.NewRepository(pool),
		Periods:     periods.NewRepository(pool),
		Reports:     reports.NewRepository(pool),
		Ledgers:     ledgers.NewRepository(pool),
		Inventory:   inventory.NewRepository(pool),
		Audit:       shared.NewAuditLogger(pool),
		Idempotency: shared.NewIdempotencyStore(pool),
	}
}

// MemoryStores builds the in-process adapters used without PG_DSN.
func MemoryStores(store *memstore.Store) Stores {
	return Stores{
		Accounts:    store.Accounts(),
		Journals:    store.Journals(),
		Mappings:    store.Mappings(),
		Periods:     store.Periods(),
		Reports:     store.Reports(),
		Ledgers:     store.Ledgers(),
		Inventory:   store.Inventory(),
		Audit:       store.Audit(),
		Idempotency: store.Idempotency(),
	}
}

// LedgerDeps carries the optional infrastructure of the ledger graph.
type LedgerDeps struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Redis   *redis.Client
}

// Ledger is the wired service graph of one process.
type Ledger struct {
	Accounts *accounts.Service
	Journals *journals.Service
	Mappings *mappings.Service
	Periods  *periods.Service
	Reports  *reports.Engine
	Ledgers  *ledgers.Reader
	Stock    *inventory.Service
	Hooks    *integration.Hooks
	Handler  *accountinghttp.Handler
}

// BuildLedger wires services, caches and the HTTP adapter over stores.
func BuildLedger(cfg *Config, stores Stores, deps LedgerDeps) *Ledger {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	calc := cfg.TaxCalculator()

	poster := journals.NewService(stores.Journals, stores.Audit, logger.With(slog.String("component", "journals")))
	poster.WithTimeout(cfg.LedgerQueryTimeout)
	if deps.Metrics != nil {
		poster.WithObserver(deps.Metrics)
	}

	maps := mappings.NewService(stores.Mappings)
	hooks := integration.NewHooks(poster, maps, calc, logger.With(slog.String("component", "integration")))
	stock := inventory.NewService(stores.Inventory, stores.Audit, stores.Idempotency, inventory.ServiceConfig{
		AllowNegativeStock: cfg.InventoryAllowNegative,
		Locks:              poster.Locks(),
		Periods:            poster,
	}, hooks)
	stock.WithLogger(logger.With(slog.String("component", "inventory")))

	engine := reports.NewEngine(stores.Reports, maps, logger.With(slog.String("component", "reports")))
	engine.WithTimeout(cfg.LedgerQueryTimeout)

	var opening ledgers.OpeningCache
	if deps.Redis != nil {
		cache := ledgers.NewRedisOpeningCache(deps.Redis, cfg.LedgerOpeningCacheTTL, logger.With(slog.String("component", "opening_cache")))
		poster.WithInvalidator(cache)
		stock.WithInvalidator(cache)
		opening = cache
	}
	reader := ledgers.NewReader(stores.Ledgers, opening, logger.With(slog.String("component", "ledgers")))
	reader.WithBatch(cfg.LedgerStatementBatch)
	reader.WithTimeout(cfg.LedgerQueryTimeout)

	chart := accounts.NewService(stores.Accounts)
	locks := periods.NewService(stores.Periods)

	handler := accountinghttp.NewHandler(logger.With(slog.String("component", "http")), accountinghttp.Services{
		Journals: poster,
		Reports:  engine,
		Ledgers:  reader,
		Accounts: chart,
		Mappings: maps,
		Periods:  locks,
		Stock:    stock,
		Tax:      calc,
	})

	return &Ledger{
		Accounts: chart,
		Journals: poster,
		Mappings: maps,
		Periods:  locks,
		Reports:  engine,
		Ledgers:  reader,
		Stock:    stock,
		Hooks:    hooks,
		Handler:  handler,
	}
}
