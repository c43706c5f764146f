package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/tax"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	AppRateLimit      int           `envconfig:"APP_RATE_LIMIT" default:"600"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// PGDSN empty runs the ledger on the in-memory store.
	PGDSN          string `envconfig:"PG_DSN"`
	PGMaxConns     int32  `envconfig:"PG_MAX_CONNS" default:"10"`
	MigrationsAuto bool   `envconfig:"MIGRATIONS_AUTO" default:"true"`

	// RedisAddr empty disables the opening-balance cache and the job queue.
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	LedgerQueryTimeout     time.Duration `envconfig:"LEDGER_QUERY_TIMEOUT" default:"15s"`
	LedgerOpeningCacheTTL  time.Duration `envconfig:"LEDGER_OPENING_CACHE_TTL" default:"10m"`
	LedgerStatementBatch   int           `envconfig:"LEDGER_STATEMENT_BATCH" default:"500"`
	InventoryAllowNegative bool          `envconfig:"INVENTORY_ALLOW_NEGATIVE" default:"false"`
	TaxMissingStatePolicy  string        `envconfig:"TAX_MISSING_STATE_POLICY" default:"intra"`

	IntegrityCron     string `envconfig:"GL_INTEGRITY_CRON" default:"0 2 * * *"`
	IdempotencyCron   string `envconfig:"IDEMPOTENCY_CLEANUP_CRON" default:"30 3 * * 0"`
	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"2"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if _, err := tax.ParsePolicy(cfg.TaxMissingStatePolicy); err != nil {
		return nil, err
	}
	if cfg.LedgerStatementBatch <= 0 {
		return nil, errors.New("ledger statement batch must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// RedisOptions returns the cache connection settings.
func (c *Config) RedisOptions() cache.Options {
	return cache.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// PoolOptions returns the Postgres pool settings.
func (c *Config) PoolOptions() db.PoolOptions {
	return db.PoolOptions{MaxConns: c.PGMaxConns, ApplicationName: "odyssey-ledger"}
}

// TaxCalculator builds the calculator for the configured missing-state policy.
func (c *Config) TaxCalculator() tax.Calculator {
	policy, err := tax.ParsePolicy(c.TaxMissingStatePolicy)
	if err != nil {
		return tax.DefaultCalculator
	}
	return tax.Calculator{MissingState: policy}
}
