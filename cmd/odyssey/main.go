package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-ledger/cmd/odyssey/cli"
	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	command, args := "serve", []string(nil)
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	var code int
	switch command {
	case "serve":
		code = runServe(ctx, cfg, logger)
	case "migrate":
		code = runMigrate(ctx, cfg, logger, args)
	case "integrity":
		code = runIntegrity(ctx, cfg, logger, args)
	case "jobs":
		code = runJobs(ctx, cfg, logger, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", command)
		printUsage()
		code = 1
	}
	stop()
	os.Exit(code)
}

func printUsage() {
	fmt.Println("odyssey ledger")
	fmt.Println("\nUsage:")
	fmt.Println("  odyssey <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve       Run the ledger HTTP API (default)")
	fmt.Println("  migrate     Apply or roll back schema migrations")
	fmt.Println("  integrity   Run the GL integrity check in-process")
	fmt.Println("  jobs        Enqueue jobs or inspect the queue")
}

func runServe(ctx context.Context, cfg *app.Config, logger *slog.Logger) int {
	in, err := openInfra(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer in.Close()

	if in.pool != nil && cfg.MigrationsAuto {
		if err := in.migrate(false); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			return 1
		}
	}

	metrics := observability.NewMetrics()
	ledger := app.BuildLedger(cfg, in.stores(), app.LedgerDeps{Logger: logger, Metrics: metrics, Redis: in.redis})

	var inspector jobs.QueueInspector
	if in.redis != nil {
		insp := asynq.NewInspector(asynqRedis(cfg))
		inspector = insp
		defer func() {
			if err := insp.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
	}

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AccountingHandler: ledger.Handler,
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
		Readiness:         in.readiness(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		return 1
	}
	return 0
}

func runMigrate(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	down := fs.Bool("down", false, "roll back every migration")
	_ = fs.Parse(args)

	if cfg.PGDSN == "" {
		logger.Error("migrate requires PG_DSN")
		return 1
	}
	in, err := openInfra(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer in.Close()
	if err := in.migrate(*down); err != nil {
		logger.Error("migrate", slog.Bool("down", *down), slog.Any("error", err))
		return 1
	}
	return 0
}

func runIntegrity(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("integrity", flag.ExitOnError)
	companies := fs.String("company", "", "comma separated company ids (default: all)")
	asOf := fs.String("as-of", "", "check date YYYY-MM-DD (default: today)")
	asJSON := fs.Bool("json", false, "print a JSON summary")
	_ = fs.Parse(args)

	if cfg.PGDSN == "" {
		logger.Error("integrity requires PG_DSN")
		return cli.ExitError
	}
	in, err := openInfra(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return cli.ExitError
	}
	defer in.Close()

	ledger := app.BuildLedger(cfg, in.stores(), app.LedgerDeps{Logger: logger})
	job := jobs.NewGLIntegrityJob(ledger.Reports, ledger.Accounts, jobmetrics.NewMetrics(nil), logger)
	return cli.NewIntegrityCLI(job).CheckCommand(ctx, cli.IntegrityOptions{
		Companies:  *companies,
		AsOf:       *asOf,
		JSONOutput: *asJSON,
	})
}

func runJobs(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "usage: odyssey jobs trigger <gl_integrity|idempotency_cleanup> | stats")
		return 1
	}
	client := cli.NewJobsCLI(asynqRedis(cfg))
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
	}()

	switch args[0] {
	case "trigger":
		fs := flag.NewFlagSet("jobs trigger", flag.ExitOnError)
		companies := fs.String("company", "", "comma separated company ids for gl_integrity")
		asOf := fs.String("as-of", "", "check date YYYY-MM-DD for gl_integrity")
		_ = fs.Parse(args[1:])
		if fs.NArg() != 1 {
			_, _ = fmt.Fprintln(os.Stderr, "jobs trigger: job name required")
			return 1
		}
		ids, err := cli.ParseCompanyIDs(*companies)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		info, err := client.Trigger(ctx, fs.Arg(0), jobs.GLIntegrityPayload{CompanyIDs: ids, AsOf: *asOf})
		if err != nil {
			logger.Error("enqueue job", slog.String("job", fs.Arg(0)), slog.Any("error", err))
			return 1
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		health, err := client.InspectQueues(ctx)
		if err != nil {
			logger.Error("inspect queues", slog.Any("error", err))
			return 1
		}
		fmt.Printf("status=%s\n", health.Status)
		for _, q := range health.Queues {
			fmt.Printf("queue=%s pending=%d active=%d retry=%d archived=%d paused=%t\n",
				q.Queue, q.Pending, q.Active, q.Retry, q.Archived, q.Paused)
		}
	default:
		_, _ = fmt.Fprintf(os.Stderr, "jobs: unknown subcommand %s\n", args[0])
		return 1
	}
	return 0
}
