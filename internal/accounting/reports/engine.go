package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// ClassifierSource yields the income statement classifier of a company.
type ClassifierSource interface {
	ClassifierFor(ctx context.Context, companyID int64) (mappings.Classifier, error)
}

// Engine derives statements from the journal. It keeps no state between calls.
type Engine struct {
	repo        Repository
	classifiers ClassifierSource
	logger      *slog.Logger
	timeout     time.Duration
}

func NewEngine(repo Repository, classifiers ClassifierSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, classifiers: classifiers, logger: logger, timeout: 15 * time.Second}
}

func (e *Engine) WithTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}

// AccountBalance returns the normal-side balance of one account through asOf.
func (e *Engine) AccountBalance(ctx context.Context, companyID, accountID int64, asOf time.Time) (decimal.Decimal, error) {
	if asOf.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: as of date required", shared.ErrInvalidQuery)
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	b, err := e.repo.AccountBalance(ctx, companyID, accountID, shared.Through(asOf))
	if err != nil {
		if errors.Is(err, shared.ErrAccountNotFound) {
			return decimal.Zero, fmt.Errorf("%w: account %d", shared.ErrInvalidAccount, accountID)
		}
		return decimal.Zero, e.fail("account balance", companyID, err)
	}
	return b.Normal(), nil
}

// TrialBalance lists every account with activity through asOf.
func (e *Engine) TrialBalance(ctx context.Context, companyID int64, asOf time.Time) (TrialBalance, error) {
	if asOf.IsZero() {
		return TrialBalance{}, fmt.Errorf("%w: as of date required", shared.ErrInvalidQuery)
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	balances, err := e.repo.Balances(ctx, companyID, shared.Through(asOf))
	if err != nil {
		return TrialBalance{}, e.fail("trial balance", companyID, err)
	}
	tb := BuildTrialBalance(balances)
	tb.CompanyID = companyID
	tb.AsOf = shared.Date(asOf)
	e.warn(companyID, tb.Warnings)
	return tb, nil
}

// TradingAndProfitLoss measures income and expense activity inside rng.
func (e *Engine) TradingAndProfitLoss(ctx context.Context, companyID int64, rng shared.DateRange) (TradingProfitLoss, error) {
	rng = rng.Normalize()
	if err := rng.Validate(); err != nil {
		return TradingProfitLoss{}, err
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	var classifier mappings.Classifier = mappings.TagClassifier{}
	if e.classifiers != nil {
		c, err := e.classifiers.ClassifierFor(ctx, companyID)
		if err != nil {
			return TradingProfitLoss{}, e.fail("classifier", companyID, err)
		}
		classifier = c
	}
	balances, err := e.repo.Balances(ctx, companyID, rng)
	if err != nil {
		return TradingProfitLoss{}, e.fail("profit and loss", companyID, err)
	}
	pl := BuildTradingAndProfitLoss(balances, classifier)
	pl.CompanyID = companyID
	pl.Range = rng
	return pl, nil
}

// BalanceSheet groups asset, liability and equity balances through asOf.
func (e *Engine) BalanceSheet(ctx context.Context, companyID int64, asOf time.Time) (BalanceSheet, error) {
	if asOf.IsZero() {
		return BalanceSheet{}, fmt.Errorf("%w: as of date required", shared.ErrInvalidQuery)
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	balances, err := e.repo.Balances(ctx, companyID, shared.Through(asOf))
	if err != nil {
		return BalanceSheet{}, e.fail("balance sheet", companyID, err)
	}
	bs := BuildBalanceSheet(balances)
	bs.CompanyID = companyID
	bs.AsOf = shared.Date(asOf)
	e.warn(companyID, bs.Warnings)
	return bs, nil
}

// Bundle carries the three statements of a dashboard.
type Bundle struct {
	TrialBalance TrialBalance      `json:"trial_balance"`
	BalanceSheet BalanceSheet      `json:"balance_sheet"`
	ProfitLoss   TradingProfitLoss `json:"profit_loss"`
}

// Statements builds trial balance and balance sheet at rng.To and the income
// statement over rng concurrently. Any failure discards the whole bundle.
func (e *Engine) Statements(ctx context.Context, companyID int64, rng shared.DateRange) (Bundle, error) {
	rng = rng.Normalize()
	if err := rng.Validate(); err != nil {
		return Bundle{}, err
	}
	var out Bundle
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tb, err := e.TrialBalance(gctx, companyID, rng.To)
		out.TrialBalance = tb
		return err
	})
	g.Go(func() error {
		bs, err := e.BalanceSheet(gctx, companyID, rng.To)
		out.BalanceSheet = bs
		return err
	})
	g.Go(func() error {
		pl, err := e.TradingAndProfitLoss(gctx, companyID, rng)
		out.ProfitLoss = pl
		return err
	})
	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	return out, nil
}

// fail makes sure store failures surface as ErrDataUnavailable.
func (e *Engine) fail(op string, companyID int64, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if shared.KindOf(err) == shared.KindValidation {
		return err
	}
	e.logger.Error("derive statement", slog.String("op", op), slog.Int64("company_id", companyID), slog.Any("error", err))
	return shared.Unavailable("reports: "+op, err)
}

func (e *Engine) warn(companyID int64, warnings []shared.IntegrityWarning) {
	for _, w := range warnings {
		e.logger.Warn("ledger integrity check failed",
			slog.Int64("company_id", companyID),
			slog.String("check", w.Check),
			slog.String("difference", w.Difference.String()),
			slog.String("severity", w.Severity))
	}
}
