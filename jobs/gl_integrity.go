package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

const glIntegrityJob = "gl_integrity"

// Statements builds the reports the integrity check compares.
type Statements interface {
	TrialBalance(ctx context.Context, companyID int64, asOf time.Time) (reports.TrialBalance, error)
	BalanceSheet(ctx context.Context, companyID int64, asOf time.Time) (reports.BalanceSheet, error)
}

// CompanyLister enumerates companies keeping a ledger.
type CompanyLister interface {
	Companies(ctx context.Context) ([]int64, error)
}

// IntegrityResult summarises one company.
type IntegrityResult struct {
	CompanyID int64
	AsOf      time.Time
	Warnings  []shared.IntegrityWarning
}

// GLIntegrityJob recomputes the trial balance and balance sheet of every
// company and reports failed equalities. It never modifies the ledger.
type GLIntegrityJob struct {
	statements Statements
	companies  CompanyLister
	metrics    *jobmetrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewGLIntegrityJob wires the job.
func NewGLIntegrityJob(statements Statements, companies CompanyLister, metrics *jobmetrics.Metrics, logger *slog.Logger) *GLIntegrityJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &GLIntegrityJob{statements: statements, companies: companies, metrics: metrics, logger: logger, now: time.Now}
}

// WithNow overrides the clock.
func (j *GLIntegrityJob) WithNow(now func() time.Time) {
	if now != nil {
		j.now = now
	}
}

// Run checks the companies named in payload. Companies that fail to load are
// logged and skipped; the joined error is returned after the others ran.
func (j *GLIntegrityJob) Run(ctx context.Context, payload GLIntegrityPayload) ([]IntegrityResult, error) {
	tracker := j.metrics.Track(glIntegrityJob)
	asOf, err := payload.asOf(j.now())
	if err != nil {
		return nil, tracker.End(err)
	}
	ids := payload.CompanyIDs
	if len(ids) == 0 {
		if ids, err = j.companies.Companies(ctx); err != nil {
			return nil, tracker.End(fmt.Errorf("jobs: list companies: %w", err))
		}
	}
	results := make([]IntegrityResult, 0, len(ids))
	var errs []error
	for _, companyID := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := j.check(ctx, companyID, asOf)
		if err != nil {
			j.logger.Error("gl integrity check failed", slog.Int64("company_id", companyID), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("company %d: %w", companyID, err))
			continue
		}
		results = append(results, res)
	}
	return results, tracker.End(errors.Join(errs...))
}

func (j *GLIntegrityJob) check(ctx context.Context, companyID int64, asOf time.Time) (IntegrityResult, error) {
	tb, err := j.statements.TrialBalance(ctx, companyID, asOf)
	if err != nil {
		return IntegrityResult{}, err
	}
	bs, err := j.statements.BalanceSheet(ctx, companyID, asOf)
	if err != nil {
		return IntegrityResult{}, err
	}
	res := IntegrityResult{CompanyID: companyID, AsOf: asOf}
	res.Warnings = append(res.Warnings, tb.Warnings...)
	res.Warnings = append(res.Warnings, bs.Warnings...)
	for _, w := range res.Warnings {
		j.metrics.AddIntegrityWarnings(w.Check, w.Severity, companyID, 1)
		j.logger.Warn("ledger integrity warning",
			slog.Int64("company_id", companyID),
			slog.String("check", w.Check),
			slog.String("severity", w.Severity),
			slog.String("difference", shared.FormatAmount(w.Difference)),
			slog.String("as_of", shared.FormatDate(asOf)))
	}
	if len(res.Warnings) == 0 {
		j.logger.Info("gl integrity check passed", slog.Int64("company_id", companyID), slog.String("as_of", shared.FormatDate(asOf)))
	}
	return res, nil
}

// Handle processes TaskGLIntegrity tasks.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload GLIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: decode gl integrity payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if _, err := payload.asOf(j.now()); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	_, err := j.Run(ctx, payload)
	return err
}
