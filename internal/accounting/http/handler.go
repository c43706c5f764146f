package accountinghttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgers"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/tax"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// ActorHeader carries the id of the user performing a write.
const ActorHeader = "X-Actor-ID"

type journalService interface {
	PostEntry(ctx context.Context, input journals.PostingInput) (journals.JournalEntry, error)
	ReverseEntry(ctx context.Context, input journals.ReverseInput) (journals.JournalEntry, error)
	GetEntry(ctx context.Context, companyID, entryID int64) (journals.JournalEntry, error)
	ListEntries(ctx context.Context, companyID int64, filter journals.ListFilter) ([]journals.JournalEntry, internalShared.Pagination, error)
}

type reportEngine interface {
	AccountBalance(ctx context.Context, companyID, accountID int64, asOf time.Time) (decimal.Decimal, error)
	TrialBalance(ctx context.Context, companyID int64, asOf time.Time) (reports.TrialBalance, error)
	TradingAndProfitLoss(ctx context.Context, companyID int64, rng shared.DateRange) (reports.TradingProfitLoss, error)
	BalanceSheet(ctx context.Context, companyID int64, asOf time.Time) (reports.BalanceSheet, error)
	Statements(ctx context.Context, companyID int64, rng shared.DateRange) (reports.Bundle, error)
}

type ledgerReader interface {
	Statement(ctx context.Context, q ledgers.Query) (*ledgers.Statement, error)
}

type chartService interface {
	List(ctx context.Context, companyID int64) ([]accounts.Account, error)
	Get(ctx context.Context, companyID, id int64) (accounts.Account, error)
	Create(ctx context.Context, in accounts.CreateInput) (accounts.Account, error)
	Rename(ctx context.Context, companyID, id int64, code, name string) (accounts.Account, error)
	Deactivate(ctx context.Context, companyID, id int64) error
}

type mappingResolver interface {
	Resolve(ctx context.Context, companyID int64, key string) (int64, error)
}

type lockService interface {
	Current(ctx context.Context, companyID int64) (periods.Lock, error)
	LockThrough(ctx context.Context, companyID int64, through time.Time, actorID int64) (periods.Lock, error)
}

type stockService interface {
	RecordInward(ctx context.Context, input inventory.InwardInput) (inventory.Movement, inventory.Position, error)
	RecordOutward(ctx context.Context, input inventory.OutwardInput) (inventory.Movement, inventory.Position, error)
}

// Services groups the collaborators served over HTTP. Stock may be nil.
type Services struct {
	Journals journalService
	Reports  reportEngine
	Ledgers  ledgerReader
	Accounts chartService
	Mappings mappingResolver
	Periods  lockService
	Stock    stockService
	Tax      tax.Calculator
}

// Handler exposes the ledger over a JSON API.
type Handler struct {
	logger   *slog.Logger
	svc      Services
	validate *validator.Validate
	flights  *flightGroup
	now      func() time.Time
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, svc Services) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		flights:  &flightGroup{},
		now:      time.Now,
	}
}

// WithNow overrides the clock used for default report dates.
func (h *Handler) WithNow(now func() time.Time) {
	if now != nil {
		h.now = now
	}
}

// MountRoutes registers the ledger endpoints under /companies/{companyID}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/tax/split", h.handleTaxSplit)
	r.Route("/companies/{companyID}", func(r chi.Router) {
		r.Route("/journals", func(r chi.Router) {
			r.Get("/", h.handleListEntries)
			r.Post("/", h.handlePostEntry)
			r.Get("/{entryID}", h.handleGetEntry)
			r.Post("/{entryID}/reverse", h.handleReverseEntry)
		})
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.handleListAccounts)
			r.Post("/", h.handleCreateAccount)
			r.Get("/{accountID}", h.handleGetAccount)
			r.Patch("/{accountID}", h.handleRenameAccount)
			r.Post("/{accountID}/deactivate", h.handleDeactivateAccount)
			r.Get("/{accountID}/balance", h.handleAccountBalance)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Get("/trial-balance", h.handleTrialBalance)
			r.Get("/profit-loss", h.handleProfitLoss)
			r.Get("/balance-sheet", h.handleBalanceSheet)
			r.Get("/statements", h.handleStatements)
		})
		r.Get("/ledgers/{kind}/{subjectID}", h.handleLedger)
		r.Get("/ledgers/{kind}/{subjectID}/export.csv", h.handleLedgerCSV)
		r.Get("/mappings/{key}", h.handleResolveMapping)
		r.Get("/periods/lock", h.handleGetLock)
		r.Put("/periods/lock", h.handleSetLock)
		if h.svc.Stock != nil {
			r.Post("/inventory/inward", h.handleInward)
			r.Post("/inventory/outward", h.handleOutward)
		}
	})
}

func classify(err error) (int, string, string, bool) {
	switch {
	case errors.Is(err, inventory.ErrNegativeStock),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInvalidUnitCost),
		errors.Is(err, inventory.ErrBackdatedMovement):
		return http.StatusUnprocessableEntity, "Stock Movement Rejected", "", true
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "Bad Request", "", true
	}
	switch shared.KindOf(err) {
	case shared.KindValidation:
		code := shared.ValidationCode(err)
		if code == "InvalidQuery" {
			return http.StatusBadRequest, "Invalid Query", code, true
		}
		return http.StatusUnprocessableEntity, "Validation Failed", code, true
	case shared.KindConflict:
		return http.StatusConflict, "Conflict", "", true
	case shared.KindNotFound:
		return http.StatusNotFound, "Not Found", "", true
	case shared.KindUnavailable:
		return http.StatusServiceUnavailable, "Ledger Unavailable", "", true
	case shared.KindCanceled:
		return http.StatusGatewayTimeout, "Request Timed Out", "", true
	}
	return 0, "", "", false
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if shared.KindOf(err) == shared.KindInternal {
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	httpx.RespondError(w, err, classify)
}

var errBadRequest = errors.New("bad request")

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

type requestError struct{ msg string }

func (e *requestError) Error() string        { return e.msg }
func (e *requestError) Is(target error) bool { return target == errBadRequest }

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid " + name)
	}
	return id, nil
}

func actorID(r *http.Request) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get(ActorHeader)), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid " + name)
	}
	return v, nil
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, nil
	}
	return shared.ParseDate(raw)
}

// asOf reads as_of, defaulting to today.
func (h *Handler) asOf(r *http.Request) (time.Time, error) {
	d, err := queryDate(r, "as_of")
	if err != nil || !d.IsZero() {
		return d, err
	}
	return shared.Date(h.now()), nil
}

func queryRange(r *http.Request) (shared.DateRange, error) {
	from, err := queryDate(r, "from")
	if err != nil {
		return shared.DateRange{}, err
	}
	to, err := queryDate(r, "to")
	if err != nil {
		return shared.DateRange{}, err
	}
	return shared.DateRange{From: from, To: to}, nil
}

// dateRange reads from/to; a missing to means today.
func (h *Handler) dateRange(r *http.Request) (shared.DateRange, error) {
	rng, err := queryRange(r)
	if err != nil {
		return shared.DateRange{}, err
	}
	if rng.To.IsZero() {
		rng.To = h.now()
	}
	return rng.Normalize(), nil
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return badRequest(err.Error())
	}
	if err := h.validate.Struct(target); err != nil {
		return badRequest(describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
