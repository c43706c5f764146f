package accountinghttp

import (
	"context"
	"net/http"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

type profitLossResponse struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	reports.TradingProfitLoss
}

type bundleResponse struct {
	From         string                    `json:"from,omitempty"`
	To           string                    `json:"to"`
	TrialBalance reports.TrialBalance      `json:"trial_balance"`
	BalanceSheet reports.BalanceSheet      `json:"balance_sheet"`
	ProfitLoss   reports.TradingProfitLoss `json:"profit_loss"`
}

func (h *Handler) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "account balance", err)
		return
	}
	accountID, err := pathID(r, "accountID")
	if err != nil {
		h.fail(w, r, "account balance", err)
		return
	}
	asOf, err := h.asOf(r)
	if err != nil {
		h.fail(w, r, "account balance", err)
		return
	}
	balance, err := h.svc.Reports.AccountBalance(r.Context(), companyID, accountID, asOf)
	if err != nil {
		h.fail(w, r, "account balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"account_id": accountID,
		"as_of":      shared.FormatDate(asOf),
		"balance":    balance,
	})
}

func (h *Handler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	companyID, asOf, ok := h.asOfParams(w, r, "trial balance")
	if !ok {
		return
	}
	res, err := h.build(r.Context(), reportKey("tb", companyID, asOf), func(ctx context.Context) (any, error) {
		return h.svc.Reports.TrialBalance(ctx, companyID, asOf)
	})
	if err != nil {
		h.fail(w, r, "trial balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	companyID, asOf, ok := h.asOfParams(w, r, "balance sheet")
	if !ok {
		return
	}
	res, err := h.build(r.Context(), reportKey("bs", companyID, asOf), func(ctx context.Context) (any, error) {
		return h.svc.Reports.BalanceSheet(ctx, companyID, asOf)
	})
	if err != nil {
		h.fail(w, r, "balance sheet", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	companyID, rng, ok := h.rangeParams(w, r, "profit and loss")
	if !ok {
		return
	}
	res, err := h.build(r.Context(), reportKey("pl", companyID, rng.From, rng.To), func(ctx context.Context) (any, error) {
		pl, err := h.svc.Reports.TradingAndProfitLoss(ctx, companyID, rng)
		if err != nil {
			return nil, err
		}
		return profitLossResponse{From: shared.FormatDate(rng.From), To: shared.FormatDate(rng.To), TradingProfitLoss: pl}, nil
	})
	if err != nil {
		h.fail(w, r, "profit and loss", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleStatements(w http.ResponseWriter, r *http.Request) {
	companyID, rng, ok := h.rangeParams(w, r, "statements")
	if !ok {
		return
	}
	res, err := h.build(r.Context(), reportKey("bundle", companyID, rng.From, rng.To), func(ctx context.Context) (any, error) {
		b, err := h.svc.Reports.Statements(ctx, companyID, rng)
		if err != nil {
			return nil, err
		}
		return bundleResponse{
			From:         shared.FormatDate(rng.From),
			To:           shared.FormatDate(rng.To),
			TrialBalance: b.TrialBalance,
			BalanceSheet: b.BalanceSheet,
			ProfitLoss:   b.ProfitLoss,
		}, nil
	})
	if err != nil {
		h.fail(w, r, "statements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) build(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	res, dup, err := h.flights.do(ctx, key, fn)
	if dup {
		h.logger.Debug("report build shared", "key", key)
	}
	return res, err
}

func (h *Handler) asOfParams(w http.ResponseWriter, r *http.Request, op string) (int64, time.Time, bool) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, op, err)
		return 0, time.Time{}, false
	}
	asOf, err := h.asOf(r)
	if err != nil {
		h.fail(w, r, op, err)
		return 0, time.Time{}, false
	}
	return companyID, asOf, true
}

func (h *Handler) rangeParams(w http.ResponseWriter, r *http.Request, op string) (int64, shared.DateRange, bool) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, op, err)
		return 0, shared.DateRange{}, false
	}
	rng, err := h.dateRange(r)
	if err != nil {
		h.fail(w, r, op, err)
		return 0, shared.DateRange{}, false
	}
	return companyID, rng, true
}
