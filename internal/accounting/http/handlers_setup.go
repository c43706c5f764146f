package accountinghttp

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/tax"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

func (h *Handler) handleTaxSplit(w http.ResponseWriter, r *http.Request) {
	var req taxSplitRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "tax split", err)
		return
	}
	var (
		split tax.Split
		err   error
	)
	if req.Buyer != nil && req.Seller != nil {
		split, err = h.svc.Tax.ComputeForParties(req.Taxable, req.RatePercent, *req.Buyer, *req.Seller)
	} else {
		split, err = h.svc.Tax.ComputeTaxSplit(req.Taxable, req.RatePercent, req.BuyerState, req.SellerState)
	}
	if err != nil {
		h.fail(w, r, "tax split", err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		tax.Split
		InterState bool `json:"inter_state"`
	}{split, split.InterState()})
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "list accounts", err)
		return
	}
	list, err := h.svc.Accounts.List(r.Context(), companyID)
	if err != nil {
		h.fail(w, r, "list accounts", err)
		return
	}
	out := make([]accountResponse, len(list))
	for i, a := range list {
		out[i] = newAccountResponse(a)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "get account", err)
		return
	}
	id, err := pathID(r, "accountID")
	if err != nil {
		h.fail(w, r, "get account", err)
		return
	}
	acct, err := h.svc.Accounts.Get(r.Context(), companyID, id)
	if err != nil {
		h.fail(w, r, "get account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newAccountResponse(acct))
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "create account", err)
		return
	}
	var req accountRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "create account", err)
		return
	}
	acct, err := h.svc.Accounts.Create(r.Context(), accounts.CreateInput{
		CompanyID: companyID,
		Code:      req.Code,
		Name:      req.Name,
		Type:      accounts.AccountType(req.Type),
		Category:  req.Category,
	})
	if err != nil {
		h.fail(w, r, "create account", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newAccountResponse(acct))
}

func (h *Handler) handleRenameAccount(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "rename account", err)
		return
	}
	id, err := pathID(r, "accountID")
	if err != nil {
		h.fail(w, r, "rename account", err)
		return
	}
	var req renameRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "rename account", err)
		return
	}
	acct, err := h.svc.Accounts.Rename(r.Context(), companyID, id, req.Code, req.Name)
	if err != nil {
		h.fail(w, r, "rename account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newAccountResponse(acct))
}

func (h *Handler) handleDeactivateAccount(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "deactivate account", err)
		return
	}
	id, err := pathID(r, "accountID")
	if err != nil {
		h.fail(w, r, "deactivate account", err)
		return
	}
	if err := h.svc.Accounts.Deactivate(r.Context(), companyID, id); err != nil {
		h.fail(w, r, "deactivate account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleResolveMapping(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "resolve mapping", err)
		return
	}
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	accountID, err := h.svc.Mappings.Resolve(r.Context(), companyID, key)
	if err != nil {
		h.fail(w, r, "resolve mapping", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"key": key, "account_id": accountID})
}

func (h *Handler) handleGetLock(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "get lock", err)
		return
	}
	lock, err := h.svc.Periods.Current(r.Context(), companyID)
	if err != nil {
		h.fail(w, r, "get lock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newLockResponse(lock))
}

func (h *Handler) handleSetLock(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "set lock", err)
		return
	}
	var req lockRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "set lock", err)
		return
	}
	through, err := shared.ParseDate(req.LockedThrough)
	if err != nil {
		h.fail(w, r, "set lock", err)
		return
	}
	lock, err := h.svc.Periods.LockThrough(r.Context(), companyID, through, actorID(r))
	if err != nil {
		h.fail(w, r, "set lock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newLockResponse(lock))
}
