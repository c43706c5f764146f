package accountinghttp

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgers"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

const defaultLedgerPageSize = 50

func (h *Handler) ledgerQuery(r *http.Request) (ledgers.Query, error) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		return ledgers.Query{}, err
	}
	kind, err := ledgers.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return ledgers.Query{}, err
	}
	subjectID, err := pathID(r, "subjectID")
	if err != nil {
		return ledgers.Query{}, err
	}
	rng, err := h.dateRange(r)
	if err != nil {
		return ledgers.Query{}, err
	}
	return ledgers.Query{CompanyID: companyID, SubjectID: subjectID, Kind: kind, Range: rng}, nil
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	q, err := h.ledgerQuery(r)
	if err != nil {
		h.fail(w, r, "ledger", err)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.fail(w, r, "ledger", err)
		return
	}
	size, err := queryInt(r, "per_page", defaultLedgerPageSize)
	if err != nil {
		h.fail(w, r, "ledger", err)
		return
	}
	st, err := h.svc.Ledgers.Statement(r.Context(), q)
	if err != nil {
		h.fail(w, r, "ledger", err)
		return
	}
	pg, err := st.Page(r.Context(), page, size)
	if err != nil {
		h.fail(w, r, "ledger", err)
		return
	}
	httpx.JSON(w, http.StatusOK, pg)
}

func (h *Handler) handleLedgerCSV(w http.ResponseWriter, r *http.Request) {
	q, err := h.ledgerQuery(r)
	if err != nil {
		h.fail(w, r, "ledger csv", err)
		return
	}
	st, err := h.svc.Ledgers.Statement(r.Context(), q)
	if err != nil {
		h.fail(w, r, "ledger csv", err)
		return
	}
	// Read everything before the status line so a store failure still gets
	// an error response.
	rows, err := st.Collect(r.Context())
	if err != nil {
		h.fail(w, r, "ledger csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=ledger-%s-%d.csv", q.Kind, q.SubjectID))
	if err := writeLedgerCSV(w, st, rows); err != nil {
		h.logger.Warn("ledger csv write", "error", err, "company_id", q.CompanyID, "kind", q.Kind, "subject_id", q.SubjectID)
	}
}
