package accountinghttp

import (
	"net/http"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

func (h *Handler) handlePostEntry(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "post entry", err)
		return
	}
	var req postEntryRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "post entry", err)
		return
	}
	input, err := req.input(companyID, actorID(r))
	if err != nil {
		h.fail(w, r, "post entry", err)
		return
	}
	entry, err := h.svc.Journals.PostEntry(r.Context(), input)
	if err != nil {
		h.fail(w, r, "post entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newEntryResponse(entry))
}

func (h *Handler) handleReverseEntry(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "reverse entry", err)
		return
	}
	entryID, err := pathID(r, "entryID")
	if err != nil {
		h.fail(w, r, "reverse entry", err)
		return
	}
	var req reverseRequest
	if r.ContentLength != 0 {
		if err := h.decode(r, &req); err != nil {
			h.fail(w, r, "reverse entry", err)
			return
		}
	}
	input := journals.ReverseInput{CompanyID: companyID, EntryID: entryID, Narration: req.Narration, PostedBy: actorID(r)}
	if req.EntryDate != "" {
		if input.EntryDate, err = shared.ParseDate(req.EntryDate); err != nil {
			h.fail(w, r, "reverse entry", err)
			return
		}
	}
	entry, err := h.svc.Journals.ReverseEntry(r.Context(), input)
	if err != nil {
		h.fail(w, r, "reverse entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newEntryResponse(entry))
}

func (h *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "get entry", err)
		return
	}
	entryID, err := pathID(r, "entryID")
	if err != nil {
		h.fail(w, r, "get entry", err)
		return
	}
	entry, err := h.svc.Journals.GetEntry(r.Context(), companyID, entryID)
	if err != nil {
		h.fail(w, r, "get entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newEntryResponse(entry))
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, "list entries", err)
		return
	}
	rng, err := queryRange(r)
	if err != nil {
		h.fail(w, r, "list entries", err)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.fail(w, r, "list entries", err)
		return
	}
	perPage, err := queryInt(r, "per_page", 20)
	if err != nil {
		h.fail(w, r, "list entries", err)
		return
	}
	entries, pg, err := h.svc.Journals.ListEntries(r.Context(), companyID, journals.ListFilter{Range: rng, Page: page, PerPage: perPage})
	if err != nil {
		h.fail(w, r, "list entries", err)
		return
	}
	items := make([]entryResponse, len(entries))
	for i, e := range entries {
		items[i] = newEntryResponse(e)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":    items,
		"pagination": paginationResponse{Page: pg.Page, PerPage: pg.PerPage, Total: pg.Total, TotalPages: pg.TotalPages},
	})
}
