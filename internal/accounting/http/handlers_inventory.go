package accountinghttp

import (
	"net/http"

	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

func (h *Handler) handleInward(w http.ResponseWriter, r *http.Request) {
	companyID, req, ok := h.movementRequest(w, r, "stock inward")
	if !ok {
		return
	}
	date, _ := req.date()
	m, pos, err := h.svc.Stock.RecordInward(r.Context(), inventory.InwardInput{
		CompanyID:          companyID,
		ProductID:          req.ProductID,
		Date:               date,
		Qty:                req.Qty,
		UnitCost:           req.UnitCost,
		Narration:          req.Narration,
		SourceDocumentType: req.SourceDocumentType,
		SourceDocumentID:   req.SourceDocumentID,
		ActorID:            actorID(r),
	})
	if err != nil {
		h.fail(w, r, "stock inward", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newMovementResponse(m, pos))
}

func (h *Handler) handleOutward(w http.ResponseWriter, r *http.Request) {
	companyID, req, ok := h.movementRequest(w, r, "stock outward")
	if !ok {
		return
	}
	date, _ := req.date()
	m, pos, err := h.svc.Stock.RecordOutward(r.Context(), inventory.OutwardInput{
		CompanyID:          companyID,
		ProductID:          req.ProductID,
		Date:               date,
		Qty:                req.Qty,
		Narration:          req.Narration,
		SourceDocumentType: req.SourceDocumentType,
		SourceDocumentID:   req.SourceDocumentID,
		ActorID:            actorID(r),
	})
	if err != nil {
		h.fail(w, r, "stock outward", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newMovementResponse(m, pos))
}

func (h *Handler) movementRequest(w http.ResponseWriter, r *http.Request, op string) (int64, movementRequest, bool) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		h.fail(w, r, op, err)
		return 0, movementRequest{}, false
	}
	var req movementRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, op, err)
		return 0, movementRequest{}, false
	}
	if _, err := req.date(); err != nil {
		h.fail(w, r, op, err)
		return 0, movementRequest{}, false
	}
	return companyID, req, true
}
