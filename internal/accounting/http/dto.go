package accountinghttp

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/tax"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
)

type lineRequest struct {
	AccountID int64           `json:"account_id" validate:"required,gt=0"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	PartyKind string          `json:"party_kind" validate:"omitempty,oneof=customer supplier"`
	PartyID   int64           `json:"party_id" validate:"gte=0"`
}

type postEntryRequest struct {
	EntryDate          string        `json:"entry_date" validate:"required,datetime=2006-01-02"`
	Narration          string        `json:"narration" validate:"max=500"`
	SourceDocumentType string        `json:"source_document_type"`
	SourceDocumentID   *uuid.UUID    `json:"source_document_id"`
	Lines              []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (req postEntryRequest) input(companyID, actor int64) (journals.PostingInput, error) {
	date, err := shared.ParseDate(req.EntryDate)
	if err != nil {
		return journals.PostingInput{}, err
	}
	lines := make([]journals.PostingLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = journals.PostingLineInput{
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			PartyKind: journals.PartyKind(l.PartyKind),
			PartyID:   l.PartyID,
		}
	}
	return journals.PostingInput{
		CompanyID:          companyID,
		EntryDate:          date,
		Narration:          req.Narration,
		SourceDocumentType: journals.SourceType(req.SourceDocumentType),
		SourceDocumentID:   req.SourceDocumentID,
		PostedBy:           actor,
		Lines:              lines,
	}, nil
}

type reverseRequest struct {
	EntryDate string `json:"entry_date" validate:"omitempty,datetime=2006-01-02"`
	Narration string `json:"narration" validate:"max=500"`
}

type lineResponse struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	PartyKind string          `json:"party_kind,omitempty"`
	PartyID   int64           `json:"party_id,omitempty"`
}

type entryResponse struct {
	ID                 int64          `json:"id"`
	CompanyID          int64          `json:"company_id"`
	EntryDate          string         `json:"entry_date"`
	Narration          string         `json:"narration"`
	SourceDocumentType string         `json:"source_document_type"`
	SourceDocumentID   *uuid.UUID     `json:"source_document_id,omitempty"`
	ReversalOf         *int64         `json:"reversal_of,omitempty"`
	PostedBy           int64          `json:"posted_by"`
	CreatedAt          time.Time      `json:"created_at"`
	Lines              []lineResponse `json:"lines"`
}

func newEntryResponse(e journals.JournalEntry) entryResponse {
	lines := make([]lineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = lineResponse{
			ID:        l.ID,
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			PartyKind: string(l.PartyKind),
			PartyID:   l.PartyID,
		}
	}
	return entryResponse{
		ID:                 e.ID,
		CompanyID:          e.CompanyID,
		EntryDate:          shared.FormatDate(e.EntryDate),
		Narration:          e.Narration,
		SourceDocumentType: string(e.SourceDocumentType),
		SourceDocumentID:   e.SourceDocumentID,
		ReversalOf:         e.ReversalOf,
		PostedBy:           e.PostedBy,
		CreatedAt:          e.CreatedAt,
		Lines:              lines,
	}
}

type paginationResponse struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type taxSplitRequest struct {
	Taxable     decimal.Decimal   `json:"taxable_amount"`
	RatePercent decimal.Decimal   `json:"rate_percent"`
	BuyerState  string            `json:"buyer_state" validate:"max=100"`
	SellerState string            `json:"seller_state" validate:"max=100"`
	Buyer       *tax.PartyDetails `json:"buyer"`
	Seller      *tax.PartyDetails `json:"seller"`
}

type accountRequest struct {
	Code     string `json:"code" validate:"required,max=32"`
	Name     string `json:"name" validate:"required,max=200"`
	Type     string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	Category string `json:"category" validate:"max=64"`
}

type renameRequest struct {
	Code string `json:"code" validate:"required,max=32"`
	Name string `json:"name" validate:"required,max=200"`
}

type accountResponse struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Category string `json:"category,omitempty"`
	IsActive bool   `json:"is_active"`
}

func newAccountResponse(a accounts.Account) accountResponse {
	return accountResponse{
		ID:       a.ID,
		Code:     a.Code,
		Name:     a.Name,
		Type:     string(a.Type),
		Category: a.Category,
		IsActive: a.IsActive,
	}
}

type lockRequest struct {
	LockedThrough string `json:"locked_through" validate:"required,datetime=2006-01-02"`
}

type lockResponse struct {
	CompanyID     int64  `json:"company_id"`
	LockedThrough string `json:"locked_through,omitempty"`
	LockedBy      int64  `json:"locked_by,omitempty"`
}

func newLockResponse(l periods.Lock) lockResponse {
	return lockResponse{CompanyID: l.CompanyID, LockedThrough: shared.FormatDate(l.LockedThrough), LockedBy: l.LockedBy}
}

type movementRequest struct {
	ProductID          int64           `json:"product_id" validate:"required,gt=0"`
	Date               string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Qty                decimal.Decimal `json:"qty"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	Narration          string          `json:"narration" validate:"max=500"`
	SourceDocumentType string          `json:"source_document_type" validate:"max=64"`
	SourceDocumentID   *uuid.UUID      `json:"source_document_id"`
}

func (req movementRequest) date() (time.Time, error) {
	if req.Date == "" {
		return time.Time{}, nil
	}
	return shared.ParseDate(req.Date)
}

type movementResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Date      string          `json:"date"`
	QtyIn     decimal.Decimal `json:"qty_in"`
	QtyOut    decimal.Decimal `json:"qty_out"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	OnHand    decimal.Decimal `json:"on_hand"`
	AvgCost   decimal.Decimal `json:"avg_cost"`
	Value     decimal.Decimal `json:"stock_value"`
}

func newMovementResponse(m inventory.Movement, p inventory.Position) movementResponse {
	return movementResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		Date:      shared.FormatDate(m.MovementDate),
		QtyIn:     m.QtyIn,
		QtyOut:    m.QtyOut,
		UnitCost:  m.UnitCost,
		OnHand:    p.Qty,
		AvgCost:   p.AvgCost,
		Value:     p.Value(),
	}
}
