// Package ledgers reads running-balance statements of accounts, parties,
// cash/bank accounts and products straight from the journal and stock movements.
package ledgers

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Kind selects the ledger subject.
type Kind string

const (
	KindAccount  Kind = "account"
	KindCustomer Kind = "customer"
	KindSupplier Kind = "supplier"
	KindCashBank Kind = "cash_bank"
	KindProduct  Kind = "product"
)

// ParseKind accepts the URL spelling of a kind.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(raw); k {
	case KindAccount, KindCustomer, KindSupplier, KindCashBank, KindProduct:
		return k, nil
	case "cash-bank":
		return KindCashBank, nil
	}
	return "", fmt.Errorf("%w: unknown ledger kind %q", shared.ErrInvalidQuery, raw)
}

// Subject identifies whose rows a ledger shows.
type Subject struct {
	CompanyID int64
	Kind      Kind
	ID        int64
}

// Query requests one statement.
type Query struct {
	CompanyID int64
	SubjectID int64
	Kind      Kind
	Range     shared.DateRange
}

func (q Query) subject() Subject {
	return Subject{CompanyID: q.CompanyID, Kind: q.Kind, ID: q.SubjectID}
}

// Cursor is a keyset position in ledger order: entry date, entry id and line
// id (movement date and id for products). The zero cursor precedes every row.
type Cursor struct {
	Date    time.Time
	EntryID int64
	LineID  int64
}

func (c Cursor) IsZero() bool { return c.EntryID == 0 && c.LineID == 0 }

// Before reports whether c sorts before the row at (date, entryID, lineID).
func (c Cursor) Before(date time.Time, entryID, lineID int64) bool {
	if c.IsZero() {
		return true
	}
	if !c.Date.Equal(date) {
		return c.Date.Before(date)
	}
	if c.EntryID != entryID {
		return c.EntryID < entryID
	}
	return c.LineID < lineID
}

// Window selects the rows of Range with an id at or below MaxID that sort
// after the After cursor. Rows at or below a watermark never change, so a
// statement pinned to one reads the same rows on every pass.
type Window struct {
	Range shared.DateRange
	MaxID int64
	After Cursor
}

// Contains reports whether a row falls inside the window.
func (w Window) Contains(date time.Time, entryID, lineID, id int64) bool {
	return id <= w.MaxID && w.Range.Contains(date) && w.After.Before(date, entryID, lineID)
}

// Row is one statement line. Product rows fill the quantity and cost columns
// and carry the running quantity in RunningBalance.
type Row struct {
	Date               time.Time       `json:"date"`
	EntryID            int64           `json:"entry_id"`
	LineID             int64           `json:"line_id"`
	Narration          string          `json:"narration"`
	SourceDocumentType string          `json:"source_document_type"`
	Debit              decimal.Decimal `json:"debit"`
	Credit             decimal.Decimal `json:"credit"`
	Amount             decimal.Decimal `json:"amount"`
	RunningBalance     decimal.Decimal `json:"running_balance"`

	QtyIn      decimal.Decimal `json:"qty_in"`
	QtyOut     decimal.Decimal `json:"qty_out"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	AvgCost    decimal.Decimal `json:"avg_cost"`
	StockValue decimal.Decimal `json:"stock_value"`
}

// LineRecord is a journal line joined to its entry, as read from the store.
type LineRecord struct {
	EntryID            int64
	LineID             int64
	EntryDate          time.Time
	Narration          string
	SourceDocumentType string
	Debit              decimal.Decimal
	Credit             decimal.Decimal
}

// Opening is the state of a ledger just before its first row.
type Opening struct {
	Balance decimal.Decimal `json:"balance"`
	AvgCost decimal.Decimal `json:"avg_cost"`
}

// Page is one slice of a statement. Opening is the balance carried into the
// first row of the page.
type Page struct {
	Number     int             `json:"page"`
	Size       int             `json:"per_page"`
	TotalRows  int             `json:"total_rows"`
	TotalPages int             `json:"total_pages"`
	Opening    decimal.Decimal `json:"opening_balance"`
	Closing    decimal.Decimal `json:"closing_balance"`
	Rows       []Row           `json:"rows"`
}
