package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceType names the business document that produced an entry.
type SourceType string

const (
	SourceManual         SourceType = "manual"
	SourceSalesInvoice   SourceType = "sales_invoice"
	SourcePurchaseBill   SourceType = "purchase_bill"
	SourceInvoicePayment SourceType = "invoice_payment"
	SourceBillPayment    SourceType = "bill_payment"
	SourceJournalVoucher SourceType = "journal_voucher"
	SourceStockMovement  SourceType = "stock_movement"
)

// Valid reports whether s is a supported source document type.
func (s SourceType) Valid() bool {
	switch s {
	case SourceManual, SourceSalesInvoice, SourcePurchaseBill, SourceInvoicePayment,
		SourceBillPayment, SourceJournalVoucher, SourceStockMovement:
		return true
	}
	return false
}

// PartyKind tags receivable and payable legs with their counterparty.
type PartyKind string

const (
	PartyNone     PartyKind = ""
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
)

// JournalEntry is an immutable, balanced double-entry transaction.
type JournalEntry struct {
	ID                 int64
	CompanyID          int64
	EntryDate          time.Time
	Narration          string
	SourceDocumentType SourceType
	SourceDocumentID   *uuid.UUID
	ReversalOf         *int64
	PostedBy           int64
	CreatedAt          time.Time
	Lines              []JournalLine
}

// Totals sums both sides of the entry.
func (e JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// JournalLine stores debit or credit amount for an account.
type JournalLine struct {
	ID             int64
	JournalEntryID int64
	AccountID      int64
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	PartyKind      PartyKind
	PartyID        int64
}
