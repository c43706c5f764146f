package integration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/tax"
)

// TaxableLine is one priced line of an invoice or bill before tax.
type TaxableLine struct {
	Description string          `json:"description"`
	Taxable     decimal.Decimal `json:"taxable"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

// SalesInvoicePostedEvent is raised when a sales invoice is finalised.
type SalesInvoicePostedEvent struct {
	CompanyID  int64            `json:"company_id"`
	InvoiceID  int64            `json:"invoice_id"`
	Number     string           `json:"number"`
	Date       time.Time        `json:"date"`
	CustomerID int64            `json:"customer_id"`
	Buyer      tax.PartyDetails `json:"buyer"`
	Seller     tax.PartyDetails `json:"seller"`
	Lines      []TaxableLine    `json:"lines"`
	ActorID    int64            `json:"actor_id"`
}

// PurchaseBillPostedEvent is raised when a supplier bill is approved.
type PurchaseBillPostedEvent struct {
	CompanyID  int64            `json:"company_id"`
	BillID     int64            `json:"bill_id"`
	Number     string           `json:"number"`
	Date       time.Time        `json:"date"`
	SupplierID int64            `json:"supplier_id"`
	Buyer      tax.PartyDetails `json:"buyer"`
	Seller     tax.PartyDetails `json:"seller"`
	Lines      []TaxableLine    `json:"lines"`
	ActorID    int64            `json:"actor_id"`
}

// PaymentEvent settles a receivable or a payable. A zero AccountID uses the
// company's default cash account.
type PaymentEvent struct {
	CompanyID int64           `json:"company_id"`
	PaymentID int64           `json:"payment_id"`
	Number    string          `json:"number"`
	Date      time.Time       `json:"date"`
	PartyID   int64           `json:"party_id"`
	Amount    decimal.Decimal `json:"amount"`
	AccountID int64           `json:"account_id"`
	ActorID   int64           `json:"actor_id"`
}
