package mappings

import "time"

// Well known mapping keys used by system postings.
const (
	KeyReceivable = "ar.receivable"
	KeyPayable    = "ap.payable"
	KeySales      = "sales.revenue"
	KeyPurchases  = "purchase.inventory"
	KeyOutputIGST = "tax.output_igst"
	KeyOutputCGST = "tax.output_cgst"
	KeyOutputSGST = "tax.output_sgst"
	KeyInputIGST  = "tax.input_igst"
	KeyInputCGST  = "tax.input_cgst"
	KeyInputSGST  = "tax.input_sgst"
	KeyCash       = "cash.default"
	KeyInventory  = "inventory.asset"
	KeyCOGS       = "inventory.cogs"
)

// AccountMapping links integration keys to ledger accounts.
type AccountMapping struct {
	CompanyID int64
	Key       string
	AccountID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
