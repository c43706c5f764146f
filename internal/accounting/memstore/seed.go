package memstore

import (
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
)

// Chart maps account codes to the ids assigned by SeedChart.
type Chart map[string]int64

type chartRow struct {
	code     string
	name     string
	typ      accounts.AccountType
	category string
}

var standardChart = []chartRow{
	{"1100", "Cash in Hand", accounts.AccountTypeAsset, accounts.CategoryCash},
	{"1200", "Bank Current Account", accounts.AccountTypeAsset, accounts.CategoryBank},
	{"1300", "Accounts Receivable", accounts.AccountTypeAsset, accounts.CategoryReceivable},
	{"1400", "Inventory", accounts.AccountTypeAsset, accounts.CategoryInventory},
	{"1510", "Input IGST", accounts.AccountTypeAsset, accounts.CategoryTax},
	{"1520", "Input CGST", accounts.AccountTypeAsset, accounts.CategoryTax},
	{"1530", "Input SGST", accounts.AccountTypeAsset, accounts.CategoryTax},
	{"2100", "Accounts Payable", accounts.AccountTypeLiability, accounts.CategoryPayable},
	{"2210", "Output IGST", accounts.AccountTypeLiability, accounts.CategoryTax},
	{"2220", "Output CGST", accounts.AccountTypeLiability, accounts.CategoryTax},
	{"2230", "Output SGST", accounts.AccountTypeLiability, accounts.CategoryTax},
	{"3100", "Owner Capital", accounts.AccountTypeEquity, ""},
	{"4100", "Sales", accounts.AccountTypeIncome, accounts.CategorySales},
	{"4900", "Interest Income", accounts.AccountTypeIncome, ""},
	{"5100", "Cost of Goods Sold", accounts.AccountTypeExpense, accounts.CategoryCOGS},
	{"5200", "Freight Inward", accounts.AccountTypeExpense, accounts.CategoryDirect},
	{"6100", "Salaries", accounts.AccountTypeExpense, accounts.CategoryEmployee},
	{"6200", "Bank Interest", accounts.AccountTypeExpense, accounts.CategoryFinance},
	{"6300", "Depreciation", accounts.AccountTypeExpense, accounts.CategoryDepreciate},
	{"6900", "Rent", accounts.AccountTypeExpense, accounts.CategoryIndirect},
}

var standardMappings = map[string]string{
	mappings.KeyCash:       "1100",
	mappings.KeyReceivable: "1300",
	mappings.KeyInventory:  "1400",
	mappings.KeyPurchases:  "1400",
	mappings.KeyInputIGST:  "1510",
	mappings.KeyInputCGST:  "1520",
	mappings.KeyInputSGST:  "1530",
	mappings.KeyPayable:    "2100",
	mappings.KeyOutputIGST: "2210",
	mappings.KeyOutputCGST: "2220",
	mappings.KeyOutputSGST: "2230",
	mappings.KeySales:      "4100",
	mappings.KeyCOGS:       "5100",
}

// SeedChart creates a small trading chart of accounts for the company and
// binds every system posting key to it.
func (s *Store) SeedChart(companyID int64) Chart {
	chart := make(Chart, len(standardChart))
	for _, row := range standardChart {
		a := s.AddAccount(accounts.Account{
			CompanyID: companyID,
			Code:      row.code,
			Name:      row.name,
			Type:      row.typ,
			Category:  row.category,
			IsActive:  true,
		})
		chart[row.code] = a.ID
	}
	for key, code := range standardMappings {
		s.SetMapping(companyID, key, chart[code])
	}
	return chart
}
