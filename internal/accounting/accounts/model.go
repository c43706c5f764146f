package accounts

import (
	"strings"
	"time"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Side is the column of a journal line.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// NormalSide returns the side on which balances of this type grow.
func (t AccountType) NormalSide() Side {
	if t == AccountTypeAsset || t == AccountTypeExpense {
		return SideDebit
	}
	return SideCredit
}

// Well known category tags.
const (
	CategoryCash       = "cash"
	CategoryBank       = "bank"
	CategoryReceivable = "receivable"
	CategoryPayable    = "payable"
	CategoryInventory  = "inventory"
	CategorySales      = "sales"
	CategoryCOGS       = "cogs"
	CategoryDirect     = "direct"
	CategoryIndirect   = "indirect"
	CategoryEmployee   = "employee_benefits"
	CategoryFinance    = "finance_costs"
	CategoryDepreciate = "depreciation"
	CategoryTax        = "tax"
)

// Account models a chart of accounts node owned by one company.
type Account struct {
	ID        int64
	CompanyID int64
	Code      string
	Name      string
	Type      AccountType
	Category  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCashOrBank reports whether the account may back a cash/bank ledger.
func (a Account) IsCashOrBank() bool {
	c := strings.ToLower(a.Category)
	return c == CategoryCash || c == CategoryBank
}
