package reports

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
)

// AccountBalance models a general ledger account with debit and credit sums
// over a date window.
type AccountBalance struct {
	AccountID int64
	Code      string
	Name      string
	Type      accounts.AccountType
	Category  string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Account rebuilds the account attributes carried by the balance.
func (a AccountBalance) Account() accounts.Account {
	return accounts.Account{ID: a.AccountID, Code: a.Code, Name: a.Name, Type: a.Type, Category: a.Category}
}

// HasActivity reports whether any line touched the account in the window.
func (a AccountBalance) HasActivity() bool {
	return !a.Debit.IsZero() || !a.Credit.IsZero()
}

// Net returns debit minus credit.
func (a AccountBalance) Net() decimal.Decimal {
	return a.Debit.Sub(a.Credit)
}

// Normal returns the balance signed by the account's normal side.
func (a AccountBalance) Normal() decimal.Decimal {
	if a.Type.NormalSide() == accounts.SideDebit {
		return a.Net()
	}
	return a.Net().Neg()
}

// GroupKey returns a key used for grouping trial balance rows.
func (a AccountBalance) GroupKey() string {
	if idx := strings.Index(a.Code, "."); idx > 0 {
		return a.Code[:idx]
	}
	if len(a.Code) >= 2 {
		return a.Code[:2]
	}
	return a.Code
}

// Line is one account inside a statement section.
type Line struct {
	AccountID int64           `json:"account_id,omitempty"`
	Code      string          `json:"code,omitempty"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// Section groups lines with their total.
type Section struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (s *Section) add(l Line) {
	s.Lines = append(s.Lines, l)
	s.Total = s.Total.Add(l.Amount)
}

func lineOf(a AccountBalance, amount decimal.Decimal) Line {
	return Line{AccountID: a.AccountID, Code: a.Code, Name: a.Name, Amount: amount}
}
