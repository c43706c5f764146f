package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// TrialBalanceAccount presents the net balance of one account on its debit
// or credit column, next to the gross activity it nets.
type TrialBalanceAccount struct {
	AccountID   int64           `json:"account_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
}

// TrialBalanceGroup aggregates accounts sharing a code prefix.
type TrialBalanceGroup struct {
	Key         string                `json:"key"`
	Accounts    []TrialBalanceAccount `json:"accounts"`
	Debit       decimal.Decimal       `json:"debit"`
	Credit      decimal.Decimal       `json:"credit"`
	DebitTotal  decimal.Decimal       `json:"debit_total"`
	CreditTotal decimal.Decimal       `json:"credit_total"`
}

// TrialBalance lists every account with activity through AsOf.
type TrialBalance struct {
	CompanyID    int64                     `json:"company_id"`
	AsOf         time.Time                 `json:"as_of"`
	Groups       []TrialBalanceGroup       `json:"groups"`
	TotalDebits  decimal.Decimal           `json:"total_debits"`
	TotalCredits decimal.Decimal           `json:"total_credits"`
	GrossDebits  decimal.Decimal           `json:"gross_debits"`
	GrossCredits decimal.Decimal           `json:"gross_credits"`
	Difference   decimal.Decimal           `json:"difference"`
	IsBalanced   bool                      `json:"is_balanced"`
	Warnings     []shared.IntegrityWarning `json:"warnings,omitempty"`
}

// Row finds an account row by code.
func (tb TrialBalance) Row(code string) (TrialBalanceAccount, bool) {
	for _, g := range tb.Groups {
		for _, a := range g.Accounts {
			if a.Code == code {
				return a, true
			}
		}
	}
	return TrialBalanceAccount{}, false
}

// BuildTrialBalance converts account balances into grouped trial balance data.
// A failed totals check is reported as a warning, never as an error.
func BuildTrialBalance(balances []AccountBalance) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, acc := range balances {
		if !acc.HasActivity() {
			continue
		}
		key := acc.GroupKey()
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key, Debit: decimal.Zero, Credit: decimal.Zero, DebitTotal: decimal.Zero, CreditTotal: decimal.Zero}
			groups[key] = grp
			keys = append(keys, key)
		}
		row := TrialBalanceAccount{
			AccountID:   acc.AccountID,
			Code:        acc.Code,
			Name:        acc.Name,
			Type:        string(acc.Type),
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
			DebitTotal:  acc.Debit,
			CreditTotal: acc.Credit,
		}
		if net := acc.Net(); net.IsPositive() {
			row.Debit = net
		} else {
			row.Credit = net.Neg()
		}
		grp.Accounts = append(grp.Accounts, row)
		grp.Debit = grp.Debit.Add(row.Debit)
		grp.Credit = grp.Credit.Add(row.Credit)
		grp.DebitTotal = grp.DebitTotal.Add(row.DebitTotal)
		grp.CreditTotal = grp.CreditTotal.Add(row.CreditTotal)
	}

	sort.Strings(keys)
	result := TrialBalance{TotalDebits: decimal.Zero, TotalCredits: decimal.Zero, GrossDebits: decimal.Zero, GrossCredits: decimal.Zero}
	for _, key := range keys {
		grp := groups[key]
		sort.Slice(grp.Accounts, func(i, j int) bool {
			return grp.Accounts[i].Code < grp.Accounts[j].Code
		})
		result.Groups = append(result.Groups, *grp)
		result.TotalDebits = result.TotalDebits.Add(grp.Debit)
		result.TotalCredits = result.TotalCredits.Add(grp.Credit)
		result.GrossDebits = result.GrossDebits.Add(grp.DebitTotal)
		result.GrossCredits = result.GrossCredits.Add(grp.CreditTotal)
	}
	result.Difference = result.TotalDebits.Sub(result.TotalCredits)
	result.IsBalanced = shared.WithinMinorUnit(result.TotalDebits, result.TotalCredits)
	if !result.IsBalanced {
		result.Warnings = append(result.Warnings, shared.NewIntegrityWarning(shared.CheckTrialBalance,
			"total debits do not equal total credits", result.TotalDebits, result.TotalCredits))
	}
	return result
}
