package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// CurrentEarningsLabel names the equity line carrying unclosed income minus expense.
const CurrentEarningsLabel = "Current earnings"

// BalanceSheet summarises assets, liabilities and equity at a date.
type BalanceSheet struct {
	CompanyID                 int64                     `json:"company_id"`
	AsOf                      time.Time                 `json:"as_of"`
	Assets                    Section                   `json:"assets"`
	Liabilities               Section                   `json:"liabilities"`
	Equity                    Section                   `json:"equity"`
	CurrentEarnings           decimal.Decimal           `json:"current_earnings"`
	TotalLiabilitiesAndEquity decimal.Decimal           `json:"total_liabilities_and_equity"`
	Difference                decimal.Decimal           `json:"difference"`
	IsBalanced                bool                      `json:"is_balanced"`
	Warnings                  []shared.IntegrityWarning `json:"warnings,omitempty"`
}

// BuildBalanceSheet groups balances through the as-of date. Income and expense
// accounts are not closed into retained earnings by the ledger, so their net
// is folded into equity as a single line.
func BuildBalanceSheet(balances []AccountBalance) BalanceSheet {
	bs := BalanceSheet{CurrentEarnings: decimal.Zero}
	bs.Assets.Total = decimal.Zero
	bs.Liabilities.Total = decimal.Zero
	bs.Equity.Total = decimal.Zero
	for _, acc := range balances {
		if !acc.HasActivity() {
			continue
		}
		switch acc.Type {
		case accounts.AccountTypeAsset:
			bs.Assets.add(lineOf(acc, acc.Normal()))
		case accounts.AccountTypeLiability:
			bs.Liabilities.add(lineOf(acc, acc.Normal()))
		case accounts.AccountTypeEquity:
			bs.Equity.add(lineOf(acc, acc.Normal()))
		case accounts.AccountTypeIncome:
			bs.CurrentEarnings = bs.CurrentEarnings.Add(acc.Normal())
		case accounts.AccountTypeExpense:
			bs.CurrentEarnings = bs.CurrentEarnings.Sub(acc.Normal())
		}
	}
	if !bs.CurrentEarnings.IsZero() {
		bs.Equity.add(Line{Name: CurrentEarningsLabel, Amount: bs.CurrentEarnings})
	}
	bs.TotalLiabilitiesAndEquity = bs.Liabilities.Total.Add(bs.Equity.Total)
	bs.Difference = bs.Assets.Total.Sub(bs.TotalLiabilitiesAndEquity)
	bs.IsBalanced = shared.WithinMinorUnit(bs.Assets.Total, bs.TotalLiabilitiesAndEquity)
	if !bs.IsBalanced {
		bs.Warnings = append(bs.Warnings, shared.NewIntegrityWarning(shared.CheckBalanceSheet,
			"assets do not equal liabilities plus equity", bs.Assets.Total, bs.TotalLiabilitiesAndEquity))
	}
	return bs
}
