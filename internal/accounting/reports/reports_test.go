package reports

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bal(id int64, code string, typ accounts.AccountType, category, debit, credit string) AccountBalance {
	return AccountBalance{AccountID: id, Code: code, Name: code, Type: typ, Category: category, Debit: d(debit), Credit: d(credit)}
}

func sampleBalances() []AccountBalance {
	return []AccountBalance{
		bal(1, "1100", accounts.AccountTypeAsset, accounts.CategoryCash, "5000", "1200"),
		bal(2, "1300", accounts.AccountTypeAsset, accounts.CategoryReceivable, "1180", "0"),
		bal(3, "2100", accounts.AccountTypeLiability, accounts.CategoryPayable, "200", "700"),
		bal(4, "3100", accounts.AccountTypeEquity, "", "0", "3000"),
		bal(5, "4100", accounts.AccountTypeIncome, accounts.CategorySales, "0", "2000"),
		bal(6, "4900", accounts.AccountTypeIncome, "", "0", "180"),
		bal(7, "5100", accounts.AccountTypeExpense, accounts.CategoryCOGS, "400", "0"),
		bal(8, "6100", accounts.AccountTypeExpense, accounts.CategoryEmployee, "300", "0"),
		bal(9, "6900", accounts.AccountTypeExpense, accounts.CategoryIndirect, "0", "0"),
	}
}

func TestBuildTrialBalance(t *testing.T) {
	tb := BuildTrialBalance(sampleBalances())
	require.True(t, tb.IsBalanced)
	require.Empty(t, tb.Warnings)
	require.True(t, tb.TotalDebits.Equal(d("5680")), tb.TotalDebits.String())
	require.True(t, tb.TotalDebits.Equal(tb.TotalCredits))
	require.True(t, tb.Difference.IsZero())

	cash, ok := tb.Row("1100")
	require.True(t, ok)
	require.True(t, cash.Debit.Equal(d("3800")))
	require.True(t, cash.Credit.IsZero())
	require.True(t, cash.DebitTotal.Equal(d("5000")))
	require.True(t, cash.CreditTotal.Equal(d("1200")))
	require.True(t, tb.GrossDebits.Equal(d("7080")), tb.GrossDebits.String())
	require.True(t, tb.GrossCredits.Equal(d("7080")), tb.GrossCredits.String())
	require.True(t, tb.Groups[0].DebitTotal.Equal(d("5000")))

	ap, ok := tb.Row("2100")
	require.True(t, ok)
	require.True(t, ap.Credit.Equal(d("500")))

	_, ok = tb.Row("6900")
	require.False(t, ok, "accounts without activity are omitted")
	require.Equal(t, "11", tb.Groups[0].Key)
}

func TestBuildTrialBalanceWarnsWhenUnbalanced(t *testing.T) {
	balances := append(sampleBalances(), bal(10, "1200", accounts.AccountTypeAsset, accounts.CategoryBank, "50", "0"))
	tb := BuildTrialBalance(balances)
	require.False(t, tb.IsBalanced)
	require.Len(t, tb.Warnings, 1)
	require.Equal(t, shared.CheckTrialBalance, tb.Warnings[0].Check)
	require.Equal(t, shared.SeverityCritical, tb.Warnings[0].Severity)
	require.True(t, tb.Difference.Equal(d("50")))
}

func TestBuildTradingAndProfitLoss(t *testing.T) {
	pl := BuildTradingAndProfitLoss(sampleBalances(), mappings.TagClassifier{})
	require.True(t, pl.Sales.Total.Equal(d("2000")))
	require.True(t, pl.CostOfGoodsSold.Total.Equal(d("400")))
	require.True(t, pl.GrossProfit.Equal(d("1600")))
	require.True(t, pl.OtherIncome.Total.Equal(d("180")))
	require.True(t, pl.EmployeeBenefits.Total.Equal(d("300")))
	require.True(t, pl.TotalIndirectExpenses.Equal(d("300")))
	require.True(t, pl.ProfitBeforeTax.Equal(d("1480")))
	require.False(t, pl.IsGrossLoss())
}

func TestBuildTradingAndProfitLossOverrides(t *testing.T) {
	classifier := mappings.OverrideClassifier{
		Overrides: map[int64]mappings.Bucket{8: mappings.BucketDirectExpense},
		Fallback:  mappings.TagClassifier{},
	}
	pl := BuildTradingAndProfitLoss(sampleBalances(), classifier)
	require.True(t, pl.DirectExpenses.Total.Equal(d("300")))
	require.True(t, pl.EmployeeBenefits.Total.IsZero())
	require.True(t, pl.GrossProfit.Equal(d("1300")))
	require.True(t, pl.ProfitBeforeTax.Equal(d("1480")))
}

func TestBuildBalanceSheetFoldsCurrentEarnings(t *testing.T) {
	bs := BuildBalanceSheet(sampleBalances())
	require.True(t, bs.Assets.Total.Equal(d("4980")))
	require.True(t, bs.Liabilities.Total.Equal(d("500")))
	require.True(t, bs.CurrentEarnings.Equal(d("1480")))
	require.True(t, bs.Equity.Total.Equal(d("4480")))
	require.True(t, bs.IsBalanced)
	require.Empty(t, bs.Warnings)
	last := bs.Equity.Lines[len(bs.Equity.Lines)-1]
	require.Equal(t, CurrentEarningsLabel, last.Name)
}

func TestBuildBalanceSheetWarns(t *testing.T) {
	balances := []AccountBalance{bal(1, "1100", accounts.AccountTypeAsset, accounts.CategoryCash, "100", "0")}
	bs := BuildBalanceSheet(balances)
	require.False(t, bs.IsBalanced)
	require.Len(t, bs.Warnings, 1)
	require.Equal(t, shared.CheckBalanceSheet, bs.Warnings[0].Check)
	require.True(t, bs.Difference.Equal(d("100")))
}
