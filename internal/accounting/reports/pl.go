package reports

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// TradingProfitLoss is the two stage income statement: the trading account
// ends in gross profit, the profit and loss account in profit before tax.
type TradingProfitLoss struct {
	CompanyID int64            `json:"company_id"`
	Range     shared.DateRange `json:"-"`

	Sales           Section         `json:"sales"`
	CostOfGoodsSold Section         `json:"cost_of_goods_sold"`
	DirectExpenses  Section         `json:"direct_expenses"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`

	OtherIncome              Section         `json:"other_income"`
	EmployeeBenefits         Section         `json:"employee_benefits"`
	FinanceCosts             Section         `json:"finance_costs"`
	DepreciationAmortization Section         `json:"depreciation_amortization"`
	OtherExpenses            Section         `json:"other_expenses"`
	TotalIncome              decimal.Decimal `json:"total_income"`
	TotalIndirectExpenses    decimal.Decimal `json:"total_indirect_expenses"`
	ProfitBeforeTax          decimal.Decimal `json:"profit_before_tax"`
}

// IsGrossLoss reports a negative gross result.
func (p TradingProfitLoss) IsGrossLoss() bool {
	return p.GrossProfit.IsNegative()
}

// BuildTradingAndProfitLoss buckets range activity with the classifier.
// Income buckets measure credit minus debit and expense buckets debit minus credit.
func BuildTradingAndProfitLoss(balances []AccountBalance, classifier mappings.Classifier) TradingProfitLoss {
	if classifier == nil {
		classifier = mappings.TagClassifier{}
	}
	var pl TradingProfitLoss
	for _, acc := range balances {
		if !acc.HasActivity() {
			continue
		}
		switch classifier.Classify(acc.Account()) {
		case mappings.BucketSales:
			pl.Sales.add(lineOf(acc, acc.Net().Neg()))
		case mappings.BucketOtherIncome:
			pl.OtherIncome.add(lineOf(acc, acc.Net().Neg()))
		case mappings.BucketCOGS:
			pl.CostOfGoodsSold.add(lineOf(acc, acc.Net()))
		case mappings.BucketDirectExpense:
			pl.DirectExpenses.add(lineOf(acc, acc.Net()))
		case mappings.BucketEmployeeBenefits:
			pl.EmployeeBenefits.add(lineOf(acc, acc.Net()))
		case mappings.BucketFinanceCosts:
			pl.FinanceCosts.add(lineOf(acc, acc.Net()))
		case mappings.BucketDepreciation:
			pl.DepreciationAmortization.add(lineOf(acc, acc.Net()))
		case mappings.BucketOtherExpense:
			pl.OtherExpenses.add(lineOf(acc, acc.Net()))
		}
	}
	pl.GrossProfit = pl.Sales.Total.Sub(pl.CostOfGoodsSold.Total).Sub(pl.DirectExpenses.Total)
	pl.TotalIncome = pl.Sales.Total.Add(pl.OtherIncome.Total)
	pl.TotalIndirectExpenses = shared.Sum(pl.EmployeeBenefits.Total, pl.FinanceCosts.Total,
		pl.DepreciationAmortization.Total, pl.OtherExpenses.Total)
	pl.ProfitBeforeTax = pl.GrossProfit.Add(pl.OtherIncome.Total).Sub(pl.TotalIndirectExpenses)
	return pl
}
