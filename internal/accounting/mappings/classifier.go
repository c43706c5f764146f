package mappings

import (
	"strings"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
)

// Bucket is the statement line an income or expense account rolls into.
type Bucket string

const (
	BucketSales            Bucket = "sales"
	BucketCOGS             Bucket = "cogs"
	BucketDirectExpense    Bucket = "direct_expense"
	BucketOtherIncome      Bucket = "other_income"
	BucketEmployeeBenefits Bucket = "employee_benefits"
	BucketFinanceCosts     Bucket = "finance_costs"
	BucketDepreciation     Bucket = "depreciation_amortization"
	BucketOtherExpense     Bucket = "other_expense"
	BucketNone             Bucket = "none"
)

// Valid reports whether b is a known bucket.
func (b Bucket) Valid() bool {
	switch b {
	case BucketSales, BucketCOGS, BucketDirectExpense, BucketOtherIncome, BucketEmployeeBenefits,
		BucketFinanceCosts, BucketDepreciation, BucketOtherExpense, BucketNone:
		return true
	}
	return false
}

// Classifier decides which Trading / P&L bucket an account belongs to.
type Classifier interface {
	Classify(a accounts.Account) Bucket
}

// TagClassifier derives buckets from account type and category tag.
type TagClassifier struct{}

func (TagClassifier) Classify(a accounts.Account) Bucket {
	category := strings.ToLower(a.Category)
	switch a.Type {
	case accounts.AccountTypeIncome:
		if category == accounts.CategorySales {
			return BucketSales
		}
		return BucketOtherIncome
	case accounts.AccountTypeExpense:
		switch category {
		case accounts.CategoryCOGS:
			return BucketCOGS
		case accounts.CategoryDirect:
			return BucketDirectExpense
		case accounts.CategoryEmployee:
			return BucketEmployeeBenefits
		case accounts.CategoryFinance:
			return BucketFinanceCosts
		case accounts.CategoryDepreciate:
			return BucketDepreciation
		default:
			return BucketOtherExpense
		}
	}
	return BucketNone
}

// OverrideClassifier consults per-account overrides before falling back.
type OverrideClassifier struct {
	Overrides map[int64]Bucket
	Fallback  Classifier
}

func (c OverrideClassifier) Classify(a accounts.Account) Bucket {
	if b, ok := c.Overrides[a.ID]; ok && b.Valid() {
		return b
	}
	if c.Fallback == nil {
		return TagClassifier{}.Classify(a)
	}
	return c.Fallback.Classify(a)
}
