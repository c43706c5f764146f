package mappings

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
)

func TestTagClassifier(t *testing.T) {
	c := TagClassifier{}
	cases := []struct {
		typ      accounts.AccountType
		category string
		want     Bucket
	}{
		{accounts.AccountTypeIncome, accounts.CategorySales, BucketSales},
		{accounts.AccountTypeIncome, "", BucketOtherIncome},
		{accounts.AccountTypeExpense, accounts.CategoryCOGS, BucketCOGS},
		{accounts.AccountTypeExpense, accounts.CategoryDirect, BucketDirectExpense},
		{accounts.AccountTypeExpense, accounts.CategoryEmployee, BucketEmployeeBenefits},
		{accounts.AccountTypeExpense, accounts.CategoryFinance, BucketFinanceCosts},
		{accounts.AccountTypeExpense, accounts.CategoryDepreciate, BucketDepreciation},
		{accounts.AccountTypeExpense, "", BucketOtherExpense},
		{accounts.AccountTypeAsset, accounts.CategoryCash, BucketNone},
	}
	for _, tc := range cases {
		got := c.Classify(accounts.Account{Type: tc.typ, Category: tc.category})
		require.Equal(t, tc.want, got, "%s/%s", tc.typ, tc.category)
	}
}

func TestOverrideClassifier(t *testing.T) {
	c := OverrideClassifier{Overrides: map[int64]Bucket{5: BucketFinanceCosts}, Fallback: TagClassifier{}}
	require.Equal(t, BucketFinanceCosts, c.Classify(accounts.Account{ID: 5, Type: accounts.AccountTypeExpense}))
	require.Equal(t, BucketOtherExpense, c.Classify(accounts.Account{ID: 6, Type: accounts.AccountTypeExpense}))
}
